package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/socialpulse/models"
)

// ProfileScraper scrapes a profile by username.
type ProfileScraper interface {
	Scrape(ctx context.Context, username string) (*models.ProfileResult, error)
}

// PostScraper scrapes a post or reel by URL.
type PostScraper interface {
	Scrape(ctx context.Context, postURL string) (*models.PostResult, error)
}

// InstagramProfile returns a handler for GET /api/profile?username=.
func InstagramProfile(s ProfileScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Query("username")
		if username == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing username parameter"})
			return
		}

		result, err := s.Scrape(c.Request.Context(), username)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewInstagramProfileResponse(result))
	}
}

// InstagramReel returns a handler for GET /api/reel?reel_url=.
func InstagramReel(s PostScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		reelURL := c.Query("reel_url")
		if reelURL == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing reel_url parameter"})
			return
		}

		result, err := s.Scrape(c.Request.Context(), reelURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewReelResponse(result))
	}
}

// TikTokProfile returns a handler for GET /api/tiktok_profile?username=.
func TikTokProfile(s ProfileScraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Query("username")
		if username == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing username parameter"})
			return
		}

		result, err := s.Scrape(c.Request.Context(), username)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.NewTikTokProfileResponse(result))
	}
}

// respondError writes {"error": <message>} with the status for err.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), models.ErrorResponse{Error: models.MessageOf(err)})
}

// statusFor translates error codes to HTTP status codes. Every failure
// that is not the caller's fault is a 500.
func statusFor(err error) int {
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
