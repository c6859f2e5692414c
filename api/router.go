package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/socialpulse/api/handler"
	"github.com/use-agent/socialpulse/api/middleware"
	"github.com/use-agent/socialpulse/config"
)

// Scrapers are the calls served by the API.
type Scrapers struct {
	InstagramProfile handler.ProfileScraper
	InstagramPost    handler.PostScraper
	TikTokProfile    handler.ProfileScraper
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. ctx bounds
// the rate limiter's background janitor.
func NewRouter(ctx context.Context, s Scrapers, sessions handler.SessionReporter, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	api := r.Group("/api")

	api.GET("/health", handler.Health(sessions, startTime, cfg.Server.DegradedSessions))

	protected := api.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.GET("/profile", handler.InstagramProfile(s.InstagramProfile))
	protected.GET("/reel", handler.InstagramReel(s.InstagramPost))
	protected.GET("/tiktok_profile", handler.TikTokProfile(s.TikTokProfile))

	return r
}
