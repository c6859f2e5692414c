package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/use-agent/socialpulse/extract"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/retry"
)

const defaultTikTokBaseURL = "https://www.tiktok.com"

// TikTokProfile scrapes a TikTok profile. Posts are not supported.
type TikTokProfile struct {
	opts      Options
	baseURL   string
	extractor extract.Extractor
}

// NewTikTokProfile builds the service. titleSuffixes are stripped from the
// page title to derive the display name.
func NewTikTokProfile(opts Options, baseURL string, titleSuffixes []string) *TikTokProfile {
	if baseURL == "" {
		baseURL = defaultTikTokBaseURL
	}
	return &TikTokProfile{
		opts:      opts,
		baseURL:   strings.TrimRight(baseURL, "/"),
		extractor: extract.TikTokProfile(titleSuffixes),
	}
}

// ProfileURL is the page rendered for username.
func (s *TikTokProfile) ProfileURL(username string) string {
	return s.baseURL + "/@" + url.PathEscape(username)
}

// Scrape returns the counters and optional bio, link and display name.
func (s *TikTokProfile) Scrape(ctx context.Context, username string) (*models.ProfileResult, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if blank(username) {
		return nil, missing("username")
	}

	call := retry.Call{
		Kind:         "tiktok_profile",
		Target:       username,
		Subject:      "TikTok data for " + username,
		SnapshotName: "tiktok_page_" + username + ".html",
	}
	return scrape(ctx, s.opts, call, s.ProfileURL(username), s.extractor,
		func(f *extract.Fields) *models.ProfileResult {
			return &models.ProfileResult{
				Identifier:   username,
				Followers:    f.Count(extract.Followers),
				Following:    f.Count(extract.Following),
				PostsOrLikes: f.Count(extract.Likes),
				Bio:          f.Bio,
				ExternalLink: f.Link,
				DisplayName:  f.Name,
			}
		})
}
