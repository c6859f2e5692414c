package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/use-agent/socialpulse/extract"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/retry"
)

const defaultInstagramBaseURL = "https://www.instagram.com"

// InstagramProfile scrapes follower, following and post counts.
type InstagramProfile struct {
	opts      Options
	baseURL   string
	extractor extract.Extractor
}

// NewInstagramProfile builds the service. An empty baseURL means
// https://www.instagram.com.
func NewInstagramProfile(opts Options, baseURL string) *InstagramProfile {
	if baseURL == "" {
		baseURL = defaultInstagramBaseURL
	}
	return &InstagramProfile{
		opts:      opts,
		baseURL:   strings.TrimRight(baseURL, "/"),
		extractor: extract.InstagramProfile(),
	}
}

// ProfileURL is the page rendered for username.
func (s *InstagramProfile) ProfileURL(username string) string {
	return s.baseURL + "/" + url.PathEscape(username) + "/"
}

// Scrape returns the profile counters of username.
func (s *InstagramProfile) Scrape(ctx context.Context, username string) (*models.ProfileResult, error) {
	if blank(username) {
		return nil, missing("username")
	}
	username = strings.TrimSpace(username)

	call := retry.Call{
		Kind:         "instagram_profile",
		Target:       username,
		Subject:      "data for " + username,
		SnapshotName: "page_content_" + username + ".html",
	}
	return scrape(ctx, s.opts, call, s.ProfileURL(username), s.extractor,
		func(f *extract.Fields) *models.ProfileResult {
			return &models.ProfileResult{
				Identifier:   username,
				Followers:    f.Count(extract.Followers),
				Following:    f.Count(extract.Following),
				PostsOrLikes: f.Count(extract.Posts),
			}
		})
}

// InstagramPost scrapes likes, comments and the upload date of a post or reel.
type InstagramPost struct {
	opts      Options
	extractor extract.Extractor
}

// NewInstagramPost builds the service.
func NewInstagramPost(opts Options) *InstagramPost {
	return &InstagramPost{opts: opts, extractor: extract.InstagramPost()}
}

// Scrape renders reelURL as given and returns its counters.
func (s *InstagramPost) Scrape(ctx context.Context, reelURL string) (*models.PostResult, error) {
	if blank(reelURL) {
		return nil, missing("reel_url")
	}
	reelURL = strings.TrimSpace(reelURL)

	call := retry.Call{
		Kind:         "instagram_post",
		Target:       reelURL,
		Subject:      "reel data for " + reelURL,
		SnapshotName: "page_content_reel.html",
	}
	return scrape(ctx, s.opts, call, reelURL, s.extractor,
		func(f *extract.Fields) *models.PostResult {
			return &models.PostResult{
				SourceURL:  reelURL,
				Likes:      f.Count(extract.Likes),
				Comments:   f.Count(extract.Comments),
				UploadDate: f.UploadDate,
			}
		})
}
