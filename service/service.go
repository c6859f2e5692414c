// Package service implements the per-platform scrape calls.
//
// Every call owns one render session scope: sessions are launched lazily by
// the first attempt and each launched session is closed exactly once when
// the call returns, whatever the outcome (success, exhaustion, error, panic
// or cancellation).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/extract"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/retry"
	"github.com/use-agent/socialpulse/webhook"
)

// Options are shared by all services.
type Options struct {
	Launcher engine.Launcher
	Policy   retry.Policy

	// FreshSession closes the session and launches a new one before every
	// retry instead of navigating the same session again.
	FreshSession bool

	// RequestTimeout bounds a whole call. Zero means no extra deadline.
	RequestTimeout time.Duration

	Snapshots *retry.SnapshotWriter

	// Alerts is notified of every exhausted call. May be nil.
	Alerts *webhook.Notifier
}

// OptionsFromConfig builds Options for l from cfg.
func OptionsFromConfig(l engine.Launcher, cfg *config.Config) Options {
	return Options{
		Launcher: l,
		Policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
		},
		FreshSession:   cfg.Retry.FreshSession,
		RequestTimeout: cfg.Scraper.RequestTimeout,
		Snapshots:      retry.NewSnapshotWriter(cfg.Snapshot.Dir),
		Alerts:         webhook.New(cfg.Alert.WebhookURL, cfg.Alert.WebhookSecret),
	}
}

// Services bundles the three scrape calls.
type Services struct {
	InstagramProfile *InstagramProfile
	InstagramPost    *InstagramPost
	TikTokProfile    *TikTokProfile
}

// New wires every service onto l.
func New(l engine.Launcher, cfg *config.Config) *Services {
	opts := OptionsFromConfig(l, cfg)
	return &Services{
		InstagramProfile: NewInstagramProfile(opts, cfg.Platforms.InstagramBaseURL),
		InstagramPost:    NewInstagramPost(opts),
		TikTokProfile:    NewTikTokProfile(opts, cfg.Platforms.TikTokBaseURL, cfg.Platforms.TikTokTitleSuffixes),
	}
}

// scrape renders url and extracts from it under the retry policy.
func scrape[T any](ctx context.Context, opts Options, call retry.Call, url string, ex extract.Extractor, build func(*extract.Fields) T) (T, error) {
	if opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
		defer cancel()
	}

	scope := &sessionScope{launcher: opts.Launcher}
	defer scope.release()
	call.Snapshot = scope.content

	start := time.Now()
	v, st, err := retry.Run(ctx, opts.Policy, opts.Snapshots, call, func(ctx context.Context, n int) (T, error) {
		var zero T
		s, err := scope.acquire(ctx, n > 1 && opts.FreshSession)
		if err != nil {
			return zero, err
		}
		page, err := s.Open(ctx, url)
		if err != nil {
			return zero, err
		}
		f, err := ex.Extract(page)
		if errors.Is(err, extract.ErrNotFound) {
			return zero, models.NewScrapeError(models.ErrCodeNotMatched,
				fmt.Sprintf("no %s data on %s", call.Kind, page.FinalURL), err)
		}
		if err != nil {
			return zero, err
		}
		return build(f), nil
	})

	slog.Info("scrape finished",
		"kind", call.Kind,
		"target", call.Target,
		"attempts", st.AttemptsMade,
		"duration_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)

	var se *models.ScrapeError
	if errors.As(err, &se) && se.Code == models.ErrCodeExhausted {
		opts.Alerts.Notify(&webhook.Event{
			Type:     webhook.EventExhausted,
			Kind:     call.Kind,
			Target:   call.Target,
			Attempts: st.AttemptsMade,
			Message:  se.Message,
			Snapshot: se.SnapshotPath,
		})
	}
	return v, err
}

// sessionScope holds the session of one call.
type sessionScope struct {
	launcher engine.Launcher
	current  engine.Session
}

// acquire returns the current session, launching one if there is none or
// if fresh is set.
func (s *sessionScope) acquire(ctx context.Context, fresh bool) (engine.Session, error) {
	if s.current != nil && !fresh {
		return s.current, nil
	}
	s.release()

	sess, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	s.current = sess
	return sess, nil
}

func (s *sessionScope) release() {
	if s.current == nil {
		return
	}
	if err := s.current.Close(); err != nil {
		slog.Warn("session close failed", "renderer", s.launcher.Name(), "error", err)
	}
	s.current = nil
}

var errNoSession = errors.New("service: no render session")

func (s *sessionScope) content(ctx context.Context) (string, error) {
	if s.current == nil {
		return "", errNoSession
	}
	return s.current.Content(ctx)
}

func missing(param string) error {
	return models.NewScrapeError(models.ErrCodeInvalidInput,
		fmt.Sprintf("Missing %s parameter", param), nil)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
