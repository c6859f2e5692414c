package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/models"
	"github.com/ysmood/gson"
)

// contentTimeout bounds the markup dump taken for a diagnostic snapshot.
const contentTimeout = 10 * time.Second

// Open navigates the session's tab to target and waits for the page to settle.
//
// Lifecycle:
//
//  1. Extra headers          – Referer so the visit looks like a search click-through
//  2. Idle listener setup    – MUST be registered before Navigate to capture all requests
//  3. Navigate + load        – bounded by NavigationTimeout
//  4. Wait                   – network idle (bounded by NetworkIdleTimeout) or DOM stable
//  5. Extract                – page.HTML() + document.title
//
// A timeout in step 3 or 4 is reported as ErrCodeTimeout so the caller can
// retry; it does not tear the session down.
func (s *session) Open(ctx context.Context, target string) (*engine.Page, error) {
	// ── 1. Extra headers ─────────────────────────────────────────────
	headers := map[string]string{"Accept-Language": "en-US,en;q=0.9"}
	if u, err := url.Parse(target); err == nil {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(s.page)

	// ── 2. Set up network idle waiter BEFORE navigation ───────────────
	// The idle budget starts once navigation has finished, so the waiter
	// gets a cancelable context and a timer armed after step 3.
	// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
	// HijackRequests on Chromium 145+. Use WaitDOMStable when a router is mounted.
	idleCtx, idleCancel := context.WithCancel(ctx)
	defer idleCancel()

	var waitIdle func()
	if s.router == nil {
		waitIdle = s.page.Context(idleCtx).WaitRequestIdle(s.opts.IdleWindow, nil, nil, nil)
	}

	// ── 3. Navigate ───────────────────────────────────────────────────
	navCtx, navCancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer navCancel()

	nav := s.page.Context(navCtx)
	if err := nav.Navigate(target); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, categorizeError(err, "page did not finish loading")
	}

	// ── 4. Wait strategy ──────────────────────────────────────────────
	var idleTimedOut atomic.Bool
	timer := time.AfterFunc(s.opts.NetworkIdleTimeout, func() {
		idleTimedOut.Store(true)
		idleCancel()
	})
	defer timer.Stop()

	if waitIdle != nil {
		waitIdle()
	} else if err := s.page.Context(idleCtx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil && !idleTimedOut.Load() {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "request canceled")
	}
	if idleTimedOut.Load() {
		return nil, models.NewScrapeError(
			models.ErrCodeTimeout,
			"network did not go idle within "+s.opts.NetworkIdleTimeout.String(),
			context.DeadlineExceeded,
		)
	}

	// ── 5. Extract rendered HTML ──────────────────────────────────────
	p := s.page.Context(ctx)
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = target
	}

	return &engine.Page{
		URL:      target,
		FinalURL: finalURL,
		HTML:     rawHTML,
		Title:    evalStringOrEmpty(p, `() => document.title`),
	}, nil
}

// Content dumps the tab's current markup. It deliberately ignores the
// cancellation of ctx so a snapshot can still be taken for a call that is
// failing, but it is bounded by contentTimeout.
func (s *session) Content(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), contentTimeout)
	defer cancel()
	return s.page.Context(ctx).HTML()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the retry
// loop and the API layer can tell timeouts from navigation failures.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
