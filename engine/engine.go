package engine

import (
	"context"
	"time"
)

// Launcher starts render sessions. Each scrape call launches its own
// session and owns it exclusively until Close.
type Launcher interface {
	// Name returns the renderer identifier (e.g. "browser", "http").
	Name() string

	// Launch starts a new session.
	Launch(ctx context.Context) (Session, error)
}

// Session is one browsing context used to load remote pages.
//
// A session may be navigated several times (one Open per attempt). Close
// releases the underlying resources and must be called exactly once.
type Session interface {
	// Open navigates to url and returns the fully loaded page.
	// Timeouts are reported as models.ErrCodeTimeout, navigation failures as
	// models.ErrCodeNavigation.
	Open(ctx context.Context, url string) (*Page, error)

	// Content returns the markup currently held by the session, for
	// diagnostics after a failed extraction.
	Content(ctx context.Context) (string, error)

	Close() error
}

// Page is a rendered page.
type Page struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the address after redirects.
	FinalURL string

	// HTML is the rendered markup.
	HTML string

	// Title is the document title.
	Title string
}

// Options bound the blocking phases of Session.Open.
type Options struct {
	// UserAgent is sent on every request of the session.
	UserAgent string

	// NavigationTimeout bounds the navigation itself.
	NavigationTimeout time.Duration

	// NetworkIdleTimeout bounds the wait for network quiescence.
	NetworkIdleTimeout time.Duration

	// IdleWindow is how long no request may be in flight before the page
	// counts as idle.
	IdleWindow time.Duration

	// Proxy is an optional proxy URL for all requests.
	Proxy string
}

// DefaultUserAgent is a desktop Chrome identity.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 60 * time.Second
	}
	if o.NetworkIdleTimeout <= 0 {
		o.NetworkIdleTimeout = 40 * time.Second
	}
	if o.IdleWindow <= 0 {
		o.IdleWindow = 500 * time.Millisecond
	}
	return o
}
