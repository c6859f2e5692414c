package scraper

import (
	"fmt"

	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/engine"
)

// NewLauncher returns the launcher for cfg.Browser.Renderer: "browser" for
// headless Chromium, "http" for a plain fetch with a Chrome TLS fingerprint.
func NewLauncher(cfg *config.Config) (engine.Launcher, error) {
	switch cfg.Browser.Renderer {
	case "", "browser":
		return NewRodLauncher(cfg.Browser, cfg.Scraper), nil
	case "http":
		return engine.NewHTTPLauncher(engine.Options{
			UserAgent:          cfg.Browser.UserAgent,
			NavigationTimeout:  cfg.Scraper.NavigationTimeout,
			NetworkIdleTimeout: cfg.Scraper.NetworkIdleTimeout,
			IdleWindow:         cfg.Scraper.IdleWindow,
		}), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want browser or http)", cfg.Browser.Renderer)
	}
}
