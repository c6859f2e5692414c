package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/models"
)

// RodLauncher starts one headless Chromium process per session. A session
// never shares its browser with another scrape call.
// It is safe for concurrent use.
type RodLauncher struct {
	browserCfg config.BrowserConfig
	opts       engine.Options
	blocked    []string
}

// NewRodLauncher creates a RodLauncher. No browser is started until Launch.
func NewRodLauncher(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) *RodLauncher {
	return &RodLauncher{
		browserCfg: browserCfg,
		opts: engine.Options{
			UserAgent:          browserCfg.UserAgent,
			NavigationTimeout:  scraperCfg.NavigationTimeout,
			NetworkIdleTimeout: scraperCfg.NetworkIdleTimeout,
			IdleWindow:         scraperCfg.IdleWindow,
			Proxy:              browserCfg.Proxy,
		}.WithDefaults(),
		blocked: scraperCfg.BlockedResourceTypes,
	}
}

func (l *RodLauncher) Name() string { return "browser" }

// Launch starts a browser, opens a tab and applies the anti-detection setup.
//
// Order matters: the user agent, stealth script and hijack router only take
// effect for navigations that happen after they are installed, which is why
// they are applied here rather than in Open.
func (l *RodLauncher) Launch(ctx context.Context) (engine.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lc := newLauncher(l.browserCfg, l.opts.Proxy)
	controlURL, err := lc.Launch()
	if err != nil {
		lc.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	s := &session{launcher: lc, opts: l.opts}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		_ = s.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open browser tab",
			err,
		)
	}
	s.page = page

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      l.opts.UserAgent,
		AcceptLanguage: "en-US,en;q=0.9",
	}); err != nil {
		slog.Warn("user agent override failed", "error", err)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth",
			"error", err,
		)
	}

	s.router = setupHijack(page, l.blocked)

	return s, nil
}

// newLauncher builds the Chromium command line.
func newLauncher(cfg config.BrowserConfig, proxy string) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if proxy != "" {
		l = l.Proxy(proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), "1366,768")

	return l
}

// session is a rod-backed engine.Session.
type session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	opts     engine.Options

	closeOnce sync.Once
	closeErr  error
}

// Close stops the hijack router, closes the browser and kills the process.
// Safe to call more than once; only the first call does any work.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		// Kill is a no-op when the process already exited; Cleanup waits for
		// it and removes the temporary profile directory.
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.closeErr = errors.Join(errs...)
		slog.Debug("browser closed")
	})
	return s.closeErr
}
