package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/use-agent/socialpulse/api"
	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/scraper"
	"github.com/use-agent/socialpulse/service"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("socialpulse starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"renderer", cfg.Browser.Renderer,
		"max_attempts", cfg.Retry.MaxAttempts,
		"snapshot_dir", cfg.Snapshot.Dir,
	)

	// ── 3. Render backend ───────────────────────────────────────────
	// Nothing is started here: every scrape call launches and closes its
	// own session.
	l, err := scraper.NewLauncher(cfg)
	if err != nil {
		slog.Error("invalid renderer", "error", err)
		os.Exit(1)
	}
	tracked := engine.Track(l)

	// ── 4. Services and router ──────────────────────────────────────
	svcs := service.New(tracked, cfg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	router := api.NewRouter(ctx, api.Scrapers{
		InstagramProfile: svcs.InstagramProfile,
		InstagramPost:    svcs.InstagramPost,
		TikTokProfile:    svcs.TikTokProfile,
	}, tracked, cfg, time.Now())

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Error-Code"},
		MaxAge:         300,
	})

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           corsHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String(), "active_sessions", tracked.Active())

	// In-flight scrapes may hold a browser for a while; give them the
	// request deadline to finish and close their sessions.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.RequestTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err, "active_sessions", tracked.Active())
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("socialpulse stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
