package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/socialpulse/config"
	"github.com/use-agent/socialpulse/models"
	"github.com/use-agent/socialpulse/scraper"
	"github.com/use-agent/socialpulse/service"
)

// cliFlags override the environment configuration.
type cliFlags struct {
	renderer     string
	attempts     int
	delay        time.Duration
	freshSession bool
	snapshotDir  string
	timeout      time.Duration
	debug        bool
}

func newRootCmd() *cobra.Command {
	var f cliFlags

	root := &cobra.Command{
		Use:   "socialpulse-cli",
		Short: "Scrape public social profile counters",
		Long: `socialpulse-cli renders a profile or reel page and prints its counters.

Configuration comes from the SOCIALPULSE_* environment variables; the flags
below override them.

Examples:
  socialpulse-cli profile sufitramp
  socialpulse-cli reel "https://www.instagram.com/reel/C7xyz/"
  socialpulse-cli tiktok marylou --renderer http`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.renderer, "renderer", "", "render backend: browser or http")
	pf.IntVar(&f.attempts, "attempts", 0, "total attempts per call")
	pf.DurationVar(&f.delay, "delay", 0, "pause between attempts")
	pf.BoolVar(&f.freshSession, "fresh-session", false, "launch a new session for every retry")
	pf.StringVar(&f.snapshotDir, "snapshot-dir", "", "directory for diagnostic page dumps")
	pf.DurationVar(&f.timeout, "timeout", 0, "deadline for the whole call")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "profile <username>",
			Short: "Instagram profile: followers, following, posts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, f, func(ctx context.Context, s *service.Services) (any, error) {
					r, err := s.InstagramProfile.Scrape(ctx, args[0])
					if err != nil {
						return nil, err
					}
					return models.NewInstagramProfileResponse(r), nil
				})
			},
		},
		&cobra.Command{
			Use:   "reel <url>",
			Short: "Instagram post or reel: likes, comments, upload date",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, f, func(ctx context.Context, s *service.Services) (any, error) {
					r, err := s.InstagramPost.Scrape(ctx, args[0])
					if err != nil {
						return nil, err
					}
					return models.NewReelResponse(r), nil
				})
			},
		},
		&cobra.Command{
			Use:   "tiktok <username>",
			Short: "TikTok profile: followers, following, likes, bio, link",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, f, func(ctx context.Context, s *service.Services) (any, error) {
					r, err := s.TikTokProfile.Scrape(ctx, args[0])
					if err != nil {
						return nil, err
					}
					return models.NewTikTokProfileResponse(r), nil
				})
			},
		},
	)
	return root
}

// apply overlays the flags that were set onto cfg.
func (f cliFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("renderer") {
		cfg.Browser.Renderer = f.renderer
	}
	if flags.Changed("attempts") {
		cfg.Retry.MaxAttempts = f.attempts
	}
	if flags.Changed("delay") {
		cfg.Retry.Delay = f.delay
	}
	if flags.Changed("fresh-session") {
		cfg.Retry.FreshSession = f.freshSession
	}
	if flags.Changed("snapshot-dir") {
		cfg.Snapshot.Dir = f.snapshotDir
	}
	if flags.Changed("timeout") {
		cfg.Scraper.RequestTimeout = f.timeout
	}
	if f.debug {
		cfg.Log.Level = "debug"
	}
}

type scrapeFunc func(ctx context.Context, s *service.Services) (any, error)

func run(cmd *cobra.Command, f cliFlags, scrape scrapeFunc) error {
	cfg := config.Load()
	f.apply(cmd, cfg)

	level := slog.LevelWarn
	if cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	l, err := scraper.NewLauncher(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, cmd.OutOrStdout(), service.New(l, cfg), scrape)
}

// execute runs scrape and prints its result, or the API-shaped error body.
func execute(ctx context.Context, w io.Writer, svcs *service.Services, scrape scrapeFunc) error {
	result, err := scrape(ctx, svcs)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err != nil {
		_ = enc.Encode(models.ErrorResponse{Error: models.MessageOf(err)})
		return fmt.Errorf("%s: %w", models.CodeOf(err), err)
	}
	return enc.Encode(result)
}
