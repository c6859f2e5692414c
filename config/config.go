package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Retry     RetryConfig
	Snapshot  SnapshotConfig
	Platforms PlatformConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Alert     AlertConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5000
	Mode string // "debug", "release", "test"; default: "release"

	// DegradedSessions is the number of concurrently open render sessions
	// above which /api/health reports "degraded". 0 disables the check.
	DegradedSessions int // default: 8
}

// BrowserConfig controls how pages are rendered.
type BrowserConfig struct {
	// Renderer selects the render backend: "browser" (headless Chromium)
	// or "http" (plain fetch with a Chrome TLS fingerprint).
	Renderer string // default: "browser"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all browser traffic.
	Proxy string

	// UserAgent overrides the browser identity string.
	UserAgent string
}

// ScraperConfig bounds every blocking phase of a scrape.
type ScraperConfig struct {
	// NavigationTimeout is the max time for navigation and page load.
	NavigationTimeout time.Duration // default: 60s

	// NetworkIdleTimeout is the max wait for network quiescence.
	NetworkIdleTimeout time.Duration // default: 40s

	// IdleWindow is the quiescence window that counts as "idle".
	IdleWindow time.Duration // default: 500ms

	// RequestTimeout is the hard deadline on one whole scrape call.
	RequestTimeout time.Duration // default: 150s

	// BlockedResourceTypes lists resource types to block.
	// default: none. Accepted: "Image", "Stylesheet", "Font", "Media".
	BlockedResourceTypes []string
}

// RetryConfig controls the per-call retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int // default: 2

	// Delay is the fixed pause between attempts.
	Delay time.Duration // default: 2s

	// FreshSession relaunches the render session before every retry instead
	// of navigating the same session again.
	FreshSession bool // default: false
}

// SnapshotConfig controls where diagnostic page dumps are written.
type SnapshotConfig struct {
	Dir string // default: "."
}

// PlatformConfig holds the URL templates and page conventions per platform.
type PlatformConfig struct {
	InstagramBaseURL string // default: "https://www.instagram.com"
	TikTokBaseURL    string // default: "https://www.tiktok.com"

	// TikTokTitleSuffixes are stripped from the page title to derive the
	// display name.
	TikTokTitleSuffixes []string // default: [" on TikTok", " | TikTok"]
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key or IP.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key or IP.
	Burst int // default: 5
}

// CORSConfig controls cross-origin access from browser front-ends.
type CORSConfig struct {
	AllowedOrigins []string // default: ["*"]
}

// AlertConfig controls failure notifications.
type AlertConfig struct {
	// WebhookURL receives a POST for every exhausted scrape. Empty disables.
	WebhookURL string

	// WebhookSecret signs the payload (HMAC-SHA256) when set.
	WebhookSecret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SOCIALPULSE_HOST", "0.0.0.0"),
			Port: envIntOr("SOCIALPULSE_PORT", 5000),
			Mode: envOr("SOCIALPULSE_MODE", "release"),

			DegradedSessions: envIntOr("SOCIALPULSE_DEGRADED_SESSIONS", 8),
		},
		Browser: BrowserConfig{
			Renderer:   envOr("SOCIALPULSE_RENDERER", "browser"),
			Headless:   envBoolOr("SOCIALPULSE_HEADLESS", true),
			NoSandbox:  envBoolOr("SOCIALPULSE_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SOCIALPULSE_BROWSER_BIN"),
			Proxy:      os.Getenv("SOCIALPULSE_PROXY"),
			UserAgent:  os.Getenv("SOCIALPULSE_USER_AGENT"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:    envDurationOr("SOCIALPULSE_NAV_TIMEOUT", 60*time.Second),
			NetworkIdleTimeout:   envDurationOr("SOCIALPULSE_IDLE_TIMEOUT", 40*time.Second),
			IdleWindow:           envDurationOr("SOCIALPULSE_IDLE_WINDOW", 500*time.Millisecond),
			RequestTimeout:       envDurationOr("SOCIALPULSE_REQUEST_TIMEOUT", 150*time.Second),
			BlockedResourceTypes: envSliceOr("SOCIALPULSE_BLOCKED_RESOURCES", nil),
		},
		Retry: RetryConfig{
			MaxAttempts:  envIntOr("SOCIALPULSE_RETRY_ATTEMPTS", 2),
			Delay:        envDurationOr("SOCIALPULSE_RETRY_DELAY", 2*time.Second),
			FreshSession: envBoolOr("SOCIALPULSE_RETRY_FRESH_SESSION", false),
		},
		Snapshot: SnapshotConfig{
			Dir: envOr("SOCIALPULSE_SNAPSHOT_DIR", "."),
		},
		Platforms: PlatformConfig{
			InstagramBaseURL:    envOr("SOCIALPULSE_INSTAGRAM_URL", "https://www.instagram.com"),
			TikTokBaseURL:       envOr("SOCIALPULSE_TIKTOK_URL", "https://www.tiktok.com"),
			TikTokTitleSuffixes: envRawSliceOr("SOCIALPULSE_TIKTOK_TITLE_SUFFIXES", []string{" on TikTok", " | TikTok"}),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SOCIALPULSE_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SOCIALPULSE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SOCIALPULSE_RATE_RPS", 1.0),
			Burst:             envIntOr("SOCIALPULSE_RATE_BURST", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: envSliceOr("SOCIALPULSE_CORS_ORIGINS", []string{"*"}),
		},
		Alert: AlertConfig{
			WebhookURL:    os.Getenv("SOCIALPULSE_ALERT_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("SOCIALPULSE_ALERT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SOCIALPULSE_LOG_LEVEL", "info"),
			Format: envOr("SOCIALPULSE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envRawSliceOr is envSliceOr without trimming, for values whose leading
// whitespace is significant (" on TikTok").
func envRawSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return fallback
}
