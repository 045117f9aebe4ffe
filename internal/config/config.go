package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
//
// UpstreamBaseURL is the single source of truth for the POS backend address;
// it is injected into the one HTTP client rather than read ambiently by the
// modules that need it.
type Config struct {
	AppEnv             string
	Port               string
	UpstreamBaseURL    string
	UpstreamTimeout    time.Duration
	RedisURL           string
	CORSAllowedOrigins []string
	DraftTTL           time.Duration
	CatalogCacheTTL    time.Duration
	IdempotencyTTL     time.Duration
	RateLimit          string
	ListDefaultLimit   int
	ListMaxLimit       int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		UpstreamBaseURL:    strings.TrimRight(strings.TrimSpace(k.String("UPSTREAM_BASE_URL")), "/"),
		UpstreamTimeout:    parseDuration(k.String("UPSTREAM_TIMEOUT"), "10s"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		DraftTTL:           parseDuration(k.String("DRAFT_TTL"), "2h"),
		CatalogCacheTTL:    parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "300-M"),
		ListDefaultLimit:   intOrDefault(k.Int("LIST_DEFAULT_LIMIT"), 20),
		ListMaxLimit:       intOrDefault(k.Int("LIST_MAX_LIMIT"), 100),
	}

	if cfg.UpstreamBaseURL == "" {
		return nil, errors.New("UPSTREAM_BASE_URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.UpstreamBaseURL); err != nil {
		return nil, fmt.Errorf("UPSTREAM_BASE_URL is not a valid URL: %w", err)
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ListDefaultLimit > cfg.ListMaxLimit {
		cfg.ListDefaultLimit = cfg.ListMaxLimit
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
