// Package config loads runtime settings and the source registry
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/abelzeko/water-feed/internal/retry"
)

const (
	defaultOutputDir      = "data"
	defaultRetentionDays  = 5
	defaultRequestTimeout = 12 * time.Second
	defaultRetryAttempts  = 4
	defaultRetryBase      = 2.0
	defaultRetryMaxDelay  = 30 * time.Second
	defaultTimezone       = "America/Chicago"
	defaultSchedule       = "15 * * * *"
)

// Config holds runtime configuration for the scraper and the bot
type Config struct {
	Registry       *Registry
	OutputDir      string
	RetentionDays  int
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryBase      float64
	RetryMaxDelay  time.Duration
	RetryFixed     time.Duration // when non-zero, replaces exponential backoff
	Location       *time.Location
	WriteEmpty     bool
	Schedule       string
	MetricsFile    string
	Debug          bool
	BotToken       string
}

// Retention returns the trailing window kept in a snapshot
func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// RetryPolicy builds the fetch retry policy
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = c.RetryAttempts
	if c.RetryFixed > 0 {
		p.Backoff = retry.Fixed(c.RetryFixed)
	} else {
		p.Backoff = retry.Exponential(c.RetryBase, c.RetryMaxDelay)
	}
	return p
}

// Load reads configuration from environment variables (optionally .env)
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := Config{
		OutputDir:      defaultOutputDir,
		RetentionDays:  defaultRetentionDays,
		RequestTimeout: defaultRequestTimeout,
		RetryAttempts:  defaultRetryAttempts,
		RetryBase:      defaultRetryBase,
		RetryMaxDelay:  defaultRetryMaxDelay,
		Schedule:       defaultSchedule,
		MetricsFile:    get("FEED_METRICS_FILE"),
		BotToken:       get("TELEGRAM_BOT_TOKEN"),
	}

	if v := get("FEED_REGISTRY_FILE"); v != "" {
		reg, err := LoadRegistry(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_REGISTRY_FILE: %w", err)
		}
		cfg.Registry = reg
	} else {
		cfg.Registry = DefaultRegistry()
	}

	if v := get("FEED_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if v := get("FEED_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_RETENTION_DAYS: %w", err)
		}
		if n < 1 {
			return cfg, fmt.Errorf("invalid FEED_RETENTION_DAYS: must be at least 1, got %d", n)
		}
		cfg.RetentionDays = n
	}

	durations := []struct {
		key      string
		dst      *time.Duration
		positive bool
	}{
		{"FEED_REQUEST_TIMEOUT", &cfg.RequestTimeout, true},
		{"FEED_RETRY_MAX_DELAY", &cfg.RetryMaxDelay, true},
		{"FEED_RETRY_FIXED", &cfg.RetryFixed, false},
	}
	for _, d := range durations {
		v := get(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if parsed < 0 || (d.positive && parsed == 0) {
			return cfg, fmt.Errorf("invalid %s: must be positive, got %s", d.key, parsed)
		}
		*d.dst = parsed
	}

	if v := get("FEED_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_RETRY_ATTEMPTS: %w", err)
		}
		if n < 1 {
			return cfg, fmt.Errorf("invalid FEED_RETRY_ATTEMPTS: must be at least 1, got %d", n)
		}
		cfg.RetryAttempts = n
	}

	if v := get("FEED_RETRY_BASE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid FEED_RETRY_BASE: %w", err)
		}
		if f <= 1 {
			return cfg, fmt.Errorf("invalid FEED_RETRY_BASE: must be greater than 1, got %g", f)
		}
		cfg.RetryBase = f
	}

	tz := get("FEED_TIMEZONE")
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("invalid FEED_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if v := get("FEED_SCHEDULE"); v != "" {
		if _, err := cron.ParseStandard(v); err != nil {
			return cfg, fmt.Errorf("invalid FEED_SCHEDULE: %w", err)
		}
		cfg.Schedule = v
	}

	cfg.WriteEmpty = parseBool(get("FEED_WRITE_EMPTY"))
	cfg.Debug = parseBool(get("FEED_DEBUG"))

	return cfg, nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}
