package invoicepdf

import (
	"log/slog"
	"time"
)

// converterConfig holds internal configuration for a Converter.
type converterConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	autoDownload bool
	headless     string
	logger       *slog.Logger
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:  30 * time.Second,
		headless: "new",
	}
}

// Option configures a [Converter].
type Option func(*converterConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the standard install locations are searched.
func WithChromePath(path string) Option {
	return func(c *converterConfig) {
		c.chromePath = path
	}
}

// WithTimeout bounds each browser step of a session (load, capture,
// snapshot, key input). Defaults to 30 seconds. A zero or negative value
// disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *converterConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a Chromium build into the local cache when no
// chrome path is configured.
func WithAutoDownload() Option {
	return func(c *converterConfig) {
		c.autoDownload = true
	}
}

// WithHeadless sets Chrome's --headless mode ("new", "old", or "false" for
// a visible window).
func WithHeadless(mode string) Option {
	return func(c *converterConfig) {
		c.headless = mode
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *converterConfig) {
		c.logger = l
	}
}
