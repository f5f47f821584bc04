// Package config loads the invoicepdf YAML file and applies environment
// overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/porticus-lab/invoice-pdf/naming"
	"github.com/porticus-lab/invoice-pdf/render"
)

// DefaultFile is read by the CLI when -config is not given and the file
// exists.
const DefaultFile = "invoicepdf.yaml"

// Config is the top-level configuration.
type Config struct {
	Listen            string        `yaml:"listen"`
	LogLevel          string        `yaml:"log_level"`
	DefaultCredential string        `yaml:"default_credential"`
	Browser           BrowserConfig `yaml:"browser"`
	Render            RenderConfig  `yaml:"render"`
	Naming            NamingConfig  `yaml:"naming"`
	Auth              AuthConfig    `yaml:"auth"`
}

// BrowserConfig controls the Chrome process.
type BrowserConfig struct {
	ChromePath   string        `yaml:"chrome_path"`
	NoSandbox    bool          `yaml:"no_sandbox"`
	AutoDownload bool          `yaml:"auto_download"`
	Timeout      time.Duration `yaml:"timeout"`
	Headless     string        `yaml:"headless"` // new | old | false
}

// RenderConfig controls unlocking and printing.
type RenderConfig struct {
	UnlockTimeout    time.Duration `yaml:"unlock_timeout"`
	Settle           time.Duration `yaml:"settle"`
	Paper            string        `yaml:"paper"`
	Landscape        bool          `yaml:"landscape"`
	PasswordSelector string        `yaml:"password_selector"`
	ConfirmSelector  string        `yaml:"confirm_selector"`
}

// NamingConfig controls output file names.
type NamingConfig struct {
	Prefix       string `yaml:"prefix"`
	Placeholder  string `yaml:"placeholder"`
	DateFallback string `yaml:"date_fallback"` // today | sequence
}

// AuthConfig configures the sign-in gate.
type AuthConfig struct {
	ClientID      string        `yaml:"client_id"`
	ClientSecret  string        `yaml:"client_secret"`
	RedirectURL   string        `yaml:"redirect_url"`
	AllowedDomain string        `yaml:"allowed_domain"`
	SessionSecret string        `yaml:"session_secret"`
	CookieDomain  string        `yaml:"cookie_domain"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	Secure        bool          `yaml:"secure"`
	DevEmail      string        `yaml:"dev_email"`
}

// Load reads path, or starts from an empty config when path is "", then
// applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	c.Listen = env("LISTEN_ADDR", c.Listen)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.DefaultCredential = env("DEFAULT_CREDENTIAL", c.DefaultCredential)
	c.Browser.ChromePath = env("CHROME_PATH", c.Browser.ChromePath)
	c.Auth.ClientID = env("GOOGLE_CLIENT_ID", c.Auth.ClientID)
	c.Auth.ClientSecret = env("GOOGLE_CLIENT_SECRET", c.Auth.ClientSecret)
	c.Auth.RedirectURL = env("OAUTH_REDIRECT_URL", c.Auth.RedirectURL)
	c.Auth.SessionSecret = env("SESSION_SECRET", c.Auth.SessionSecret)
	c.Auth.AllowedDomain = env("ALLOWED_DOMAIN", c.Auth.AllowedDomain)
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultCredential == "" {
		c.DefaultCredential = "0000000000"
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.Browser.Headless == "" {
		c.Browser.Headless = "new"
	}
	if c.Render.UnlockTimeout <= 0 {
		c.Render.UnlockTimeout = 10 * time.Second
	}
	if c.Render.Settle <= 0 {
		c.Render.Settle = 5 * time.Second
	}
	if c.Render.Paper == "" {
		c.Render.Paper = "A4"
	}
	if c.Render.PasswordSelector == "" {
		c.Render.PasswordSelector = render.DefaultPasswordSelector
	}
	if c.Render.ConfirmSelector == "" {
		c.Render.ConfirmSelector = render.DefaultConfirmSelector
	}
	if c.Naming.Prefix == "" {
		c.Naming.Prefix = naming.DefaultPrefix
	}
	if c.Naming.Placeholder == "" {
		c.Naming.Placeholder = naming.DefaultPlaceholder
	}
	if c.Naming.DateFallback == "" {
		c.Naming.DateFallback = string(naming.FallbackToday)
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
}

// Validate checks the values that have a closed set of choices.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := render.ParsePaper(c.Render.Paper); err != nil {
		return fmt.Errorf("config: render.paper: %w", err)
	}
	if _, err := naming.ParseFallback(c.Naming.DateFallback); err != nil {
		return fmt.Errorf("config: naming.date_fallback: %w", err)
	}
	switch c.Browser.Headless {
	case "new", "old", "false":
	default:
		return fmt.Errorf("config: browser.headless: unknown mode %q", c.Browser.Headless)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// Synthesizer builds the file name policy from the naming section.
func (c *Config) Synthesizer() naming.Synthesizer {
	fallback, _ := naming.ParseFallback(c.Naming.DateFallback)
	return naming.Synthesizer{
		Prefix:      c.Naming.Prefix,
		Placeholder: c.Naming.Placeholder,
		Fallback:    fallback,
	}
}

// RenderOptions builds the orchestrator options from the render section.
func (c *Config) RenderOptions(logger *slog.Logger) []render.Option {
	capture := render.DefaultCaptureOptions()
	if paper, err := render.ParsePaper(c.Render.Paper); err == nil {
		capture.Paper = paper
	}
	capture.Landscape = c.Render.Landscape
	return []render.Option{
		render.WithSelectors(c.Render.PasswordSelector, c.Render.ConfirmSelector),
		render.WithUnlockTimeout(c.Render.UnlockTimeout),
		render.WithSettle(c.Render.Settle),
		render.WithCapture(capture),
		render.WithLogger(logger),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
