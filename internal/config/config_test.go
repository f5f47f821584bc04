package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/porticus-lab/invoice-pdf/naming"
	"github.com/porticus-lab/invoice-pdf/render"
)

var envKeys = []string{
	"PORT", "LISTEN_ADDR", "LOG_LEVEL", "DEFAULT_CREDENTIAL", "CHROME_PATH",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "OAUTH_REDIRECT_URL",
	"SESSION_SECRET", "ALLOWED_DOMAIN",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.DefaultCredential != "0000000000" {
		t.Errorf("DefaultCredential = %q", cfg.DefaultCredential)
	}
	if cfg.Render.UnlockTimeout != 10*time.Second || cfg.Render.Settle != 5*time.Second {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Render.PasswordSelector != render.DefaultPasswordSelector || cfg.Render.ConfirmSelector != render.DefaultConfirmSelector {
		t.Errorf("selectors = %q %q", cfg.Render.PasswordSelector, cfg.Render.ConfirmSelector)
	}
	if cfg.Naming.Prefix != naming.DefaultPrefix || cfg.Naming.DateFallback != "today" {
		t.Errorf("Naming = %+v", cfg.Naming)
	}
	if cfg.Browser.Headless != "new" || cfg.Browser.Timeout != 30*time.Second {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
listen: 127.0.0.1:9000
log_level: debug
default_credential: "1234567890"
browser:
  no_sandbox: true
  timeout: 45s
render:
  unlock_timeout: 3s
  settle: 500ms
  paper: letter
  landscape: true
naming:
  prefix: 계산서
  date_fallback: sequence
auth:
  allowed_domain: example.co.kr
  session_ttl: 2h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9000" || cfg.DefaultCredential != "1234567890" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Browser.NoSandbox || cfg.Browser.Timeout != 45*time.Second {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
	if cfg.Render.UnlockTimeout != 3*time.Second || cfg.Render.Settle != 500*time.Millisecond {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour || cfg.Auth.AllowedDomain != "example.co.kr" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("Level = %v", l)
	}

	s := cfg.Synthesizer()
	if s.Prefix != "계산서" || s.Placeholder != naming.DefaultPlaceholder || s.Fallback != naming.FallbackSequence {
		t.Errorf("Synthesizer = %+v", s)
	}
	if n := len(cfg.RenderOptions(slog.Default())); n == 0 {
		t.Error("no render options")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "listen: :7000\nauth:\n  client_id: from-file\n")
	t.Setenv("PORT", "9999")
	t.Setenv("GOOGLE_CLIENT_ID", "from-env")
	t.Setenv("SESSION_SECRET", "s3cr3t")
	t.Setenv("DEFAULT_CREDENTIAL", "1112223333")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Auth.ClientID != "from-env" || cfg.Auth.SessionSecret != "s3cr3t" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.DefaultCredential != "1112223333" {
		t.Errorf("DefaultCredential = %q", cfg.DefaultCredential)
	}

	t.Setenv("LISTEN_ADDR", "0.0.0.0:1234")
	cfg, _ = Load(path)
	if cfg.Listen != "0.0.0.0:1234" {
		t.Errorf("LISTEN_ADDR should win over PORT, got %q", cfg.Listen)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"paper", "render:\n  paper: tabloid\n", "render.paper"},
		{"fallback", "naming:\n  date_fallback: never\n", "naming.date_fallback"},
		{"log level", "log_level: loud\n", "log_level"},
		{"headless", "browser:\n  headless: maybe\n", "browser.headless"},
		{"yaml", "listen: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}
