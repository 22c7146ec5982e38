package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{KeyAPIURL, KeyPush, KeyLogLevel, KeyLogFile} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.PollInterval != 5*time.Second || cfg.DetailInterval != 500*time.Millisecond {
		t.Fatalf("intervals = %v/%v, want 5s/500ms", cfg.PollInterval, cfg.DetailInterval)
	}
	if !cfg.PushEnabled || !cfg.BackstopPolling {
		t.Fatalf("push/backstop = %v/%v, want both enabled", cfg.PushEnabled, cfg.BackstopPolling)
	}
	if cfg.NoticeAfterFailures != 3 {
		t.Fatalf("NoticeAfterFailures = %d, want 3", cfg.NoticeAfterFailures)
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
api_url = "  http://10.0.0.5:9999  "
push_enabled = false
push_path = "/events"
push_max_retries = 0
push_backoff_ms = 250
poll_interval_ms = 2000
detail_interval_ms = 1000
backstop_polling = false
notice_after_failures = 5
log_file = "  ~/logs/roomdeck.log  "
log_level = "DEBUG"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PushEnabled || cfg.BackstopPolling {
		t.Fatalf("explicit false values were not applied: %#v", cfg)
	}
	if cfg.PushPath != "/events" || cfg.PushEvent != defaultPushEvent {
		t.Fatalf("push path/event = %q/%q", cfg.PushPath, cfg.PushEvent)
	}
	if cfg.PushMaxRetries != 0 || cfg.PushBackoff != 250*time.Millisecond {
		t.Fatalf("retries/backoff = %d/%v", cfg.PushMaxRetries, cfg.PushBackoff)
	}
	if cfg.PollInterval != 2*time.Second || cfg.DetailInterval != time.Second {
		t.Fatalf("intervals = %v/%v", cfg.PollInterval, cfg.DetailInterval)
	}
	if cfg.NoticeAfterFailures != 5 {
		t.Fatalf("NoticeAfterFailures = %d, want 5", cfg.NoticeAfterFailures)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	cfg, err := Load(writeConfig(t, `
api_url = "   "
push_path = ""
log_level = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.PushPath != defaultPushPath || cfg.LogLevel != defaultLogLevel {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `api_url = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(KeyAPIURL, "audio.local:8080")
	t.Setenv(KeyPush, "false")
	t.Setenv(KeyLogLevel, "Warn")
	t.Setenv(KeyLogFile, "~/other.log")

	cfg, err := Load(writeConfig(t, `api_url = "10.0.0.1:1"`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "audio.local:8080" {
		t.Fatalf("APIURL = %q, want env value", cfg.APIURL)
	}
	if cfg.PushEnabled {
		t.Fatal("PushEnabled = true, want env override false")
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.LogFile != filepath.Join(home, "other.log") {
		t.Fatalf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoad_InvalidPushEnvFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)
	t.Setenv(KeyPush, "sometimes")

	if _, err := Load(writeConfig(t, "")); err == nil || !strings.Contains(err.Error(), KeyPush) {
		t.Fatalf("Load error = %v, want %s parse error", err, KeyPush)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "poll_interval_ms"},
		{"negative detail", func(c *Config) { c.DetailInterval = -time.Second }, "detail_interval_ms"},
		{"zero backoff", func(c *Config) { c.PushBackoff = 0 }, "push_backoff_ms"},
		{"negative retries", func(c *Config) { c.PushMaxRetries = -1 }, "push_max_retries"},
		{"negative notice", func(c *Config) { c.NoticeAfterFailures = -2 }, "notice_after_failures"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"empty api", func(c *Config) { c.APIURL = " " }, "api_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
