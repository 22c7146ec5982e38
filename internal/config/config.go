package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything roomdeck reads at startup.
type Config struct {
	APIURL string

	PushEnabled    bool
	PushPath       string
	PushEvent      string
	PushMaxRetries int
	PushBackoff    time.Duration

	PollInterval        time.Duration
	DetailInterval      time.Duration
	BackstopPolling     bool
	NoticeAfterFailures int

	LogFile  string
	LogLevel string
}

const (
	defaultConfigPath = "~/.config/roomdeck/config.toml"
	defaultLogFile    = "~/.local/state/roomdeck/roomdeck.log"
	defaultAPIURL     = "127.0.0.1:8080"
	defaultPushPath   = "/api/ws"
	defaultPushEvent  = "status_update"
	defaultLogLevel   = "info"

	defaultPushMaxRetries      = 10
	defaultPushBackoff         = time.Second
	defaultPollInterval        = 5000 * time.Millisecond
	defaultDetailInterval      = 500 * time.Millisecond
	defaultNoticeAfterFailures = 3
)

// Environment overrides.
const (
	KeyAPIURL   = "ROOMDECK_API_URL"
	KeyPush     = "ROOMDECK_PUSH"
	KeyLogLevel = "ROOMDECK_LOG_LEVEL"
	KeyLogFile  = "ROOMDECK_LOG_FILE"
)

// fileConfig is the on-disk shape. Pointers distinguish "unset" from zero.
type fileConfig struct {
	APIURL              string `toml:"api_url"`
	PushEnabled         *bool  `toml:"push_enabled"`
	PushPath            string `toml:"push_path"`
	PushEvent           string `toml:"push_event"`
	PushMaxRetries      *int   `toml:"push_max_retries"`
	PushBackoffMS       *int   `toml:"push_backoff_ms"`
	PollIntervalMS      *int   `toml:"poll_interval_ms"`
	DetailIntervalMS    *int   `toml:"detail_interval_ms"`
	BackstopPolling     *bool  `toml:"backstop_polling"`
	NoticeAfterFailures *int   `toml:"notice_after_failures"`
	LogFile             string `toml:"log_file"`
	LogLevel            string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:              defaultAPIURL,
		PushEnabled:         true,
		PushPath:            defaultPushPath,
		PushEvent:           defaultPushEvent,
		PushMaxRetries:      defaultPushMaxRetries,
		PushBackoff:         defaultPushBackoff,
		PollInterval:        defaultPollInterval,
		DetailInterval:      defaultDetailInterval,
		BackstopPolling:     true,
		NoticeAfterFailures: defaultNoticeAfterFailures,
		LogFile:             mustExpand(defaultLogFile),
		LogLevel:            defaultLogLevel,
	}
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.merge(raw)
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		c.APIURL = v
	}
	if raw.PushEnabled != nil {
		c.PushEnabled = *raw.PushEnabled
	}
	if v := strings.TrimSpace(raw.PushPath); v != "" {
		c.PushPath = v
	}
	if v := strings.TrimSpace(raw.PushEvent); v != "" {
		c.PushEvent = v
	}
	if raw.PushMaxRetries != nil {
		c.PushMaxRetries = *raw.PushMaxRetries
	}
	if raw.PushBackoffMS != nil {
		c.PushBackoff = millis(*raw.PushBackoffMS)
	}
	if raw.PollIntervalMS != nil {
		c.PollInterval = millis(*raw.PollIntervalMS)
	}
	if raw.DetailIntervalMS != nil {
		c.DetailInterval = millis(*raw.DetailIntervalMS)
	}
	if raw.BackstopPolling != nil {
		c.BackstopPolling = *raw.BackstopPolling
	}
	if raw.NoticeAfterFailures != nil {
		c.NoticeAfterFailures = *raw.NoticeAfterFailures
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		c.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookupTrimmed(lookup, KeyAPIURL); ok {
		c.APIURL = v
	}
	if v, ok := lookupTrimmed(lookup, KeyPush); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyPush, err)
		}
		c.PushEnabled = enabled
	}
	if v, ok := lookupTrimmed(lookup, KeyLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupTrimmed(lookup, KeyLogFile); ok {
		c.LogFile = mustExpand(v)
	}
	return nil
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Validate rejects settings the runtime cannot honor.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url is empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must be positive, got %d", c.PollInterval.Milliseconds()))
	}
	if c.DetailInterval <= 0 {
		errs = append(errs, fmt.Errorf("detail_interval_ms must be positive, got %d", c.DetailInterval.Milliseconds()))
	}
	if c.PushBackoff <= 0 {
		errs = append(errs, fmt.Errorf("push_backoff_ms must be positive, got %d", c.PushBackoff.Milliseconds()))
	}
	if c.PushMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("push_max_retries must not be negative, got %d", c.PushMaxRetries))
	}
	if c.NoticeAfterFailures < 0 {
		errs = append(errs, fmt.Errorf("notice_after_failures must not be negative, got %d", c.NoticeAfterFailures))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	return errors.Join(errs...)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
