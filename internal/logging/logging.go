// Package logging configures the dashboard's structured logs.
//
// Logs go to a file rather than the terminal because the TUI owns the
// screen. Every subsystem gets a named go-log logger ("roomdeck/<name>") so
// levels can be tuned per subsystem.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	golog "github.com/ipfs/go-log/v2"
)

const systemPrefix = "roomdeck/"

// Options selects the log destination and level.
type Options struct {
	File   string // empty logs to stderr
	Level  string // debug, info, warn, error
	Format string // plaintext (default), json, color
}

// Setup configures go-log for the whole process.
func Setup(opts Options) error {
	level, err := golog.LevelFromString(levelOrDefault(opts.Level))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}

	cfg := golog.Config{
		Format: formatFor(opts.Format),
		Level:  level,
		Stderr: strings.TrimSpace(opts.File) == "",
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		cfg.File = file
	}
	golog.SetupLogging(cfg)
	return nil
}

// Logger returns the named logger for a subsystem.
func Logger(system string) *golog.ZapEventLogger {
	return golog.Logger(systemPrefix + system)
}

// SetLevel adjusts a single subsystem's level.
func SetLevel(system, level string) error {
	return golog.SetLogLevel(systemPrefix+system, levelOrDefault(level))
}

func levelOrDefault(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return "info"
	}
	return level
}

func formatFor(name string) golog.LogFormat {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return golog.JSONOutput
	case "color", "colour":
		return golog.ColorizedOutput
	default:
		return golog.PlaintextOutput
	}
}
