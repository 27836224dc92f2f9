// Package logging configures the structured logger shared by the CLI and the
// web front-end, and routes unipdf's internal log through the same level.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/mgmeyers/unipdf/v3/common"
)

type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "text"
	Output io.Writer
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func unipdfLevel(level slog.Level) common.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return common.LogLevelDebug
	case level <= slog.LevelInfo:
		// unipdf is chatty at info; only surface its warnings.
		return common.LogLevelWarning
	case level <= slog.LevelWarn:
		return common.LogLevelWarning
	default:
		return common.LogLevelError
	}
}

// New builds a logger writing to cfg.Output (stderr when nil).
func New(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Setup builds the logger, installs it as the slog default and sets unipdf's
// console logger to the matching level.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	common.SetLogger(common.NewConsoleLogger(unipdfLevel(parseLevel(cfg.Level))))

	return logger
}
