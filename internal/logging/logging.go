// Package logging builds the process logger from flags and configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joeycumines/mdcell/internal/config"
)

// Setup is a resolved logger. Close must be called when done.
type Setup struct {
	Logger *slog.Logger
	Level  slog.Level
	file   io.WriteCloser
}

// Close releases the log file, if any.
func (s *Setup) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// Resolve builds a logger. Flag values take precedence over config values,
// which take precedence over schema defaults. With a log file configured the
// output is JSON to a rotating file; otherwise it is text to fallback, or
// discarded when fallback is nil (the TUI owns the terminal).
func Resolve(flagPath, flagLevel string, cfg *config.Config, fallback io.Writer) (*Setup, error) {
	schema := config.DefaultSchema()

	levelStr := flagLevel
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, config.KeyLogLevel)
	}
	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	setup := &Setup{Level: level}
	opts := &slog.HandlerOptions{Level: level}

	logPath := flagPath
	if logPath == "" {
		logPath = schema.Resolve(cfg, config.KeyLogFile)
	}

	switch {
	case logPath != "":
		w, err := NewRotatingFileWriter(
			logPath,
			schema.ResolveInt(cfg, config.KeyLogMaxSizeMB),
			schema.ResolveInt(cfg, config.KeyLogMaxFiles),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		setup.file = w
		setup.Logger = slog.New(slog.NewJSONHandler(w, opts))
	case fallback != nil:
		setup.Logger = slog.New(slog.NewTextHandler(fallback, opts))
	default:
		setup.Logger = slog.New(slog.DiscardHandler)
	}

	return setup, nil
}
