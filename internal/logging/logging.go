// Package logging builds the process-wide slog.Logger: a text handler
// on stderr fanned out with a size-rotated log file, so interactive
// runs and the long-lived daemons share one configuration.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"nbtether/config"
)

// New assembles the logger from the configuration.  With an empty
// LogPath only the stderr handler is installed.
func New(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose > 0 {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stderr, opts),
	}

	if cfg.LogPath != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    config.DefaultLogMaxSizeMB,
			MaxBackups: config.DefaultLogMaxBackups,
		}
		handlers = append(handlers, slog.NewTextHandler(rotated, opts))
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

// Discard returns a logger that drops everything.  Intended for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
