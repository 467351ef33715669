// internal/util/logger.go
package util

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var logger *slog.Logger

// LogConfig controls the global logger.
type LogConfig struct {
	Level      string
	File       string // optional rotating log file, in addition to stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// InitLogger initializes the global structured logger.
// It sets up a JSON handler for production-like logs.
func InitLogger(cfg LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: true, // Add file and line number to logs
		Level:     ParseLevel(cfg.Level),
	})
	logger = slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// GetLogger returns the initialized global logger.
func GetLogger() *slog.Logger {
	if logger == nil {
		InitLogger(LogConfig{}) // should be called explicitly at app start
	}
	return logger
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
