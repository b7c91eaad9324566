// Package logging builds the process-wide structured logger. Output is
// JSON, either to stderr alone or teed into a size-rotated log file,
// which suits both interactive runs and a supervised daemon.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means stderr only.
	FilePath string
	// MaxSizeMB is the maximum file size in MB before rotation.
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep.
	MaxFiles int
	// WriteToStderr also writes to stderr when a file is configured.
	WriteToStderr bool
}

// DefaultConfig returns stderr-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup builds the logger and returns it with a cleanup function that
// flushes and closes the log file. The cleanup is a no-op for
// stderr-only setups.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if cfg.FilePath == "" {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
		return logger, func() {}, nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultConfig().MaxSizeMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultConfig().MaxFiles
	}

	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var output io.Writer = writer
	if cfg.WriteToStderr {
		output = io.MultiWriter(writer, os.Stderr)
	}

	logger := slog.New(slog.NewJSONHandler(output, opts))
	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, cleanup, nil
}

// parseLevel converts a string level to slog.Level. Unknown levels
// fall back to info; config validation rejects them earlier.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
