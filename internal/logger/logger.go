// Package logger provides structured slog loggers. All logs are written in
// JSON format.
//
// The system log lives at <logDir>/system.log and is rotated by size.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig controls size-based rotation of the system log.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
}

// NewSystemLogger creates a JSON slog.Logger that writes to <logDir>/system.log.
// The directory is created if it does not exist. The returned io.Closer
// releases the underlying file.
func NewSystemLogger(logDir string, level slog.Level, rot RotationConfig) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("creating log directory %q: %w", logDir, err)
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "system.log"),
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		Compress:   true,
	}

	return New(w, level), w, nil
}

// New creates a JSON slog.Logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
