// Package logger configures the process-wide slog logger used by the
// audio engine façade and its tools.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	globalLogger *slog.Logger
	once         sync.Once
)

type Config struct {
	Level   string   `json:"level"`   // debug/info/warn/error
	Outputs []string `json:"outputs"` // stdout or file paths
}

// New builds a logger from cfg without touching the package-wide instance.
// Engines that need isolated logging (tests, multiple instances) use this.
func New(cfg Config) (*slog.Logger, error) {
	level := ParseLevel(cfg.Level)

	var writers []io.Writer
	for _, output := range cfg.Outputs {
		switch output {
		case "", "stdout":
			writers = append(writers, os.Stdout)
		default:
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}

			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file: %w", err)
			}
			writers = append(writers, file)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	return slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: level,
	})), nil
}

// ParseLevel maps a config level string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
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

// Init installs the package-wide logger. Only the first call takes effect.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(cfg)
	})
	return err
}

func Debug(msg string, args ...interface{}) {
	Logger().Debug(msg, args...)
}

func Info(msg string, args ...interface{}) {
	Logger().Info(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger().Warn(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger().Error(msg, args...)
}

func Logger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}
