// Package logger provides structured logging functionality
package logger

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger for application-wide logging
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithComponent returns a logger with a component attribute
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With("component", component),
	}
}

// WithTask returns a logger with task context attributes
func (l *Logger) WithTask(taskID string, kind string) *Logger {
	return &Logger{
		Logger: l.With("task_id", taskID, "task_kind", kind),
	}
}

// WithBook returns a logger with book context attributes
func (l *Logger) WithBook(bookID int, bookName string) *Logger {
	return &Logger{
		Logger: l.With("book_id", bookID, "book_name", bookName),
	}
}

// Default returns a default logger for quick usage
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "text",
	})
}
