package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	// Test with text format
	cfg := Config{
		Level:  "info",
		Format: "text",
	}
	logger := New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Test with json format
	cfg.Format = "json"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Test with debug level
	cfg.Level = "debug"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Test with invalid level (should default to info)
	cfg.Level = "invalid"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}
}

func TestWithComponent(t *testing.T) {
	logger := Default()
	componentLogger := logger.WithComponent("test-component")

	if componentLogger == nil {
		t.Error("Expected component logger to not be nil")
	}

	// Test chaining
	componentLogger2 := componentLogger.WithComponent("nested-component")
	if componentLogger2 == nil {
		t.Error("Expected nested component logger to not be nil")
	}
}

func TestWithTask(t *testing.T) {
	logger := Default()
	taskLogger := logger.WithTask("task-1", "book")
	if taskLogger == nil {
		t.Error("Expected task logger to not be nil")
	}

	bookLogger := taskLogger.WithBook(1, "Genesis")
	if bookLogger == nil {
		t.Error("Expected book logger to not be nil")
	}
}
