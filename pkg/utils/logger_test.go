package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("debug mode returns development logger", func(t *testing.T) {
		logger, err := NewLogger(true)
		if err != nil {
			t.Fatalf("NewLogger(true) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(true) returned nil logger")
		}
		_ = logger.Sync()
	})

	t.Run("production mode returns production logger", func(t *testing.T) {
		logger, err := NewLogger(false)
		if err != nil {
			t.Fatalf("NewLogger(false) error: %v", err)
		}
		if logger == nil {
			t.Fatal("NewLogger(false) returned nil logger")
		}
		_ = logger.Sync()
	})
}

func TestNewLoggerWithLevel(t *testing.T) {
	tests := []struct {
		level      string
		production bool
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{"debug", false, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"INFO", true, zapcore.InfoLevel, zapcore.DebugLevel},
		{" warn ", false, zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", true, zapcore.ErrorLevel, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLoggerWithLevel(tt.production, tt.level)
			if err != nil {
				t.Fatal(err)
			}
			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if logger.Core().Enabled(tt.disabled) {
				t.Errorf("level %v should be disabled", tt.disabled)
			}
		})
	}

	if _, err := NewLoggerWithLevel(false, "verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
