package observability

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		logger := NewLogger(tt.level, false)
		if logger.GetLevel() != tt.expected {
			t.Errorf("Level %q: expected %v, got %v", tt.level, tt.expected, logger.GetLevel())
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("Expected disabled logger, got level %v", logger.GetLevel())
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == "" || a == b {
		t.Errorf("Expected unique non-empty IDs, got %q and %q", a, b)
	}
}
