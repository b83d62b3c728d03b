package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevel(t *testing.T) {
	tests := []struct {
		level string
		env   string
		want  zapcore.Level
	}{
		{"debug", "prod", zapcore.DebugLevel},
		{"WARN", "dev", zapcore.WarnLevel},
		{"invalid", "prod", zapcore.InfoLevel},
		{"", "", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, tt.env)
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", tt.level, err)
		}
		if !logger.Core().Enabled(tt.want) {
			t.Fatalf("New(%q) should enable %s", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
			t.Fatalf("New(%q) should not enable %s", tt.level, tt.want-1)
		}
	}
}
