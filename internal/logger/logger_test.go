package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_IsNop(t *testing.T) {
	l := New()
	if l.Log == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nop logger should not enable any level")
	}
}

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{"Info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"WARN", zapcore.WarnLevel, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New()
			if err := l.Init(tt.level); err != nil {
				t.Fatalf("Init(%q): %v", tt.level, err)
			}
			if !l.Log.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if l.Log.Core().Enabled(tt.off) {
				t.Errorf("level %v should be disabled", tt.off)
			}
		})
	}
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	if err := l.Init("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l := New()
	if err := l.Init("info", path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	l.Log.Info("bootstrap complete")
	_ = l.Log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"bootstrap complete"`) {
		t.Errorf("log file = %q", data)
	}
}
