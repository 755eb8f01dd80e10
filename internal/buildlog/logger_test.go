package buildlog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  LogConfig
	}{
		{name: "console output", cfg: LogConfig{Level: "info", Output: "console"}},
		{name: "debug level", cfg: LogConfig{Level: "debug", Output: "console"}},
		{name: "invalid level defaults to info", cfg: LogConfig{Level: "invalid", Output: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			if logger == nil {
				t.Fatal("expected logger to be non-nil")
			}
			logger.Sync()
		})
	}
}

func TestLoggerSetLevel(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "info", Output: "console"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel() error = %v", err)
	}
	if !logger.zap.Core().Enabled(-1) {
		t.Error("expected debug level to be enabled after SetLevel")
	}
}

func TestLoggerFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "bear.log")

	logger, err := NewLogger(LogConfig{Level: "info", Output: "file", FilePath: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("hello")
	logger.Sync()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to exist at %s: %v", path, err)
	}
}

func TestWithModule(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "info", Output: "console"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	child := logger.WithModule("collector")
	if child == nil {
		t.Fatal("expected child logger to be non-nil")
	}
}
