package buildconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Collector.BufferSize != 10000 {
		t.Errorf("expected collector.buffer_size to be 10000, got %d", cfg.Collector.BufferSize)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log.level to be 'info', got %s", cfg.Log.Level)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}, wantErr: false},
		{name: "zero buffer size", modify: func(c *Config) { c.Collector.BufferSize = 0 }, wantErr: true},
		{name: "negative buffer size", modify: func(c *Config) { c.Collector.BufferSize = -1 }, wantErr: true},
		{name: "buffer size too large", modify: func(c *Config) { c.Collector.BufferSize = 100001 }, wantErr: true},
		{name: "invalid log level", modify: func(c *Config) { c.Log.Level = "invalid" }, wantErr: true},
		{name: "invalid log output", modify: func(c *Config) { c.Log.Output = "invalid" }, wantErr: true},
		{
			name: "archive enabled without dsn",
			modify: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.DSN = ""
			},
			wantErr: true,
		},
		{
			name: "valid custom config",
			modify: func(c *Config) {
				c.Collector.BufferSize = 50000
				c.Log.Level = "debug"
				c.Log.Output = "file"
				c.Archive.Enabled = true
				c.Archive.DSN = "sqlite:///tmp/bear.db"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
collector:
  listen_addr: "127.0.0.1:9999"
  buffer_size: 5000
log:
  level: "debug"
  output: "console"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Collector.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("expected collector.listen_addr = '127.0.0.1:9999', got %s", cfg.Collector.ListenAddr)
	}
	if cfg.Collector.BufferSize != 5000 {
		t.Errorf("expected collector.buffer_size = 5000, got %d", cfg.Collector.BufferSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log.level = 'debug', got %s", cfg.Log.Level)
	}
}

func TestLoaderLoadWithEnvOverride(t *testing.T) {
	os.Setenv("BEAR_COLLECTOR_LISTEN_ADDR", "127.0.0.1:7777")
	defer os.Unsetenv("BEAR_COLLECTOR_LISTEN_ADDR")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
collector:
  listen_addr: "127.0.0.1:8888"
  buffer_size: 5000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Collector.ListenAddr != "127.0.0.1:7777" {
		t.Errorf("expected collector.listen_addr = '127.0.0.1:7777' (from env), got %s", cfg.Collector.ListenAddr)
	}
}

func TestLoadAndValidate(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	validConfig := `
collector:
  buffer_size: 5000
`
	if err := os.WriteFile(configPath, []byte(validConfig), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadAndValidate(configPath)
	if err != nil {
		t.Errorf("LoadAndValidate() error = %v", err)
	}
	if cfg == nil {
		t.Error("expected config to be non-nil")
	}
}

func TestLoadAndValidateInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidConfig := `
collector:
  buffer_size: -1
`
	if err := os.WriteFile(configPath, []byte(invalidConfig), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadAndValidate(configPath)
	if err == nil {
		t.Error("expected LoadAndValidate() to return error for invalid config")
	}
}
