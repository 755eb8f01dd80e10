// Package buildconfig is the operator-facing configuration for one
// intercept+citnames run: the collector's listen address and overlay
// variables, logging, and the optional archive sink. Distinct from
// internal/session, which is the preload agent's narrow four-variable
// environment contract (see DESIGN.md Open Questions).
package buildconfig

import "errors"

// Config is the complete configuration for one build observation.
type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Semantic  SemanticConfig  `mapstructure:"semantic"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Log       LogConfig       `mapstructure:"log"`
}

// CollectorConfig controls the collector's gRPC listener and the
// environment overlay it hands every supervisor.
type CollectorConfig struct {
	ListenAddr  string            `mapstructure:"listen_addr"`
	BufferSize  int               `mapstructure:"buffer_size"`
	Overlay     map[string]string `mapstructure:"overlay"`
	ReportPath  string            `mapstructure:"report_path"`
}

// SemanticConfig controls which recognisers citnames runs and how
// strictly it filters the resulting entries.
type SemanticConfig struct {
	CompilerPaths []string `mapstructure:"compiler_paths"`
	Strict        bool     `mapstructure:"strict"`
}

// ArchiveConfig is the optional SQL sink for finalized entries.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// LogConfig configures the zap/lumberjack logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Validate checks the invariants a loaded Config must satisfy before
// use.
func (c *Config) Validate() error {
	if c.Collector.BufferSize <= 0 {
		return errors.New("collector.buffer_size must be greater than 0")
	}
	if c.Collector.BufferSize > 100000 {
		return errors.New("collector.buffer_size must be less than or equal to 100000")
	}
	if c.Archive.Enabled && c.Archive.DSN == "" {
		return errors.New("archive.dsn is required when archive.enabled is true")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level != "" && !validLevels[c.Log.Level] {
		return errors.New("log.level must be one of: debug, info, warn, error")
	}
	validOutputs := map[string]bool{"console": true, "file": true, "both": true}
	if c.Log.Output != "" && !validOutputs[c.Log.Output] {
		return errors.New("log.output must be one of: console, file, both")
	}
	return nil
}

// Default returns the configuration a plain `intercept -- make` run
// uses with no config file present.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			ListenAddr: "127.0.0.1:0",
			BufferSize: 10000,
			Overlay:    map[string]string{},
			ReportPath: "execution_report.json",
		},
		Semantic: SemanticConfig{
			CompilerPaths: nil,
			Strict:        false,
		},
		Archive: ArchiveConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Level:      "info",
			Output:     "console",
			FilePath:   "bear.log",
			MaxSizeMB:  100,
			MaxBackups: 5,
		},
	}
}
