package buildconfig

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader reads a Config from one or more YAML files, environment
// variables (prefixed BEAR_), and defaults, and can watch a file for
// changes.
type Loader struct {
	v       *viper.Viper
	config  *Config
	mu      sync.RWMutex
	watches []func(*Config)
}

// NewLoader creates a Loader seeded with Default.
func NewLoader() *Loader {
	return &Loader{
		v:      viper.New(),
		config: Default(),
	}
}

// Load reads paths in order, each merging over the last, env vars
// taking precedence over all of them, and unmarshals into a Config.
func (l *Loader) Load(paths ...string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix("BEAR")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.setDefaults()

	for _, path := range paths {
		l.v.SetConfigFile(path)
		if err := l.v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("buildconfig: read %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("buildconfig: unmarshal: %w", err)
	}

	l.config = cfg
	return cfg, nil
}

func (l *Loader) setDefaults() {
	def := Default()

	l.v.SetDefault("collector.listen_addr", def.Collector.ListenAddr)
	l.v.SetDefault("collector.buffer_size", def.Collector.BufferSize)
	l.v.SetDefault("collector.report_path", def.Collector.ReportPath)
	l.v.SetDefault("semantic.strict", def.Semantic.Strict)
	l.v.SetDefault("archive.enabled", def.Archive.Enabled)
	l.v.SetDefault("log.level", def.Log.Level)
	l.v.SetDefault("log.output", def.Log.Output)
	l.v.SetDefault("log.file_path", def.Log.FilePath)
	l.v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	l.v.SetDefault("log.max_backups", def.Log.MaxBackups)
}

// Get returns the most recently loaded Config.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// Watch registers callback to run every time the watched config file
// changes, after the new config has been parsed and validated.
func (l *Loader) Watch(callback func(*Config)) {
	l.mu.Lock()
	l.watches = append(l.watches, callback)
	l.mu.Unlock()

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.Lock()
		defer l.mu.Unlock()

		cfg := &Config{}
		if err := l.v.Unmarshal(cfg); err != nil {
			return
		}
		if err := cfg.Validate(); err != nil {
			return
		}

		l.config = cfg
		for _, watch := range l.watches {
			watch(cfg)
		}
	})

	l.v.WatchConfig()
}

// LoadAndValidate loads paths and validates the result in one step.
func LoadAndValidate(paths ...string) (*Config, error) {
	loader := NewLoader()
	cfg, err := loader.Load(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("buildconfig: validation failed: %w", err)
	}
	return cfg, nil
}
