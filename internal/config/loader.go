package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "SENTINEL",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "SENTINEL",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (SENTINEL_*)
// 3. Project config (.sentinel.yaml in current directory)
// 4. User config (~/.config/sentinel/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".sentinel")
		l.v.SetConfigType("yaml")

		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "sentinel"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with the
// new configuration. Intervals are fixed at start; only thresholds and
// log settings take effect on reload.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			return
		}
		if err := ValidateConfig(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Monitor defaults
	l.v.SetDefault("monitor.health_interval", "30s")
	l.v.SetDefault("monitor.perf_interval", "5s")
	l.v.SetDefault("monitor.flush_interval", "1m")

	// Threshold defaults (one consistent set for probes and diagnosis)
	l.v.SetDefault("thresholds.memory_warn_mb", 150.0)
	l.v.SetDefault("thresholds.memory_critical_mb", 200.0)
	l.v.SetDefault("thresholds.virtual_warn_mb", 2048.0)
	l.v.SetDefault("thresholds.cpu_warn_percent", 80.0)
	l.v.SetDefault("thresholds.cpu_crit_percent", 90.0)
	l.v.SetDefault("thresholds.disk_warn_free_gb", 5.0)
	l.v.SetDefault("thresholds.disk_crit_free_gb", 1.0)

	// History defaults
	l.v.SetDefault("history.snapshots", 100)
	l.v.SetDefault("history.perf_samples", 100)
	l.v.SetDefault("history.fault_records", 50)

	// Recovery defaults
	l.v.SetDefault("recovery.crash_recency_window", "5m")
	l.v.SetDefault("recovery.failure_limit", 3)

	// Storage defaults (application-private directory)
	l.v.SetDefault("storage.dir", defaultStorageDir())

	// API defaults
	l.v.SetDefault("api.enabled", false)
	l.v.SetDefault("api.addr", "127.0.0.1:7675")
}

func defaultStorageDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "sentinel")
	}
	return ".sentinel"
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}
