package config

import "time"

// Config holds all supervisor configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	History    HistoryConfig    `mapstructure:"history"`
	Recovery   RecoveryConfig   `mapstructure:"recovery"`
	Storage    StorageConfig    `mapstructure:"storage"`
	API        APIConfig        `mapstructure:"api"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitorConfig configures the periodic check intervals.
type MonitorConfig struct {
	HealthInterval time.Duration `mapstructure:"health_interval"`
	PerfInterval   time.Duration `mapstructure:"perf_interval"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
}

// ThresholdsConfig is the single consistent threshold set used by every
// probe and by the diagnostic tool.
type ThresholdsConfig struct {
	MemoryWarnMB     float64 `mapstructure:"memory_warn_mb"`
	MemoryCriticalMB float64 `mapstructure:"memory_critical_mb"`
	VirtualWarnMB    float64 `mapstructure:"virtual_warn_mb"`
	CPUWarnPercent   float64 `mapstructure:"cpu_warn_percent"`
	CPUCritPercent   float64 `mapstructure:"cpu_crit_percent"`
	DiskWarnFreeGB   float64 `mapstructure:"disk_warn_free_gb"`
	DiskCritFreeGB   float64 `mapstructure:"disk_crit_free_gb"`
}

// HistoryConfig bounds the in-memory and persisted histories.
type HistoryConfig struct {
	Snapshots    int `mapstructure:"snapshots"`
	PerfSamples  int `mapstructure:"perf_samples"`
	FaultRecords int `mapstructure:"fault_records"`
}

// RecoveryConfig configures crash recovery behavior.
type RecoveryConfig struct {
	CrashRecencyWindow time.Duration `mapstructure:"crash_recency_window"`
	FailureLimit       int           `mapstructure:"failure_limit"`
}

// StorageConfig configures the application-private data directory.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// APIConfig configures the local diagnostics endpoint.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}
