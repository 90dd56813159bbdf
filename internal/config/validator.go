package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks the configuration for inconsistent or unusable values.
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Thresholds.MemoryWarnMB <= 0 {
		errs = append(errs, ValidationError{"thresholds.memory_warn_mb", "must be positive"})
	}
	if cfg.Thresholds.MemoryCriticalMB <= cfg.Thresholds.MemoryWarnMB {
		errs = append(errs, ValidationError{"thresholds.memory_critical_mb", "must exceed memory_warn_mb"})
	}
	if cfg.Thresholds.CPUWarnPercent <= 0 || cfg.Thresholds.CPUWarnPercent > 100 {
		errs = append(errs, ValidationError{"thresholds.cpu_warn_percent", "must be in (0,100]"})
	}
	if cfg.Thresholds.CPUCritPercent <= cfg.Thresholds.CPUWarnPercent || cfg.Thresholds.CPUCritPercent > 100 {
		errs = append(errs, ValidationError{"thresholds.cpu_crit_percent", "must exceed cpu_warn_percent and be at most 100"})
	}
	if cfg.Thresholds.DiskCritFreeGB >= cfg.Thresholds.DiskWarnFreeGB {
		errs = append(errs, ValidationError{"thresholds.disk_crit_free_gb", "must be below disk_warn_free_gb"})
	}

	if cfg.Monitor.HealthInterval <= 0 {
		errs = append(errs, ValidationError{"monitor.health_interval", "must be positive"})
	}
	if cfg.Monitor.PerfInterval <= 0 {
		errs = append(errs, ValidationError{"monitor.perf_interval", "must be positive"})
	}

	if cfg.History.Snapshots <= 0 {
		errs = append(errs, ValidationError{"history.snapshots", "must be positive"})
	}
	if cfg.History.PerfSamples <= 0 {
		errs = append(errs, ValidationError{"history.perf_samples", "must be positive"})
	}
	if cfg.History.FaultRecords <= 0 {
		errs = append(errs, ValidationError{"history.fault_records", "must be positive"})
	}

	if cfg.Recovery.CrashRecencyWindow <= 0 {
		errs = append(errs, ValidationError{"recovery.crash_recency_window", "must be positive"})
	}
	if cfg.Recovery.FailureLimit <= 0 {
		errs = append(errs, ValidationError{"recovery.failure_limit", "must be positive"})
	}

	if cfg.Storage.Dir == "" {
		errs = append(errs, ValidationError{"storage.dir", "must not be empty"})
	}

	if cfg.API.Enabled && cfg.API.Addr == "" {
		errs = append(errs, ValidationError{"api.addr", "required when api.enabled is true"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
