package config

import (
	"fmt"
	"os"
)

// defaultConfigYAML is the starter configuration written by WriteDefault.
const defaultConfigYAML = `# sentinel configuration
log:
  level: info        # debug, info, warn, error
  format: auto       # auto, text, json

monitor:
  health_interval: 30s
  perf_interval: 5s
  flush_interval: 1m

# One consistent threshold set, shared by probes and diagnosis.
thresholds:
  memory_warn_mb: 150
  memory_critical_mb: 200
  virtual_warn_mb: 2048
  cpu_warn_percent: 80
  cpu_crit_percent: 90
  disk_warn_free_gb: 5
  disk_crit_free_gb: 1

history:
  snapshots: 100
  perf_samples: 100
  fault_records: 50

recovery:
  crash_recency_window: 5m
  failure_limit: 3

api:
  enabled: false
  addr: 127.0.0.1:7675
`

// WriteDefault writes the starter configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	return AtomicWrite(path, []byte(defaultConfigYAML))
}
