package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/wangwenjie1314/sentinel/internal/collab"
	"github.com/wangwenjie1314/sentinel/internal/config"
	"github.com/wangwenjie1314/sentinel/internal/diag"
	"github.com/wangwenjie1314/sentinel/internal/events"
	"github.com/wangwenjie1314/sentinel/internal/faults"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/logging"
	"github.com/wangwenjie1314/sentinel/internal/perf"
	"github.com/wangwenjie1314/sentinel/internal/recovery"
	"github.com/wangwenjie1314/sentinel/internal/stability"
)

// supervisor bundles the wired monitoring stack.
type supervisor struct {
	bus        *events.Bus
	source     *perf.ProcessSource
	sampler    *perf.Sampler
	aggregator *health.Aggregator
	recorder   *faults.Recorder
	watcher    *faults.SignalWatcher
	engine     *recovery.Engine
	orch       *stability.Orchestrator
	tool       *diag.Tool

	connectivity *collab.StaticConnectivity
	components   *collab.StaticComponents
	controller   *collab.NopController
	cache        *collab.MemoryCache
	prefs        *collab.MapPreferences
}

// buildSupervisor wires every component from the configuration. The
// collaborator implementations are the in-process defaults; a host
// application replaces them at its own wiring point.
func buildSupervisor(cfg *config.Config, logger *logging.Logger) (*supervisor, error) {
	if err := os.MkdirAll(cfg.Storage.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	source, err := perf.NewProcessSource()
	if err != nil {
		return nil, err
	}

	bus := events.New(100)

	connectivity := collab.NewStaticConnectivity(collab.ConnectivityConnected)
	components := collab.NewStaticComponents()
	controller := collab.NewNopController()
	cache := collab.NewMemoryCache()
	prefs := collab.NewMapPreferences(nil)

	sampler := perf.NewSampler(source, cfg.Monitor.PerfInterval, cfg.History.PerfSamples,
		perf.Thresholds{
			MemoryWarnMB:     cfg.Thresholds.MemoryWarnMB,
			MemoryCriticalMB: cfg.Thresholds.MemoryCriticalMB,
			CPUWarnPercent:   cfg.Thresholds.CPUWarnPercent,
			CPUCritPercent:   cfg.Thresholds.CPUCritPercent,
		}, bus, logger.WithComponent("perf").Logger)
	sampler.RegisterPurger(cache)

	probes := []health.Probe{
		health.NewMemoryProbe(source, health.MemoryThresholds{
			WarnMB:     cfg.Thresholds.MemoryWarnMB,
			CriticalMB: cfg.Thresholds.MemoryCriticalMB,
			VirtualMB:  cfg.Thresholds.VirtualWarnMB,
		}),
		health.NewCPUProbe(source, health.CPUThresholds{
			WarnPercent: cfg.Thresholds.CPUWarnPercent,
			CritPercent: cfg.Thresholds.CPUCritPercent,
		}),
		health.NewComponentProbe(components),
		health.NewNetworkProbe(connectivity),
		health.NewFilesystemProbe(cfg.Storage.Dir, health.FilesystemThresholds{
			WarnFreeGB: cfg.Thresholds.DiskWarnFreeGB,
			CritFreeGB: cfg.Thresholds.DiskCritFreeGB,
		}),
	}
	aggregator := health.NewAggregator(probes, cfg.History.Snapshots, bus,
		logger.WithComponent("health").Logger)

	recorder := faults.NewRecorder(cfg.Storage.Dir, cfg.History.FaultRecords,
		appVersion, logger.WithComponent("faults").Logger)
	watcher := faults.NewSignalWatcher(recorder, logger.WithComponent("faults").Logger,
		syscall.SIGABRT, syscall.SIGBUS, syscall.SIGFPE)

	engine := recovery.NewEngine(aggregator, connectivity, source,
		cfg.Thresholds.MemoryCriticalMB, logger.WithComponent("recovery").Logger)
	engine.Register(&recovery.ComponentResetStrategy{Controller: controller})
	engine.Register(&recovery.CacheCleanupStrategy{Cache: cache})
	engine.Register(&recovery.PreferencesResetStrategy{Store: prefs})
	engine.Register(&recovery.NetworkResetStrategy{Network: controller})

	orch := stability.New(stability.Options{
		Aggregator:         aggregator,
		Sampler:            sampler,
		Recorder:           recorder,
		Engine:             engine,
		Controller:         controller,
		Cache:              cache,
		Bus:                bus,
		Logger:             logger.WithComponent("orchestrator").Logger,
		HealthInterval:     cfg.Monitor.HealthInterval,
		FlushInterval:      cfg.Monitor.FlushInterval,
		CrashRecencyWindow: cfg.Recovery.CrashRecencyWindow,
		FailureLimit:       cfg.Recovery.FailureLimit,
		StateDir:           cfg.Storage.Dir,
	})

	tool := diag.NewTool(aggregator, sampler, recorder, components, orch,
		cfg.Thresholds, logger.WithComponent("diag").Logger)

	return &supervisor{
		bus:          bus,
		source:       source,
		sampler:      sampler,
		aggregator:   aggregator,
		recorder:     recorder,
		watcher:      watcher,
		engine:       engine,
		orch:         orch,
		tool:         tool,
		connectivity: connectivity,
		components:   components,
		controller:   controller,
		cache:        cache,
		prefs:        prefs,
	}, nil
}

// close flushes and releases everything a one-shot command touched.
func (s *supervisor) close() {
	s.recorder.Flush()
	s.bus.Close()
}
