package cmd

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wangwenjie1314/sentinel/internal/api"
	"github.com/wangwenjie1314/sentinel/internal/config"
	"github.com/wangwenjie1314/sentinel/internal/perf"
)

var (
	apiEnabled bool
	apiAddr    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stability supervisor until interrupted",
	RunE:  runSupervisor,
}

func init() {
	runCmd.Flags().BoolVar(&apiEnabled, "api", false,
		"serve the local diagnostics API")
	runCmd.Flags().StringVar(&apiAddr, "api-addr", "",
		"diagnostics API listen address (default from config)")
	rootCmd.AddCommand(runCmd)
}

func runSupervisor(cmd *cobra.Command, _ []string) error {
	cfg, loader, err := loadConfig()
	if err != nil {
		return err
	}
	if apiEnabled {
		cfg.API.Enabled = true
	}
	if apiAddr != "" {
		cfg.API.Addr = apiAddr
	}

	logger := newLogger(cfg)

	sup, err := buildSupervisor(cfg, logger)
	if err != nil {
		return err
	}
	defer sup.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Thresholds and policy knobs follow the config file; intervals are
	// fixed for the lifetime of the process.
	loader.Watch(func(next *config.Config) {
		sup.sampler.SetThresholds(perf.Thresholds{
			MemoryWarnMB:     next.Thresholds.MemoryWarnMB,
			MemoryCriticalMB: next.Thresholds.MemoryCriticalMB,
			CPUWarnPercent:   next.Thresholds.CPUWarnPercent,
			CPUCritPercent:   next.Thresholds.CPUCritPercent,
		})
		sup.engine.SetMemoryCriticalMB(next.Thresholds.MemoryCriticalMB)
		sup.orch.SetFailureLimit(next.Recovery.FailureLimit)
		sup.tool.SetThresholds(next.Thresholds)
		logger.Info("configuration reloaded",
			"memory_critical_mb", next.Thresholds.MemoryCriticalMB,
			"failure_limit", next.Recovery.FailureLimit,
		)
	})

	sup.watcher.Start(ctx)
	defer sup.watcher.Stop()
	sup.sampler.Start(ctx)
	defer sup.sampler.Stop()
	sup.orch.Start(ctx)
	defer sup.orch.Stop()

	if cfg.API.Enabled {
		server := api.NewServer(sup.orch, sup.tool, sup.aggregator,
			api.WithLogger(logger.WithComponent("api").Logger))
		go func() {
			if err := server.ListenAndServe(ctx, cfg.API.Addr); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				logger.Error("diagnostics API stopped", "error", err)
			}
		}()
	}

	logger.Info("stability supervisor running",
		"health_interval", cfg.Monitor.HealthInterval.String(),
		"perf_interval", cfg.Monitor.PerfInterval.String(),
		"storage_dir", cfg.Storage.Dir,
	)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
