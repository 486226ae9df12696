package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/cifsgate/internal/logger"
	"github.com/marmos91/cifsgate/internal/telemetry"
	"github.com/marmos91/cifsgate/pkg/api"
	"github.com/marmos91/cifsgate/pkg/config"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cifsgate server",
	Long: `Start the cifsgate server in the foreground.

The server runs until SIGINT or SIGTERM, then stops accepting clients and
waits up to server.shutdown_timeout for sessions to drain.

Examples:
  # Start with the default config
  cifsgate start

  # Start with a custom config file
  cifsgate start --config /etc/cifsgate/config.yaml

  # Override settings from the environment
  CIFSGATE_LOGGING_LEVEL=DEBUG cifsgate start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the process ID to this file while running")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "cifsgate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "cifsgate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Starting cifsgate", "version", Version, "commit", Commit)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	var (
		reg        *prometheus.Registry
		apiMetrics *api.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		apiMetrics = api.NewMetrics(reg)
	} else {
		logger.Info("Metrics collection disabled")
	}

	var registerer prometheus.Registerer
	if reg != nil {
		registerer = reg
	}
	srv, err := config.BuildServer(cfg, registerer, nil)
	if err != nil {
		return err
	}
	logger.Info("Server configured",
		"name", srv.Name(),
		"handlers", srv.Handlers().Len(),
		"shares", srv.Shares().Len(),
		"rules", len(srv.AccessControl().Rules()),
		"default_verdict", srv.AccessControl().DefaultVerdict().String())

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	if cfg.API.Enabled {
		apiServer := api.NewServer(api.Config{
			BindAddress:  cfg.API.BindAddress,
			Port:         cfg.API.Port,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
			IdleTimeout:  cfg.API.IdleTimeout,
		}, srv, apiMetrics)
		g.Go(func() error { return apiServer.Start(gctx) })
	}
	if reg != nil {
		metricsServer := api.NewMetricsServer(cfg.Metrics.Port, reg)
		g.Go(func() error { return metricsServer.Start(gctx) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown", "signal", sig.String())
		cancel()
		err = <-done
	case err = <-done:
		cancel()
	}

	if stopErr := srv.Shutdown(context.Background()); stopErr != nil {
		logger.Warn("Server shutdown incomplete", logger.KeyError, stopErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server stopped with error", logger.KeyError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
