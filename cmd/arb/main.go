// Package main is the entry point for the DLMM cross-pool arbitrage system.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vortexdefi/dlmm-arb/business/arbitrage"
	arbitrageApp "github.com/vortexdefi/dlmm-arb/business/arbitrage/app"
	arbitrageDI "github.com/vortexdefi/dlmm-arb/business/arbitrage/di"
	"github.com/vortexdefi/dlmm-arb/business/arbitrage/infra"
	"github.com/vortexdefi/dlmm-arb/business/detection"
	"github.com/vortexdefi/dlmm-arb/business/execution"
	"github.com/vortexdefi/dlmm-arb/business/pools"
	poolsDI "github.com/vortexdefi/dlmm-arb/business/pools/di"
	"github.com/vortexdefi/dlmm-arb/business/profitability"
	"github.com/vortexdefi/dlmm-arb/internal/apm"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/health"
	"github.com/vortexdefi/dlmm-arb/internal/metrics"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dlmm-arb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Arbitrage.TUIMode = tuiMode

	log := newLogger(cfg, tuiMode)
	if !tuiMode {
		log.Info("starting DLMM arbitrage system",
			"version", version,
			"environment", cfg.App.Environment)
	}

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info("tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		if _, err := metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
		); err != nil {
			log.Warn("metrics provider init failed", "error", err)
		}

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(port, log)
		log.Info("prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn("failed to start health server", "error", err)
	} else {
		log.Info("health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Modules in dependency order
	poolsModule := &pools.Module{}
	modules := []monolith.Module{
		poolsModule,             // Must be first - provides pool snapshots
		&detection.Module{},     // Depends on pools
		&profitability.Module{}, // Pure, no upstream dependencies
		&execution.Module{},     // Depends on detection types
		&arbitrage.Module{},     // Orchestrates everything, started last
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	registerHealthChecks(healthServer, mono.Services())

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	defer poolsModule.Shutdown(mono)

	manager := arbitrageDI.GetManager(mono.Services())

	if tuiMode {
		return runTUI(ctx, manager, arbitrageDI.GetReporter(mono.Services()))
	}
	return runCLI(ctx, manager, log)
}

func newLogger(cfg *config.Config, tuiMode bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	// In TUI mode logs would corrupt the screen; discard them.
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})).
		With("app", cfg.App.Name)
}

func registerHealthChecks(server *health.Server, services di.ServiceRegistry) {
	server.RegisterCheck("pools", func(ctx context.Context) (bool, string) {
		count := poolsDI.GetPoolRegistry(services).Count()
		return count > 0, fmt.Sprintf("%d pools tracked", count)
	})
	server.RegisterCheck("arbitrage", func(ctx context.Context) (bool, string) {
		h := arbitrageDI.GetManager(services).SystemHealth()
		return h.Running, fmt.Sprintf("%d active opportunities", h.ActiveOpportunities)
	})
}

func runCLI(ctx context.Context, manager *arbitrageApp.Manager, log *slog.Logger) error {
	log.Info("all modules started, monitoring for opportunities")

	<-ctx.Done()

	log.Info("shutting down")
	if err := manager.Stop(); err != nil {
		log.Error("error stopping arbitrage system", "error", err)
	}
	return nil
}

func runTUI(ctx context.Context, manager *arbitrageApp.Manager, reporter arbitrageApp.Reporter) error {
	tui, ok := reporter.(*infra.TUIReporter)
	if !ok {
		// Config said TUI but the reporter is not one; fall back to
		// waiting on the context like CLI mode.
		<-ctx.Done()
		return manager.Stop()
	}

	select {
	case err := <-tui.Done():
		// User quit the TUI; bring the system down with it.
		stopErr := manager.Stop()
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return stopErr
	case <-ctx.Done():
		return manager.Stop()
	}
}
