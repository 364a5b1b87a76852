// Package arbitrage implements the orchestrating bounded context: the
// manager composing detection, profitability, and execution.
package arbitrage

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/business/arbitrage/app"
	arbDI "github.com/vortexdefi/dlmm-arb/business/arbitrage/di"
	"github.com/vortexdefi/dlmm-arb/business/arbitrage/infra"
	detectionDI "github.com/vortexdefi/dlmm-arb/business/detection/di"
	executionDI "github.com/vortexdefi/dlmm-arb/business/execution/di"
	profitDI "github.com/vortexdefi/dlmm-arb/business/profitability/di"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers the manager and reporter with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Reporter - private dependency, console or TUI by config
	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := di.Resolve[*config.Config](sr, "config")
		if cfg.Arbitrage.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Manager (public - the system's orchestration surface)
	di.RegisterToken(c, arbDI.Manager, func(sr di.ServiceRegistry) *app.Manager {
		cfg := di.Resolve[*config.Config](sr, "config")
		log := di.Resolve[*slog.Logger](sr, "logger")

		return app.NewManager(
			detectionDI.GetDetectionEngine(sr),
			profitDI.GetCalculator(sr),
			executionDI.GetPlanner(sr),
			arbDI.GetReporter(sr),
			app.ManagerConfig{
				MinProfitThreshold:  decimal.NewFromFloat(cfg.Arbitrage.MinProfitThreshold),
				MaxRiskScore:        cfg.Arbitrage.MaxRiskScore,
				EnableMEVProtection: cfg.Arbitrage.EnableMEVProtection,
				MonitoringEnabled:   cfg.Arbitrage.MonitoringEnabled,
			},
			log,
		)
	})

	return nil
}

// Startup brings the arbitrage system up.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	manager := arbDI.GetManager(mono.Services())
	if err := manager.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info("arbitrage module started")
	return nil
}
