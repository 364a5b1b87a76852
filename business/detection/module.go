// Package detection implements the opportunity detection bounded context.
package detection

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/business/detection/app"
	detectionDI "github.com/vortexdefi/dlmm-arb/business/detection/di"
	"github.com/vortexdefi/dlmm-arb/business/detection/domain"
	poolsDI "github.com/vortexdefi/dlmm-arb/business/pools/di"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
)

// Module implements the detection bounded context.
type Module struct{}

// RegisterServices registers all detection services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register RiskEstimator - private dependency, substitutable with a
	// historical-data-backed implementation
	di.RegisterToken(c, detectionDI.RiskEstimator, func(sr di.ServiceRegistry) domain.RiskEstimator {
		return domain.NewHeuristicEstimator()
	})

	// Register DetectionEngine (public - exposed to other modules)
	di.RegisterToken(c, detectionDI.DetectionEngine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := di.Resolve[*config.Config](sr, "config")
		log := di.Resolve[*slog.Logger](sr, "logger")

		engineCfg := app.EngineConfig{
			ScanInterval:     cfg.Detection.ScanInterval,
			MaxRouteDepth:    cfg.Detection.MaxRouteDepth,
			FreshnessHorizon: cfg.Detection.FreshnessHorizon,
			ProbeAmount:      decimal.NewFromFloat(cfg.Detection.ProbeAmount),
			GasUnitPrice:     decimal.NewFromFloat(cfg.Profitability.GasUnitPrice),
			BaseMEVRate:      decimal.NewFromFloat(cfg.Profitability.BaseMEVRate),
		}

		engine, err := app.NewEngine(
			poolsDI.GetPoolRegistry(sr),
			detectionDI.GetRiskEstimator(sr),
			engineCfg,
			log,
		)
		if err != nil {
			panic("failed to create detection engine: " + err.Error())
		}
		return engine
	})

	return nil
}

// Startup resolves the engine so wiring errors surface at boot. The scan
// loop itself is started by the arbitrage manager.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	_ = detectionDI.GetDetectionEngine(mono.Services())
	mono.Logger().Info("detection module started")
	return nil
}
