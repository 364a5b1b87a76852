// Package profitability implements the profitability analysis bounded context.
package profitability

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/business/profitability/app"
	profitDI "github.com/vortexdefi/dlmm-arb/business/profitability/di"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
)

// Module implements the profitability bounded context.
type Module struct{}

// RegisterServices registers the calculator with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, profitDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		cfg := di.Resolve[*config.Config](sr, "config")

		return app.NewCalculator(app.CalculatorConfig{
			GasUnitPrice:   decimal.NewFromFloat(cfg.Profitability.GasUnitPrice),
			SlippageBuffer: decimal.NewFromFloat(cfg.Profitability.SlippageBuffer),
			BaseMEVRate:    decimal.NewFromFloat(cfg.Profitability.BaseMEVRate),
			RiskFreeRate:   decimal.NewFromFloat(cfg.Profitability.RiskFreeRate),
			VaRConfidence:  cfg.Profitability.VaRConfidence,
		})
	})
	return nil
}

// Startup is a no-op: the calculator is stateless.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info("profitability module started")
	return nil
}
