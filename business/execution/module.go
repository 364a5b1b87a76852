// Package execution implements the execution planning bounded context.
package execution

import (
	"context"
	"log/slog"

	"github.com/vortexdefi/dlmm-arb/business/execution/app"
	executionDI "github.com/vortexdefi/dlmm-arb/business/execution/di"
	"github.com/vortexdefi/dlmm-arb/business/execution/infra/paper"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
)

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register StepExecutor (paper trading) - private dependency. A live
	// deployment swaps this for a transaction-submitting executor.
	di.RegisterToken(c, executionDI.StepExecutor, func(sr di.ServiceRegistry) app.StepExecutor {
		log := di.Resolve[*slog.Logger](sr, "logger")
		return paper.NewExecutor(0, log)
	})

	// Register Planner (public - exposed to other modules)
	di.RegisterToken(c, executionDI.Planner, func(sr di.ServiceRegistry) *app.Planner {
		cfg := di.Resolve[*config.Config](sr, "config")
		log := di.Resolve[*slog.Logger](sr, "logger")

		planner, err := app.NewPlanner(
			executionDI.GetStepExecutor(sr),
			app.PlannerConfig{
				MaxConcurrentPlans: cfg.Execution.MaxConcurrentPlans,
				DefaultStepTimeout: cfg.Execution.DefaultStepTimeout,
				FreshnessHorizon:   cfg.Detection.FreshnessHorizon,
			},
			log,
		)
		if err != nil {
			panic("failed to create execution planner: " + err.Error())
		}
		return planner
	})

	return nil
}

// Startup resolves the planner so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	_ = executionDI.GetPlanner(mono.Services())
	mono.Logger().Info("execution module started")
	return nil
}
