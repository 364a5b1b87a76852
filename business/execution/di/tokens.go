// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/vortexdefi/dlmm-arb/business/execution/app"
	"github.com/vortexdefi/dlmm-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Planner = di.NewToken[*app.Planner]("execution.Planner")
)

// Private dependency tokens - internal to execution module
var (
	StepExecutor = di.NewToken[app.StepExecutor]("execution:stepExecutor")
)

// Helper functions for type-safe access
func GetPlanner(c di.ServiceRegistry) *app.Planner {
	return di.GetToken(c, Planner)
}

func GetStepExecutor(c di.ServiceRegistry) app.StepExecutor {
	return di.GetToken(c, StepExecutor)
}
