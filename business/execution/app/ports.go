// Package app contains the execution planner service.
package app

import (
	"context"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/business/execution/domain"
)

// StepExecutor submits one execution step to the chain (or a simulation of
// it) and reports the realized outcome.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, step detdomain.ExecutionStep) (domain.StepResult, error)
}
