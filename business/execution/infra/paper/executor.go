// Package paper provides a simulated step executor for paper trading. No
// transaction ever reaches the chain; every step settles at its expected
// output.
package paper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/business/execution/app"
	"github.com/vortexdefi/dlmm-arb/business/execution/domain"
)

var _ app.StepExecutor = (*Executor)(nil)

// Executor simulates step execution with a configurable settle latency.
type Executor struct {
	latency time.Duration
	logger  *slog.Logger
}

// NewExecutor creates a paper executor. A zero latency settles immediately.
func NewExecutor(latency time.Duration, logger *slog.Logger) *Executor {
	return &Executor{latency: latency, logger: logger}
}

// ExecuteStep settles the step at its expected output with a synthetic
// transaction reference.
func (e *Executor) ExecuteStep(ctx context.Context, step detdomain.ExecutionStep) (domain.StepResult, error) {
	start := time.Now()

	if e.latency > 0 {
		select {
		case <-time.After(e.latency):
		case <-ctx.Done():
			return domain.StepResult{}, ctx.Err()
		}
	}

	result := domain.StepResult{
		StepIndex:    step.Index,
		TxRef:        "paper-" + uuid.NewString(),
		ActualOutput: step.ExpectedOutput,
		Duration:     time.Since(start),
	}
	e.logger.Debug("paper step settled",
		"step", step.Index, "action", step.Action, "pool", step.PoolAddress,
		"tx", result.TxRef)
	return result, nil
}
