package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/business/execution/domain"
	profitdomain "github.com/vortexdefi/dlmm-arb/business/profitability/domain"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
)

const meterName = "github.com/vortexdefi/dlmm-arb/business/execution"

// PlannerConfig holds execution planner configuration.
type PlannerConfig struct {
	MaxConcurrentPlans int
	DefaultStepTimeout time.Duration
	FreshnessHorizon   time.Duration
}

// Planner builds execution plans from scored opportunities and drives them
// through the plan lifecycle. Multiple plans may execute concurrently up to
// MaxConcurrentPlans; steps within a plan run serialized in dependency order.
type Planner struct {
	executor StepExecutor
	config   PlannerConfig
	logger   *slog.Logger

	mu    sync.RWMutex
	plans map[string]*domain.Plan

	sem chan struct{}

	plansExecuted metric.Int64Counter
	rollbacks     metric.Int64Counter
}

// NewPlanner creates a planner backed by the given step executor.
func NewPlanner(executor StepExecutor, cfg PlannerConfig, logger *slog.Logger) (*Planner, error) {
	if cfg.MaxConcurrentPlans <= 0 {
		cfg.MaxConcurrentPlans = 1
	}
	p := &Planner{
		executor: executor,
		config:   cfg,
		logger:   logger,
		plans:    make(map[string]*domain.Plan),
		sem:      make(chan struct{}, cfg.MaxConcurrentPlans),
	}

	meter := otel.Meter(meterName)
	var err error
	if p.plansExecuted, err = meter.Int64Counter("plans_executed_total",
		metric.WithDescription("Execution plans driven to a terminal state")); err != nil {
		return nil, err
	}
	if p.rollbacks, err = meter.Int64Counter("plan_rollbacks_total",
		metric.WithDescription("Contingency rollbacks triggered by step failures")); err != nil {
		return nil, err
	}

	return p, nil
}

// CreatePlan builds a plan for the opportunity: a strategy consistent with
// its MEV descriptor, a contingency rollback for every step, and timing
// bounded by the edge's decay window.
func (p *Planner) CreatePlan(opp detdomain.Opportunity, analysis profitdomain.DetailedAnalysis, prefs domain.Preferences) (*domain.Plan, error) {
	if err := opp.Validate(); err != nil {
		return nil, apperror.New(apperror.CodeStaleOpportunity,
			apperror.WithContext(opp.ID), apperror.WithCause(err))
	}

	plan := domain.NewPlan(
		uuid.NewString(), opp, analysis,
		chooseStrategy(opp, prefs),
		buildMEVPlan(opp, prefs),
		buildContingency(opp.Steps),
		domain.ExecutionTiming{
			OptimalWindow: analysis.Decay.OptimalWindow,
			StepTimeout:   p.config.DefaultStepTimeout,
			MaxDuration:   analysis.Decay.HalfLife,
		},
	)

	p.mu.Lock()
	p.plans[plan.ID] = plan
	p.mu.Unlock()

	p.logger.Info("execution plan created",
		"plan", plan.ID, "opportunity", opp.ID,
		"strategy", plan.Strategy, "steps", len(opp.Steps))
	return plan, nil
}

// GetPlan returns a plan by id.
func (p *Planner) GetPlan(planID string) (*domain.Plan, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return nil, apperror.NotFound(apperror.CodePlanNotFound, planID)
	}
	return plan, nil
}

// chooseStrategy picks the submission strategy: bundling when the descriptor
// demands it, private submission for contested routes or when the caller
// mandates protection, timed jitter otherwise.
func chooseStrategy(opp detdomain.Opportunity, prefs domain.Preferences) domain.ExecutionStrategy {
	switch {
	case opp.MEV.RequireBundling:
		return domain.StrategyBundled
	case opp.MEV.RequirePrivate || prefs.RequireMEVProtection:
		return domain.StrategyPrivate
	default:
		return domain.StrategyJittered
	}
}

func buildMEVPlan(opp detdomain.Opportunity, prefs domain.Preferences) domain.MEVProtectionPlan {
	strategy := chooseStrategy(opp, prefs)
	return domain.MEVProtectionPlan{
		Strategy:          strategy,
		Jitter:            opp.MEV.JitterBound,
		UsePrivateMempool: strategy == domain.StrategyPrivate,
		UseBundle:         strategy == domain.StrategyBundled,
		MaxFrontRunImpact: opp.MEV.MaxFrontRunImpact,
	}
}

// buildContingency maps each step to the reversal of everything completed
// before it, in reverse order: a failure at step i unwinds steps i-1 .. 0.
func buildContingency(steps []detdomain.ExecutionStep) domain.ContingencyPlan {
	cp := domain.ContingencyPlan{Rollbacks: make(map[int][]detdomain.ExecutionStep, len(steps))}
	for i := range steps {
		rollback := make([]detdomain.ExecutionStep, 0, i)
		for j := i - 1; j >= 0; j-- {
			rollback = append(rollback, steps[j].Reversed())
		}
		cp.Rollbacks[i] = rollback
	}
	return cp
}

// ExecutePlan drives the plan to a terminal state. Validation re-checks the
// opportunity's freshness before any capital moves; a stale basis fails the
// plan without executing. Step failures trigger the contingency rollback of
// completed steps before the error is surfaced.
func (p *Planner) ExecutePlan(ctx context.Context, planID string) (domain.Results, error) {
	plan, err := p.GetPlan(planID)
	if err != nil {
		return domain.Results{}, err
	}

	results := domain.Results{PlanID: planID, FailedStep: -1}
	start := time.Now()

	if err := plan.Transition(domain.StateValidating); err != nil {
		return results, err
	}

	if !plan.Opportunity.IsFresh(time.Now(), p.config.FreshnessHorizon) {
		_ = plan.Transition(domain.StateFailed)
		p.plansExecuted.Add(ctx, 1)
		return results, apperror.New(apperror.CodeStaleOpportunity,
			apperror.WithContextf("plan %s: opportunity detected at %s",
				planID, plan.Opportunity.DetectedAt.Format(time.RFC3339)))
	}

	// Concurrency gate: distinct plans run in parallel up to the cap.
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		_ = plan.Transition(domain.StateFailed)
		return results, ctx.Err()
	}
	defer func() { <-p.sem }()

	if err := plan.Transition(domain.StateExecuting); err != nil {
		return results, err
	}

	completed, failedStep, execErr := p.runSteps(ctx, plan, &results)
	results.ExecutionTime = time.Since(start)

	if execErr == nil {
		_ = plan.Transition(domain.StateCompleted)
		results.Success = true
		results.MEVHeld = true
		results.RealizedProfit = realizedProfit(plan.Opportunity, results.Steps)
		p.plansExecuted.Add(ctx, 1)
		p.logger.Info("plan completed",
			"plan", planID, "profit", results.RealizedProfit, "took", results.ExecutionTime)
		return results, nil
	}

	results.FailedStep = failedStep
	p.rollbacks.Add(ctx, 1)

	if rbErr := p.rollback(ctx, plan, failedStep, completed, &results); rbErr != nil {
		_ = plan.Transition(domain.StateFailed)
		p.plansExecuted.Add(ctx, 1)
		// Capital may be stranded mid-route; surface everything the
		// operator needs to intervene.
		return results, apperror.New(apperror.CodeRollbackFailed,
			apperror.WithContextf("plan %s: step %d failed, rollback also failed: %v (original: %v)",
				planID, failedStep, rbErr, execErr))
	}

	_ = plan.Transition(domain.StateRolledBack)
	results.RolledBack = true
	p.plansExecuted.Add(ctx, 1)
	return results, apperror.Wrap(execErr, apperror.CodeStepExecutionFailed,
		planID)
}

// runSteps executes the plan's steps respecting the dependency DAG: a step
// runs only after all of its dependencies completed. Returns the set of
// completed step indices and the first failure.
func (p *Planner) runSteps(ctx context.Context, plan *domain.Plan, results *domain.Results) (map[int]bool, int, error) {
	completed := make(map[int]bool, len(plan.Opportunity.Steps))

	for _, step := range plan.Opportunity.Steps {
		for _, dep := range step.DependsOn {
			if !completed[dep] {
				return completed, step.Index, apperror.New(apperror.CodeStepExecutionFailed,
					apperror.WithContextf("step %d: dependency %d not completed", step.Index, dep))
			}
		}

		stepCtx, cancel := context.WithTimeout(ctx, plan.Timing.StepTimeout)
		result, err := p.executor.ExecuteStep(stepCtx, step)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = apperror.New(apperror.CodeStepTimeout,
					apperror.WithContextf("plan %s step %d", plan.ID, step.Index),
					apperror.WithCause(err))
			}
			p.logger.Warn("step failed",
				"plan", plan.ID, "step", step.Index, "error", err)
			return completed, step.Index, err
		}

		result.StepIndex = step.Index
		results.Steps = append(results.Steps, result)
		completed[step.Index] = true
	}

	return completed, -1, nil
}

// rollback runs the contingency sequence for the failed step, skipping
// reversals of steps that never completed.
func (p *Planner) rollback(ctx context.Context, plan *domain.Plan, failedStep int, completed map[int]bool, results *domain.Results) error {
	for _, step := range plan.Contingency.RollbackFor(failedStep) {
		if !completed[step.Index] {
			continue
		}

		stepCtx, cancel := context.WithTimeout(ctx, plan.Timing.StepTimeout)
		result, err := p.executor.ExecuteStep(stepCtx, step)
		cancel()

		if err != nil {
			return err
		}
		result.StepIndex = step.Index
		result.Rollback = true
		results.Steps = append(results.Steps, result)
	}
	return nil
}

// realizedProfit is the actual post-execution delta: the last step's real
// output minus the route's input.
func realizedProfit(opp detdomain.Opportunity, steps []domain.StepResult) decimal.Decimal {
	if len(steps) == 0 {
		return decimal.Zero
	}
	final := steps[len(steps)-1].ActualOutput
	return final.Sub(opp.InputAmount)
}
