// Package domain contains the execution plan types and plan state machine.
package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	profitdomain "github.com/vortexdefi/dlmm-arb/business/profitability/domain"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
)

// PlanState is the lifecycle state of an execution plan.
type PlanState string

const (
	StateCreated    PlanState = "created"
	StateValidating PlanState = "validating"
	StateExecuting  PlanState = "executing"
	StateCompleted  PlanState = "completed"
	StateRolledBack PlanState = "rolled_back"
	StateFailed     PlanState = "failed"
)

// validTransitions encodes the plan lifecycle:
// created -> validating -> executing -> {completed | rolled_back | failed}.
// Validation may fail a plan directly when the opportunity went stale.
var validTransitions = map[PlanState][]PlanState{
	StateCreated:    {StateValidating},
	StateValidating: {StateExecuting, StateFailed},
	StateExecuting:  {StateCompleted, StateRolledBack, StateFailed},
}

// CanTransition reports whether moving to the given state is legal.
func (s PlanState) CanTransition(to PlanState) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing transitions.
func (s PlanState) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// ExecutionStrategy names the submission approach for a plan.
type ExecutionStrategy string

const (
	StrategyPrivate  ExecutionStrategy = "private"
	StrategyJittered ExecutionStrategy = "jittered"
	StrategyBundled  ExecutionStrategy = "bundled"
)

// MEVProtectionPlan is the concrete protective setup derived from the
// opportunity's MEV descriptor and the caller's preferences.
type MEVProtectionPlan struct {
	Strategy          ExecutionStrategy
	Jitter            time.Duration
	UsePrivateMempool bool
	UseBundle         bool
	MaxFrontRunImpact float64
}

// ContingencyPlan maps each step index to the rollback sequence to run if
// that step fails: the already-completed upstream steps, reversed, in
// reverse order.
type ContingencyPlan struct {
	Rollbacks map[int][]detdomain.ExecutionStep
}

// RollbackFor returns the rollback sequence for a failure at the given step.
func (c ContingencyPlan) RollbackFor(failedStep int) []detdomain.ExecutionStep {
	return c.Rollbacks[failedStep]
}

// ExecutionTiming bounds when and how long a plan may run.
type ExecutionTiming struct {
	OptimalWindow time.Duration // from the edge's temporal decay
	StepTimeout   time.Duration
	MaxDuration   time.Duration
}

// Preferences are caller-supplied execution knobs.
type Preferences struct {
	RequireMEVProtection bool
	RiskTolerance        float64 // [0,1]; lower is stricter
}

// Plan wraps an opportunity and its analysis with everything needed to
// execute it. State changes go through Transition only; plans are shared
// between the planner and callers holding the same pointer.
type Plan struct {
	ID          string
	Opportunity detdomain.Opportunity
	Analysis    profitdomain.DetailedAnalysis
	Strategy    ExecutionStrategy
	MEV         MEVProtectionPlan
	Contingency ContingencyPlan
	Timing      ExecutionTiming
	CreatedAt   time.Time

	mu    sync.Mutex
	state PlanState
}

// NewPlan assembles a plan with its lifecycle started in the created state.
func NewPlan(id string, opp detdomain.Opportunity, analysis profitdomain.DetailedAnalysis, strategy ExecutionStrategy, mev MEVProtectionPlan, contingency ContingencyPlan, timing ExecutionTiming) *Plan {
	return &Plan{
		ID:          id,
		Opportunity: opp,
		Analysis:    analysis,
		Strategy:    strategy,
		MEV:         mev,
		Contingency: contingency,
		Timing:      timing,
		CreatedAt:   time.Now(),
		state:       StateCreated,
	}
}

// State returns the plan's current lifecycle state.
func (p *Plan) State() PlanState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Transition moves the plan to the given state, enforcing the lifecycle.
// Safe for concurrent callers; whoever loses the race gets
// CodeInvalidTransition and the plan keeps the winner's state.
func (p *Plan) Transition(to PlanState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.CanTransition(to) {
		return apperror.New(apperror.CodeInvalidTransition,
			apperror.WithContextf("plan %s: %s -> %s", p.ID, p.state, to))
	}
	p.state = to
	return nil
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	StepIndex    int
	TxRef        string
	ActualOutput decimal.Decimal
	Duration     time.Duration
	Rollback     bool // true when the step ran as part of a contingency
}

// Results is the terminal report of a plan execution.
type Results struct {
	PlanID         string
	Success        bool
	RealizedProfit decimal.Decimal // actual post-execution delta, not estimated
	ExecutionTime  time.Duration
	MEVHeld        bool // no front-run detected
	Steps          []StepResult
	FailedStep     int // -1 when no step failed
	RolledBack     bool
}
