package domain

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// OpportunityType classifies a route by shape.
type OpportunityType string

const (
	TypeDirect     OpportunityType = "direct"
	TypeTriangular OpportunityType = "triangular"
	TypeMultiHop   OpportunityType = "multi_hop"
)

// Action is a plan step's on-chain operation.
type Action string

const (
	ActionSwap            Action = "swap"
	ActionAddLiquidity    Action = "add_liquidity"
	ActionRemoveLiquidity Action = "remove_liquidity"
)

// ComputeUnits returns the fixed compute budget charged for the action.
func (a Action) ComputeUnits() int64 {
	switch a {
	case ActionSwap:
		return 100_000
	case ActionRemoveLiquidity:
		return 150_000
	case ActionAddLiquidity:
		return 200_000
	default:
		return 0
	}
}

// Reverse returns the action that undoes this one.
func (a Action) Reverse() Action {
	switch a {
	case ActionAddLiquidity:
		return ActionRemoveLiquidity
	case ActionRemoveLiquidity:
		return ActionAddLiquidity
	default:
		return ActionSwap // a swap is reversed by the opposite swap
	}
}

// ExecutionStep is one ordered operation in an opportunity's execution
// sequence. DependsOn lists indices of steps that must complete first.
type ExecutionStep struct {
	Index          int
	Action         Action
	PoolAddress    string
	InputToken     token.Token
	OutputToken    token.Token
	Amount         decimal.Decimal
	ExpectedOutput decimal.Decimal
	DependsOn      []int
}

// Reversed returns the step that undoes this one.
func (s ExecutionStep) Reversed() ExecutionStep {
	return ExecutionStep{
		Index:          s.Index,
		Action:         s.Action.Reverse(),
		PoolAddress:    s.PoolAddress,
		InputToken:     s.OutputToken,
		OutputToken:    s.InputToken,
		Amount:         s.ExpectedOutput,
		ExpectedOutput: s.Amount,
	}
}

// MEVStrategy names a protective submission strategy.
type MEVStrategy string

const (
	StrategyPrivateSubmission MEVStrategy = "private_submission"
	StrategyTimedJitter       MEVStrategy = "timed_jitter"
	StrategyBundling          MEVStrategy = "bundling"
)

// MEVProtection describes the protective strategy chosen for an opportunity.
type MEVProtection struct {
	Strategy          MEVStrategy
	JitterBound       time.Duration
	MaxFrontRunImpact float64 // tolerated front-run impact fraction
	RequirePrivate    bool
	RequireBundling   bool
}

// ProfitSnapshot holds the preliminary profit figures attached at detection
// time, in input-token terms.
type ProfitSnapshot struct {
	GrossProfit decimal.Decimal
	TotalCosts  decimal.Decimal
	NetProfit   decimal.Decimal
	Margin      decimal.Decimal // NetProfit / input amount
}

// Opportunity is an immutable detected arbitrage candidate. Re-detection of
// the same route produces a new instance with a fresh timestamp; consumers
// must discard instances older than the freshness horizon.
type Opportunity struct {
	ID   string
	Type OpportunityType

	InputToken  token.Token
	InputAmount decimal.Decimal // probe size used for quoting

	Pools  []string // pool addresses, in route order
	Path   Path
	Profit ProfitSnapshot
	Risk   RiskAssessment
	Steps  []ExecutionStep
	MEV    MEVProtection

	Confidence float64 // [0,1]
	DetectedAt time.Time
}

// Key returns a stable hash of the route's pool sequence and token pair,
// used to replace rather than duplicate opportunities across scan ticks.
func (o Opportunity) Key() uint64 {
	h := fnv.New64a()
	for _, addr := range o.Pools {
		h.Write([]byte(addr))
		h.Write([]byte{0})
	}
	h.Write([]byte(o.InputToken.Symbol))
	h.Write([]byte{0})
	h.Write([]byte(o.Path.EndToken().Symbol))
	return h.Sum64()
}

// IsFresh reports whether the opportunity is within the freshness horizon.
func (o Opportunity) IsFresh(now time.Time, horizon time.Duration) bool {
	return now.Sub(o.DetectedAt) <= horizon
}

// Validate checks internal consistency: the path must reference exactly the
// listed pools, profit figures must reconcile, and the confidence must be a
// valid probability.
func (o Opportunity) Validate() error {
	if len(o.Path.Steps) == 0 {
		return fmt.Errorf("opportunity %s: empty path", o.ID)
	}
	pathPools := o.Path.PoolAddresses()
	if len(pathPools) != len(o.Pools) {
		return fmt.Errorf("opportunity %s: path has %d pools, listed %d",
			o.ID, len(pathPools), len(o.Pools))
	}
	for i, addr := range pathPools {
		if addr != o.Pools[i] {
			return fmt.Errorf("opportunity %s: pool mismatch at hop %d", o.ID, i)
		}
	}
	if !o.Profit.NetProfit.Equal(o.Profit.GrossProfit.Sub(o.Profit.TotalCosts)) {
		return fmt.Errorf("opportunity %s: net profit %s != gross %s - costs %s",
			o.ID, o.Profit.NetProfit, o.Profit.GrossProfit, o.Profit.TotalCosts)
	}
	if o.Confidence < 0 || o.Confidence > 1 {
		return fmt.Errorf("opportunity %s: confidence %f out of range", o.ID, o.Confidence)
	}
	return nil
}
