// Package domain contains the profitability analysis result types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
)

// Metrics is the base profitability result for a concrete input amount.
// All money figures are in input-token units.
type Metrics struct {
	InputAmount decimal.Decimal
	FinalAmount decimal.Decimal

	GrossProfit       decimal.Decimal
	GasCost           decimal.Decimal
	SlippageCost      decimal.Decimal
	MEVProtectionCost decimal.Decimal
	PriorityFees      decimal.Decimal
	TotalCosts        decimal.Decimal
	NetProfit         decimal.Decimal

	// ProfitMargin is NetProfit / InputAmount; also the return on
	// investment for a single-cycle route.
	ProfitMargin decimal.Decimal

	// Breakeven is the input amount at which net profit crosses zero.
	// When the gross profit rate does not exceed the variable cost rate,
	// no finite amount breaks even and BreakevenUnreachable is set.
	Breakeven            decimal.Decimal
	BreakevenUnreachable bool

	// MaxProfitableAmount caps usable size at 10% of the shallowest
	// pool's liquidity along the route.
	MaxProfitableAmount decimal.Decimal
}

// Scenario is one named outcome branch of the detailed analysis.
type Scenario struct {
	Name          string
	Probability   float64
	Profit        decimal.Decimal
	ExecutionTime time.Duration
	GasMultiplier float64
}

// RiskAdjusted aggregates probability-weighted return statistics across
// scenarios. Ratio metrics use float64: they are dimensionless and feed no
// money arithmetic.
type RiskAdjusted struct {
	ExpectedReturn      float64
	Variance            float64
	StdDev              float64
	SharpeRatio         float64
	SortinoRatio        float64
	ValueAtRisk         float64 // magnitude at the confidence tail
	ConditionalVaR      float64 // mean magnitude at or below the VaR outcome
	ExpectedShortfall   float64 // mean of strictly negative outcomes
	ProbabilityOfProfit float64
}

// StepCost is one entry of the per-step transaction cost ledger.
type StepCost struct {
	StepIndex   int
	Action      detdomain.Action
	BaseFee     decimal.Decimal
	PriorityFee decimal.Decimal // 50% markup on the base fee
	Total       decimal.Decimal
}

// PoolSlippage is one entry of the per-pool slippage ledger.
type PoolSlippage struct {
	PoolAddress string
	Expected    decimal.Decimal // impact at the requested size
	WorstCase   decimal.Decimal // impact with the safety buffer applied
}

// CostBreakdown itemizes every cost component of the base analysis.
type CostBreakdown struct {
	Transactions      []StepCost
	Slippage          []PoolSlippage
	MEVProtectionCost decimal.Decimal
	OpportunityCost   decimal.Decimal
	TotalCosts        decimal.Decimal

	// CostRatio is TotalCosts / GrossProfit. CostsExceedProfit flags a
	// ratio above 1; the analysis still completes.
	CostRatio         decimal.Decimal
	CostsExceedProfit bool
}

// ImpactTier reports price impact at one trade-size multiple.
type ImpactTier struct {
	Multiplier    float64
	TradeSize     decimal.Decimal
	AverageImpact decimal.Decimal
	MaximumImpact decimal.Decimal
}

// MarketImpact analyzes how impact scales with trade size.
type MarketImpact struct {
	Tiers              []ImpactTier
	RecommendedMaxSize decimal.Decimal
}

// LiquidityAnalysis aggregates depth across the route's pools.
type LiquidityAnalysis struct {
	TotalLiquidity  decimal.Decimal
	ActiveLiquidity decimal.Decimal // 80% of total is treated as usable
	DepthScore      float64         // [0,1]
}

// CompetitionPressure classifies how contested a route is.
type CompetitionPressure string

const (
	PressureLow     CompetitionPressure = "low"
	PressureMedium  CompetitionPressure = "medium"
	PressureHigh    CompetitionPressure = "high"
	PressureExtreme CompetitionPressure = "extreme"
)

// CompetitionAnalysis estimates searcher pressure on the route.
type CompetitionAnalysis struct {
	Pressure          CompetitionPressure
	ExpectedNetProfit decimal.Decimal
}

// TemporalDecay models how quickly the price edge disappears.
type TemporalDecay struct {
	HalfLife      time.Duration
	OptimalWindow time.Duration
}

// RecommendationType names an actionable improvement category.
type RecommendationType string

const (
	RecAmountOptimization RecommendationType = "amount_optimization"
	RecTiming             RecommendationType = "timing"
	RecRouteModification  RecommendationType = "route_modification"
	RecRiskMitigation     RecommendationType = "risk_mitigation"
)

// Recommendation is one actionable item, ranked by net benefit.
type Recommendation struct {
	Type                 RecommendationType
	Description          string
	EstimatedImprovement decimal.Decimal
	ImplementationCost   decimal.Decimal
	NetBenefit           decimal.Decimal
}

// SensitivityPoint is one cell of a sensitivity table: profit impact at a
// multiplicative factor applied to one parameter.
type SensitivityPoint struct {
	Factor       float64
	ProfitImpact decimal.Decimal
}

// DelayPoint is profit impact at a fixed execution-delay offset.
type DelayPoint struct {
	Delay        time.Duration
	ProfitImpact decimal.Decimal
}

// Sensitivity tabulates profit impact across parameter perturbations.
// Factor 1.0 and delay 0 always yield zero impact.
type Sensitivity struct {
	PriceVolatility []SensitivityPoint
	GasPrice        []SensitivityPoint
	Slippage        []SensitivityPoint
	Competition     []SensitivityPoint
	ExecutionDelay  []DelayPoint
}

// MarketConditions optionally perturbs the detailed analysis. The zero
// value (or nil pointer) means neutral conditions.
type MarketConditions struct {
	VolatilityFactor  float64
	GasFactor         float64
	CompetitionFactor float64
}

// Normalized returns conditions with unset factors defaulted to 1.
func (m *MarketConditions) Normalized() MarketConditions {
	out := MarketConditions{VolatilityFactor: 1, GasFactor: 1, CompetitionFactor: 1}
	if m == nil {
		return out
	}
	if m.VolatilityFactor > 0 {
		out.VolatilityFactor = m.VolatilityFactor
	}
	if m.GasFactor > 0 {
		out.GasFactor = m.GasFactor
	}
	if m.CompetitionFactor > 0 {
		out.CompetitionFactor = m.CompetitionFactor
	}
	return out
}

// DetailedAnalysis is the full profitability report.
type DetailedAnalysis struct {
	Base            Metrics
	Scenarios       []Scenario
	RiskAdjusted    RiskAdjusted
	Costs           CostBreakdown
	MarketImpact    MarketImpact
	Liquidity       LiquidityAnalysis
	Competition     CompetitionAnalysis
	Decay           TemporalDecay
	Recommendations []Recommendation
	Sensitivity     Sensitivity
}
