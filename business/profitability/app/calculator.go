// Package app implements the profitability calculator. Every calculation is
// a pure function over the supplied opportunity and amount: no clock reads,
// no randomness, no network. Degenerate inputs (zero, negative, extreme)
// produce mathematically consistent degenerate results rather than errors.
package app

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/business/profitability/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

const secondsPerYear = 365 * 24 * 3600

// CalculatorConfig holds the cost-model parameters.
type CalculatorConfig struct {
	GasUnitPrice   decimal.Decimal // currency per compute unit
	SlippageBuffer decimal.Decimal // safety multiplier on price impact
	BaseMEVRate    decimal.Decimal // fraction of input amount
	RiskFreeRate   decimal.Decimal // annualized, for opportunity cost
	VaRConfidence  float64         // tail probability
}

// DefaultCalculatorConfig returns the standard cost model.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		GasUnitPrice:   decimal.RequireFromString("0.000005"),
		SlippageBuffer: decimal.RequireFromString("1.2"),
		BaseMEVRate:    decimal.RequireFromString("0.01"),
		RiskFreeRate:   decimal.RequireFromString("0.05"),
		VaRConfidence:  0.05,
	}
}

// Calculator computes base and detailed profitability analyses.
type Calculator struct {
	config CalculatorConfig
}

// NewCalculator creates a calculator with the given cost model.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	return &Calculator{config: cfg}
}

// BaseProfitability walks the opportunity's route at the given input amount,
// compounding buffered slippage across hops and itemizing every cost.
func (c *Calculator) BaseProfitability(opp detdomain.Opportunity, input decimal.Decimal) domain.Metrics {
	return c.baseWith(opp, input, c.config)
}

func (c *Calculator) baseWith(opp detdomain.Opportunity, input decimal.Decimal, cfg CalculatorConfig) domain.Metrics {
	m := domain.Metrics{
		InputAmount:         input,
		MaxProfitableAmount: maxProfitableAmount(opp.Path),
	}
	if input.Sign() <= 0 || len(opp.Path.Steps) == 0 {
		m.BreakevenUnreachable = true
		return m
	}

	one := decimal.NewFromInt(1)
	amount := input

	for i, hop := range opp.Path.Steps {
		action := stepAction(opp, i)
		m.GasCost = m.GasCost.Add(decimal.NewFromInt(action.ComputeUnits()).Mul(cfg.GasUnitPrice))

		impact := hop.Pool.PriceImpact(tradeValue(hop.InputToken, amount))
		buffered := impact.Mul(cfg.SlippageBuffer)
		if buffered.GreaterThan(one) {
			buffered = one
		}
		m.SlippageCost = m.SlippageCost.Add(buffered.Mul(amount))

		rate := hop.Pool.QuotePrice(hop.InputToken.Symbol).
			Mul(one.Sub(hop.Pool.FeeRate)).
			Mul(one.Sub(buffered))
		if rate.Sign() <= 0 {
			amount = decimal.Zero
			break
		}
		amount = amount.Mul(rate)
	}

	m.FinalAmount = amount
	m.GrossProfit = amount.Sub(input)
	m.MEVProtectionCost = input.Mul(cfg.BaseMEVRate)
	m.PriorityFees = m.GasCost.Mul(decimal.RequireFromString("0.5"))
	m.TotalCosts = m.GasCost.Add(m.SlippageCost).Add(m.MEVProtectionCost).Add(m.PriorityFees)
	m.NetProfit = m.GrossProfit.Sub(m.TotalCosts)
	m.ProfitMargin = m.NetProfit.Div(input)

	// Breakeven: fixed costs amortize over size, variable costs scale
	// with it. Below the breakeven amount the fixed overhead dominates.
	grossRate := m.GrossProfit.Div(input)
	variableRate := m.SlippageCost.Add(m.MEVProtectionCost).Div(input)
	fixedCosts := m.GasCost.Add(m.PriorityFees)
	if grossRate.LessThanOrEqual(variableRate) {
		m.BreakevenUnreachable = true
	} else {
		m.Breakeven = fixedCosts.Div(grossRate.Sub(variableRate))
	}

	return m
}

// DetailedProfitability produces the full report: base metrics, scenarios,
// risk-adjusted statistics, cost breakdown, market impact, liquidity and
// competition analyses, recommendations, and sensitivity tables.
func (c *Calculator) DetailedProfitability(opp detdomain.Opportunity, input decimal.Decimal, conditions *domain.MarketConditions) domain.DetailedAnalysis {
	cond := conditions.Normalized()

	cfg := c.config
	cfg.GasUnitPrice = cfg.GasUnitPrice.Mul(decimal.NewFromFloat(cond.GasFactor))
	cfg.BaseMEVRate = cfg.BaseMEVRate.Mul(decimal.NewFromFloat(cond.CompetitionFactor))

	base := c.baseWith(opp, input, cfg)
	scenarios := buildScenarios(base)
	decay := domain.TemporalDecay{
		HalfLife:      opp.Path.Complexity().DecayHalfLife(),
		OptimalWindow: opp.Path.Complexity().DecayHalfLife() / 2,
	}

	return domain.DetailedAnalysis{
		Base:            base,
		Scenarios:       scenarios,
		RiskAdjusted:    riskAdjust(scenarios, cfg.VaRConfidence),
		Costs:           c.costBreakdown(opp, base, cfg),
		MarketImpact:    marketImpact(opp.Path, input, base.MaxProfitableAmount),
		Liquidity:       liquidityAnalysis(opp.Path, input),
		Competition:     competitionAnalysis(base.NetProfit),
		Decay:           decay,
		Recommendations: recommend(opp, base, decay),
		Sensitivity:     c.sensitivity(base, decay),
	}
}

func stepAction(opp detdomain.Opportunity, i int) detdomain.Action {
	if i < len(opp.Steps) {
		return opp.Steps[i].Action
	}
	return detdomain.ActionSwap
}

func maxProfitableAmount(path detdomain.Path) decimal.Decimal {
	return path.ShallowestLiquidity().Mul(decimal.RequireFromString("0.1"))
}

func tradeValue(t token.Token, amount decimal.Decimal) decimal.Decimal {
	if t.ReferencePrice.Sign() > 0 {
		return amount.Mul(t.ReferencePrice)
	}
	return amount
}

// buildScenarios produces the three canonical outcome branches. The
// probabilities sum to exactly 1. The multipliers apply to the base net as
// is: on a losing base the conservative branch is the shallower loss, so the
// conservative <= base <= optimistic ordering holds only for profitable
// bases.
func buildScenarios(base domain.Metrics) []domain.Scenario {
	net := base.NetProfit
	return []domain.Scenario{
		{
			Name:          "Conservative",
			Probability:   0.3,
			Profit:        net.Mul(decimal.RequireFromString("0.75")),
			ExecutionTime: 15 * time.Second,
			GasMultiplier: 1.5,
		},
		{
			Name:          "Base Case",
			Probability:   0.5,
			Profit:        net,
			ExecutionTime: 8 * time.Second,
			GasMultiplier: 1.0,
		},
		{
			Name:          "Optimistic",
			Probability:   0.2,
			Profit:        net.Mul(decimal.RequireFromString("1.25")),
			ExecutionTime: 5 * time.Second,
			GasMultiplier: 0.8,
		},
	}
}

// riskAdjust computes probability-weighted return statistics over the
// scenario distribution.
func riskAdjust(scenarios []domain.Scenario, confidence float64) domain.RiskAdjusted {
	var r domain.RiskAdjusted
	if len(scenarios) == 0 {
		return r
	}

	type outcome struct {
		profit float64
		prob   float64
	}
	outcomes := make([]outcome, len(scenarios))
	for i, s := range scenarios {
		outcomes[i] = outcome{profit: s.Profit.InexactFloat64(), prob: s.Probability}
	}

	for _, o := range outcomes {
		r.ExpectedReturn += o.prob * o.profit
		if o.profit > 0 {
			r.ProbabilityOfProfit += o.prob
		}
	}
	for _, o := range outcomes {
		d := o.profit - r.ExpectedReturn
		r.Variance += o.prob * d * d
	}
	r.StdDev = math.Sqrt(r.Variance)
	if r.StdDev > 0 {
		r.SharpeRatio = r.ExpectedReturn / r.StdDev
	}

	var downside float64
	for _, o := range outcomes {
		if o.profit < 0 {
			downside += o.prob * o.profit * o.profit
		}
	}
	if dd := math.Sqrt(downside); dd > 0 {
		r.SortinoRatio = r.ExpectedReturn / dd
	}

	// VaR: walk the outcomes from worst profit up, accumulating
	// probability mass until the confidence threshold is reached.
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].profit < outcomes[j].profit })
	var cum float64
	varProfit := outcomes[0].profit
	for _, o := range outcomes {
		cum += o.prob
		if cum >= confidence {
			varProfit = o.profit
			break
		}
	}
	r.ValueAtRisk = math.Abs(varProfit)

	// CVaR: mean magnitude of everything at or below the VaR outcome.
	var tailSum float64
	var tailN int
	for _, o := range outcomes {
		if o.profit <= varProfit {
			tailSum += math.Abs(o.profit)
			tailN++
		}
	}
	if tailN > 0 {
		r.ConditionalVaR = tailSum / float64(tailN)
	}

	var shortSum float64
	var shortN int
	for _, o := range outcomes {
		if o.profit < 0 {
			shortSum += o.profit
			shortN++
		}
	}
	if shortN > 0 {
		r.ExpectedShortfall = shortSum / float64(shortN)
	}

	return r
}

// costBreakdown itemizes per-step transaction costs, per-pool slippage, MEV
// protection, and the opportunity cost of capital in flight.
func (c *Calculator) costBreakdown(opp detdomain.Opportunity, base domain.Metrics, cfg CalculatorConfig) domain.CostBreakdown {
	cb := domain.CostBreakdown{
		MEVProtectionCost: base.MEVProtectionCost,
		TotalCosts:        base.TotalCosts,
	}

	half := decimal.RequireFromString("0.5")
	one := decimal.NewFromInt(1)
	amount := base.InputAmount

	for i, hop := range opp.Path.Steps {
		action := stepAction(opp, i)
		baseFee := decimal.NewFromInt(action.ComputeUnits()).Mul(cfg.GasUnitPrice)
		priority := baseFee.Mul(half)
		cb.Transactions = append(cb.Transactions, domain.StepCost{
			StepIndex:   i,
			Action:      action,
			BaseFee:     baseFee,
			PriorityFee: priority,
			Total:       baseFee.Add(priority),
		})

		impact := hop.Pool.PriceImpact(tradeValue(hop.InputToken, amount))
		buffered := impact.Mul(cfg.SlippageBuffer)
		if buffered.GreaterThan(one) {
			buffered = one
		}
		cb.Slippage = append(cb.Slippage, domain.PoolSlippage{
			PoolAddress: hop.Pool.Address,
			Expected:    impact.Mul(amount),
			WorstCase:   buffered.Mul(amount),
		})

		rate := hop.Pool.QuotePrice(hop.InputToken.Symbol).
			Mul(one.Sub(hop.Pool.FeeRate)).
			Mul(one.Sub(buffered))
		if rate.Sign() <= 0 {
			amount = decimal.Zero
			break
		}
		amount = amount.Mul(rate)
	}

	// Capital in flight earns nothing; price the base-case execution
	// window against the risk-free rate.
	execSeconds := decimal.NewFromInt(8)
	cb.OpportunityCost = base.InputAmount.
		Mul(cfg.RiskFreeRate).
		Mul(execSeconds).
		Div(decimal.NewFromInt(secondsPerYear))

	if base.GrossProfit.Sign() > 0 {
		cb.CostRatio = base.TotalCosts.Div(base.GrossProfit)
		cb.CostsExceedProfit = cb.CostRatio.GreaterThan(one)
	} else {
		cb.CostsExceedProfit = base.TotalCosts.Sign() > 0
	}

	return cb
}

var impactMultipliers = []float64{0.1, 0.5, 1, 2, 5}

// marketImpact probes price impact at five trade-size multiples.
func marketImpact(path detdomain.Path, input, maxProfitable decimal.Decimal) domain.MarketImpact {
	mi := domain.MarketImpact{RecommendedMaxSize: maxProfitable}

	for _, mult := range impactMultipliers {
		size := input.Mul(decimal.NewFromFloat(mult))
		var sum, max decimal.Decimal
		for _, hop := range path.Steps {
			impact := hop.Pool.PriceImpact(tradeValue(hop.InputToken, size))
			sum = sum.Add(impact)
			if impact.GreaterThan(max) {
				max = impact
			}
		}
		tier := domain.ImpactTier{
			Multiplier:    mult,
			TradeSize:     size,
			MaximumImpact: max,
		}
		if n := len(path.Steps); n > 0 {
			tier.AverageImpact = sum.Div(decimal.NewFromInt(int64(n)))
		}
		mi.Tiers = append(mi.Tiers, tier)
	}
	return mi
}

// liquidityAnalysis aggregates pool depth along the route. 80% of the total
// is treated as actively usable.
func liquidityAnalysis(path detdomain.Path, input decimal.Decimal) domain.LiquidityAnalysis {
	var total decimal.Decimal
	for _, hop := range path.Steps {
		total = total.Add(hop.Pool.Liquidity)
	}

	la := domain.LiquidityAnalysis{
		TotalLiquidity:  total,
		ActiveLiquidity: total.Mul(decimal.RequireFromString("0.8")),
	}

	// Depth score saturates toward 1 as total depth dwarfs the trade.
	if input.Sign() > 0 && total.Sign() > 0 {
		needed := input.Mul(decimal.NewFromInt(100))
		score, _ := total.Div(total.Add(needed)).Float64()
		la.DepthScore = score
	}
	return la
}

// competitionAnalysis classifies searcher pressure by profit magnitude:
// bigger edges attract more contention.
func competitionAnalysis(netProfit decimal.Decimal) domain.CompetitionAnalysis {
	ca := domain.CompetitionAnalysis{ExpectedNetProfit: netProfit}
	switch {
	case netProfit.LessThan(decimal.NewFromInt(50)):
		ca.Pressure = domain.PressureLow
	case netProfit.LessThan(decimal.NewFromInt(200)):
		ca.Pressure = domain.PressureMedium
	case netProfit.LessThan(decimal.NewFromInt(1000)):
		ca.Pressure = domain.PressureHigh
	default:
		ca.Pressure = domain.PressureExtreme
	}
	return ca
}

// recommend generates actionable items ranked by net benefit.
func recommend(opp detdomain.Opportunity, base domain.Metrics, decay domain.TemporalDecay) []domain.Recommendation {
	var recs []domain.Recommendation

	if base.InputAmount.GreaterThan(base.MaxProfitableAmount) && base.MaxProfitableAmount.Sign() > 0 {
		excess := base.InputAmount.Sub(base.MaxProfitableAmount)
		improvement := excess.Mul(decimal.RequireFromString("0.02"))
		recs = append(recs, domain.Recommendation{
			Type: domain.RecAmountOptimization,
			Description: fmt.Sprintf("reduce input to %s to stay within the shallowest pool's depth",
				base.MaxProfitableAmount.StringFixed(2)),
			EstimatedImprovement: improvement,
			NetBenefit:           improvement,
		})
	}

	timingGain := base.NetProfit.Mul(decimal.RequireFromString("0.1"))
	if timingGain.Sign() > 0 {
		recs = append(recs, domain.Recommendation{
			Type: domain.RecTiming,
			Description: fmt.Sprintf("execute within %s before the edge decays",
				decay.OptimalWindow),
			EstimatedImprovement: timingGain,
			NetBenefit:           timingGain,
		})
	}

	if opp.Path.Complexity() == detdomain.ComplexityComplex {
		improvement := base.GasCost.Mul(decimal.RequireFromString("0.25"))
		cost := improvement.Mul(decimal.RequireFromString("0.5"))
		recs = append(recs, domain.Recommendation{
			Type:                 domain.RecRouteModification,
			Description:          "search for a shorter route; each extra hop adds gas and decay",
			EstimatedImprovement: improvement,
			ImplementationCost:   cost,
			NetBenefit:           improvement.Sub(cost),
		})
	}

	if opp.Risk.Score() >= 0.5 {
		improvement := base.NetProfit.Mul(decimal.RequireFromString("0.05"))
		cost := base.MEVProtectionCost.Mul(decimal.RequireFromString("0.5"))
		recs = append(recs, domain.Recommendation{
			Type:                 domain.RecRiskMitigation,
			Description:          "route risk is elevated; require private submission",
			EstimatedImprovement: improvement,
			ImplementationCost:   cost,
			NetBenefit:           improvement.Sub(cost),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].NetBenefit.GreaterThan(recs[j].NetBenefit)
	})
	return recs
}

var (
	sensitivityFactors = []float64{0.5, 0.75, 1.0, 1.5, 2, 3, 5}
	delayOffsets       = []time.Duration{0, 5 * time.Second, 15 * time.Second, 30 * time.Second}
)

// sensitivity tabulates profit impact under parameter perturbations. Every
// table passes through zero at factor 1.0 (or delay 0) by construction.
func (c *Calculator) sensitivity(base domain.Metrics, decay domain.TemporalDecay) domain.Sensitivity {
	var s domain.Sensitivity

	gasBase := base.GasCost.Add(base.PriorityFees)
	volBase := base.GrossProfit.Abs().Mul(decimal.RequireFromString("0.1"))

	for _, f := range sensitivityFactors {
		delta := decimal.NewFromFloat(f - 1)
		s.PriceVolatility = append(s.PriceVolatility, domain.SensitivityPoint{
			Factor:       f,
			ProfitImpact: volBase.Mul(delta).Neg(),
		})
		s.GasPrice = append(s.GasPrice, domain.SensitivityPoint{
			Factor:       f,
			ProfitImpact: gasBase.Mul(delta).Neg(),
		})
		s.Slippage = append(s.Slippage, domain.SensitivityPoint{
			Factor:       f,
			ProfitImpact: base.SlippageCost.Mul(delta).Neg(),
		})
		s.Competition = append(s.Competition, domain.SensitivityPoint{
			Factor:       f,
			ProfitImpact: base.MEVProtectionCost.Mul(delta).Neg(),
		})
	}

	halfLife := decay.HalfLife.Seconds()
	for _, d := range delayOffsets {
		var impact decimal.Decimal
		if d > 0 && halfLife > 0 {
			// The edge halves every half-life; the lost fraction of
			// net profit is 1 - 0.5^(delay/halfLife).
			lost := 1 - math.Pow(0.5, d.Seconds()/halfLife)
			impact = base.NetProfit.Mul(decimal.NewFromFloat(lost)).Neg()
		}
		s.ExecutionDelay = append(s.ExecutionDelay, domain.DelayPoint{
			Delay:        d,
			ProfitImpact: impact,
		})
	}

	return s
}
