package app

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/business/profitability/domain"
	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

func testTokens() (token.Token, token.Token) {
	sol := token.Token{
		Symbol: "SOL", Name: "Solana",
		Mint:           "So11111111111111111111111111111111111111112",
		Decimals:       9,
		ReferencePrice: decimal.RequireFromString("100"),
	}
	usdc := token.Token{
		Symbol: "USDC", Name: "USD Coin",
		Mint:           "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:       6,
		ReferencePrice: decimal.NewFromInt(1),
	}
	return sol, usdc
}

// directOpportunity builds a two-pool round trip: buy SOL cheap in the
// low-priced pool, sell it in the high-priced pool.
func directOpportunity(priceHigh, priceLow, liquidity string) detdomain.Opportunity {
	sol, usdc := testTokens()

	poolHigh := pooldomain.Pool{
		Address: "pool-high", TokenX: sol, TokenY: usdc,
		Price:            decimal.RequireFromString(priceHigh),
		Liquidity:        decimal.RequireFromString(liquidity),
		FeeRate:          decimal.RequireFromString("0.0005"),
		SlippageEstimate: decimal.RequireFromString("0.0001"),
	}
	poolLow := pooldomain.Pool{
		Address: "pool-low", TokenX: sol, TokenY: usdc,
		Price:            decimal.RequireFromString(priceLow),
		Liquidity:        decimal.RequireFromString(liquidity),
		FeeRate:          decimal.RequireFromString("0.0005"),
		SlippageEstimate: decimal.RequireFromString("0.0001"),
	}

	path := detdomain.Path{Steps: []detdomain.RouteStep{
		{Pool: poolLow, InputToken: usdc, OutputToken: sol},
		{Pool: poolHigh, InputToken: sol, OutputToken: usdc},
	}}

	return detdomain.Opportunity{
		ID:          "opp-direct",
		Type:        detdomain.TypeDirect,
		InputToken:  usdc,
		InputAmount: decimal.NewFromInt(1000),
		Pools:       []string{"pool-low", "pool-high"},
		Path:        path,
		Risk:        detdomain.NewHeuristicEstimator().Assess(path, decimal.NewFromInt(5)),
	}
}

func testConfig() CalculatorConfig {
	return CalculatorConfig{
		GasUnitPrice:   decimal.RequireFromString("0.000005"),
		SlippageBuffer: decimal.RequireFromString("1.2"),
		BaseMEVRate:    decimal.RequireFromString("0.01"),
		RiskFreeRate:   decimal.RequireFromString("0.05"),
		VaRConfidence:  0.05,
	}
}

func TestScenarioProbabilitiesAndOrdering(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")

	analysis := calc.DetailedProfitability(opp, decimal.NewFromInt(1000), nil)

	if got := len(analysis.Scenarios); got != 3 {
		t.Fatalf("expected 3 scenarios, got %d", got)
	}

	var probSum float64
	for _, s := range analysis.Scenarios {
		probSum += s.Probability
	}
	if probSum != 1.0 {
		t.Errorf("scenario probabilities sum to %v, want exactly 1.0", probSum)
	}

	if analysis.Base.NetProfit.Sign() <= 0 {
		t.Fatalf("fixture should be profitable, net = %s", analysis.Base.NetProfit)
	}

	conservative, base, optimistic := analysis.Scenarios[0], analysis.Scenarios[1], analysis.Scenarios[2]
	if conservative.Profit.GreaterThan(base.Profit) {
		t.Errorf("conservative profit %s > base %s", conservative.Profit, base.Profit)
	}
	if base.Profit.GreaterThan(optimistic.Profit) {
		t.Errorf("base profit %s > optimistic %s", base.Profit, optimistic.Profit)
	}
}

func TestScenarioScalingWithNegativeBase(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("100.1", "100", "1000000")

	analysis := calc.DetailedProfitability(opp, decimal.NewFromInt(1000), nil)
	net := analysis.Base.NetProfit
	if net.Sign() >= 0 {
		t.Fatalf("fixture should lose money, net = %s", net)
	}

	var probSum float64
	for _, s := range analysis.Scenarios {
		probSum += s.Probability
	}
	if probSum != 1.0 {
		t.Errorf("scenario probabilities sum to %v, want exactly 1.0", probSum)
	}

	conservative, optimistic := analysis.Scenarios[0], analysis.Scenarios[2]
	if !conservative.Profit.Equal(net.Mul(decimal.RequireFromString("0.75"))) {
		t.Errorf("conservative profit = %s, want 0.75 of %s", conservative.Profit, net)
	}
	if !optimistic.Profit.Equal(net.Mul(decimal.RequireFromString("1.25"))) {
		t.Errorf("optimistic profit = %s, want 1.25 of %s", optimistic.Profit, net)
	}
	// The multipliers scale the loss too: the conservative branch is the
	// shallower loss, so the profitable-case ordering flips.
	if !conservative.Profit.GreaterThan(optimistic.Profit) {
		t.Errorf("conservative %s should beat optimistic %s on a losing base",
			conservative.Profit, optimistic.Profit)
	}
}

func TestSensitivityIdentityAtBaseline(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")

	analysis := calc.DetailedProfitability(opp, decimal.NewFromInt(1000), nil)

	tables := map[string][]domain.SensitivityPoint{
		"volatility":  analysis.Sensitivity.PriceVolatility,
		"gas":         analysis.Sensitivity.GasPrice,
		"slippage":    analysis.Sensitivity.Slippage,
		"competition": analysis.Sensitivity.Competition,
	}
	for name, points := range tables {
		found := false
		for _, p := range points {
			if p.Factor == 1.0 {
				found = true
				if !p.ProfitImpact.IsZero() {
					t.Errorf("%s: impact at factor 1.0 = %s, want 0", name, p.ProfitImpact)
				}
			}
		}
		if !found {
			t.Errorf("%s: no baseline factor 1.0 in table", name)
		}
	}

	for _, d := range analysis.Sensitivity.ExecutionDelay {
		if d.Delay == 0 && !d.ProfitImpact.IsZero() {
			t.Errorf("delay 0 impact = %s, want 0", d.ProfitImpact)
		}
	}
}

func TestVaRAndCVaRBounds(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")

	analysis := calc.DetailedProfitability(opp, decimal.NewFromInt(1000), nil)

	if analysis.RiskAdjusted.ValueAtRisk < 0 {
		t.Errorf("VaR = %v, want >= 0", analysis.RiskAdjusted.ValueAtRisk)
	}
	if analysis.RiskAdjusted.ConditionalVaR < analysis.RiskAdjusted.ValueAtRisk {
		t.Errorf("CVaR %v < VaR %v", analysis.RiskAdjusted.ConditionalVaR, analysis.RiskAdjusted.ValueAtRisk)
	}
	if p := analysis.RiskAdjusted.ProbabilityOfProfit; p < 0 || p > 1 {
		t.Errorf("probability of profit %v out of range", p)
	}
}

func TestDetailedProfitabilityIdempotent(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")
	amount := decimal.NewFromInt(1000)

	first := calc.DetailedProfitability(opp, amount, nil)
	second := calc.DetailedProfitability(opp, amount, nil)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different analyses")
	}
}

func TestMaxProfitableAmountCap(t *testing.T) {
	tests := []struct {
		name      string
		liquidity string
	}{
		{"deep", "1000000"},
		{"moderate", "100000"},
		{"shallow", "5000"},
	}

	calc := NewCalculator(testConfig())
	tenth := decimal.RequireFromString("0.1")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp := directOpportunity("105", "100", tt.liquidity)
			m := calc.BaseProfitability(opp, decimal.NewFromInt(1000))

			cap := decimal.RequireFromString(tt.liquidity).Mul(tenth)
			if m.MaxProfitableAmount.GreaterThan(cap) {
				t.Errorf("max profitable %s exceeds 10%% of min liquidity %s",
					m.MaxProfitableAmount, cap)
			}
		})
	}
}

func TestBreakevenUnreachable(t *testing.T) {
	calc := NewCalculator(testConfig())

	// Equal prices: the round trip loses to fees, so the gross rate can
	// never outrun the variable cost rate.
	opp := directOpportunity("100", "100", "1000000")
	m := calc.BaseProfitability(opp, decimal.NewFromInt(1000))

	if m.GrossProfit.Sign() > 0 {
		t.Fatalf("expected non-positive gross, got %s", m.GrossProfit)
	}
	if !m.BreakevenUnreachable {
		t.Error("expected breakeven to be unreachable")
	}
}

func TestBaseProfitabilityEndToEnd(t *testing.T) {
	calc := NewCalculator(testConfig())

	// Two pools quoting SOL/USDC at 100.50 and 100.00 with ample depth.
	opp := directOpportunity("100.50", "100.00", "1000000")
	input := decimal.NewFromInt(1000)
	m := calc.BaseProfitability(opp, input)

	if m.GrossProfit.Sign() <= 0 {
		t.Fatalf("expected positive gross profit, got %s", m.GrossProfit)
	}
	if !m.NetProfit.LessThan(m.GrossProfit) {
		t.Errorf("net %s should be below gross %s (costs are non-zero)", m.NetProfit, m.GrossProfit)
	}
	if !m.ProfitMargin.Equal(m.NetProfit.Div(input)) {
		t.Errorf("margin %s inconsistent with net/input %s", m.ProfitMargin, m.NetProfit.Div(input))
	}
	if !m.TotalCosts.Equal(m.GasCost.Add(m.SlippageCost).Add(m.MEVProtectionCost).Add(m.PriorityFees)) {
		t.Error("total costs do not reconcile with components")
	}
}

func TestLowLiquidityShrinksMaxAndRaisesRisk(t *testing.T) {
	calc := NewCalculator(testConfig())
	amount := decimal.NewFromInt(1000)

	deep := directOpportunity("105", "100", "1000000")
	shallow := directOpportunity("105", "100", "20000")

	deepM := calc.BaseProfitability(deep, amount)
	shallowM := calc.BaseProfitability(shallow, amount)

	if !shallowM.MaxProfitableAmount.LessThan(deepM.MaxProfitableAmount) {
		t.Errorf("shallow max %s should be below deep max %s",
			shallowM.MaxProfitableAmount, deepM.MaxProfitableAmount)
	}

	estimator := detdomain.NewHeuristicEstimator()
	gross := decimal.NewFromInt(5)
	deepRisk := estimator.Assess(deep.Path, gross)
	shallowRisk := estimator.Assess(shallow.Path, gross)
	if shallowRisk.Liquidity <= deepRisk.Liquidity {
		t.Errorf("shallow liquidity risk %v should exceed deep %v",
			shallowRisk.Liquidity, deepRisk.Liquidity)
	}
}

func TestConcurrentDetailedCalls(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")
	amount := decimal.NewFromInt(1000)

	const n = 10
	results := make([]decimal.Decimal, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = calc.DetailedProfitability(opp, amount, nil).Base.GrossProfit
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if !results[i].Equal(results[0]) {
			t.Fatalf("call %d gross %s differs from call 0 gross %s", i, results[i], results[0])
		}
	}
}

func TestDegenerateInputs(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")

	tests := []struct {
		name   string
		opp    detdomain.Opportunity
		amount decimal.Decimal
	}{
		{"zero amount", opp, decimal.Zero},
		{"negative amount", opp, decimal.NewFromInt(-50)},
		{"empty path", detdomain.Opportunity{}, decimal.NewFromInt(1000)},
		{"huge amount", opp, decimal.RequireFromString("1e30")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := calc.BaseProfitability(tt.opp, tt.amount)
			if tt.amount.Sign() <= 0 && !m.BreakevenUnreachable {
				t.Error("degenerate input should report unreachable breakeven")
			}
			// The detailed path must hold together as well.
			analysis := calc.DetailedProfitability(tt.opp, tt.amount, nil)
			if math.IsNaN(analysis.RiskAdjusted.ExpectedReturn) {
				t.Error("expected return is NaN")
			}
		})
	}
}

func TestCostBreakdownFlagsExcessCosts(t *testing.T) {
	calc := NewCalculator(testConfig())

	// A thin 0.1% edge cannot cover the 1% MEV charge.
	opp := directOpportunity("100.10", "100.00", "1000000")
	analysis := calc.DetailedProfitability(opp, decimal.NewFromInt(1000), nil)

	if !analysis.Costs.CostsExceedProfit {
		t.Errorf("costs %s vs gross %s should be flagged",
			analysis.Base.TotalCosts, analysis.Base.GrossProfit)
	}
}

func TestMarketConditionsScaleGas(t *testing.T) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")
	amount := decimal.NewFromInt(1000)

	neutral := calc.DetailedProfitability(opp, amount, nil)
	expensive := calc.DetailedProfitability(opp, amount, &domain.MarketConditions{GasFactor: 3})

	if !expensive.Base.GasCost.Equal(neutral.Base.GasCost.Mul(decimal.NewFromInt(3))) {
		t.Errorf("gas factor 3 gave %s, want %s",
			expensive.Base.GasCost, neutral.Base.GasCost.Mul(decimal.NewFromInt(3)))
	}
}

func BenchmarkDetailedProfitability(b *testing.B) {
	calc := NewCalculator(testConfig())
	opp := directOpportunity("105", "100", "1000000")
	amount := decimal.NewFromInt(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		calc.DetailedProfitability(opp, amount, nil)
	}
}
