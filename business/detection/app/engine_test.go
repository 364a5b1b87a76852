package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/business/detection/domain"
	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// fakeSource is an in-memory PoolSource backed by a fixed snapshot.
type fakeSource struct {
	mu    sync.Mutex
	pools map[string]pooldomain.Pool
}

func newFakeSource(pools ...pooldomain.Pool) *fakeSource {
	s := &fakeSource{pools: make(map[string]pooldomain.Pool)}
	for _, p := range pools {
		s.pools[p.Address] = p
	}
	return s
}

func (s *fakeSource) AddPool(_ context.Context, address string, tokenX, tokenY token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[address] = pooldomain.Pool{Address: address, TokenX: tokenX, TokenY: tokenY}
	return nil
}

func (s *fakeSource) RemovePool(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, address)
}

func (s *fakeSource) SnapshotAll() []pooldomain.Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pooldomain.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	return out
}

func (s *fakeSource) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pools)
}

func solUSDC() (token.Token, token.Token) {
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

func solUSDCPool(address, price, liquidity string) pooldomain.Pool {
	sol, usdc := solUSDC()
	return pooldomain.Pool{
		Address: address, TokenX: sol, TokenY: usdc,
		Price:            decimal.RequireFromString(price),
		Liquidity:        decimal.RequireFromString(liquidity),
		FeeRate:          decimal.RequireFromString("0.0005"),
		SlippageEstimate: decimal.RequireFromString("0.0001"),
		UpdatedAt:        time.Now(),
	}
}

func testEngine(t *testing.T, source PoolSource) *Engine {
	t.Helper()
	cfg := EngineConfig{
		ScanInterval:     10 * time.Millisecond,
		MaxRouteDepth:    4,
		FreshnessHorizon: time.Minute,
		ProbeAmount:      decimal.NewFromInt(1000),
		GasUnitPrice:     decimal.RequireFromString("0.000005"),
		BaseMEVRate:      decimal.RequireFromString("0.0001"),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := NewEngine(source, domain.NewHeuristicEstimator(), cfg, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestDetectionsTotalCountsEveryScanPass(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)
	ctx := context.Background()

	if got := e.DetectionsTotal(); got != 0 {
		t.Fatalf("detections before any scan = %d, want 0", got)
	}

	e.Scan(ctx)
	first := e.DetectionsTotal()
	if first == 0 {
		t.Fatal("a profitable scan pass should record detections")
	}

	// Re-detecting the same routes is a new detection event per pass.
	e.Scan(ctx)
	if got := e.DetectionsTotal(); got != 2*first {
		t.Errorf("detections after two identical passes = %d, want %d", got, 2*first)
	}
}

func TestScanFindsDirectOpportunity(t *testing.T) {
	// Two pools quoting the same pair at diverging prices.
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)

	e.Scan(context.Background())

	var direct []domain.Opportunity
	for _, opp := range e.ActiveOpportunities() {
		if opp.Type == domain.TypeDirect && opp.InputToken.Symbol == "USDC" {
			direct = append(direct, opp)
		}
	}
	if len(direct) != 1 {
		t.Fatalf("expected exactly 1 direct USDC opportunity, got %d", len(direct))
	}

	opp := direct[0]
	if opp.Profit.GrossProfit.Sign() <= 0 {
		t.Errorf("gross profit %s, want > 0", opp.Profit.GrossProfit)
	}
	if err := opp.Validate(); err != nil {
		t.Errorf("detected opportunity fails validation: %v", err)
	}
	if !opp.Path.IsCyclic() {
		t.Error("opportunity path is not cyclic")
	}
	if got := len(opp.Steps); got != 2 {
		t.Errorf("expected 2 execution steps, got %d", got)
	}
	if opp.Steps[1].DependsOn[0] != 0 {
		t.Error("second step should depend on the first")
	}
}

func TestScanReplacesRedetectedRoutes(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)

	e.Scan(context.Background())
	first := e.ActiveOpportunities()

	e.Scan(context.Background())
	second := e.ActiveOpportunities()

	if len(first) != len(second) {
		t.Fatalf("re-scan changed opportunity count: %d -> %d", len(first), len(second))
	}
	// Same route, fresh instance.
	if first[0].Key() != second[0].Key() {
		t.Error("re-detected route produced a different key")
	}
	if first[0].ID == second[0].ID {
		t.Error("re-detected route should carry a fresh ID")
	}
}

func TestNoOpportunityWhenPricesAligned(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.00", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)

	e.Scan(context.Background())

	if got := len(e.ActiveOpportunities()); got != 0 {
		t.Errorf("aligned prices produced %d opportunities, want 0", got)
	}
}

func TestStalePoolsExcludedFromScan(t *testing.T) {
	cheap := solUSDCPool("pool-b", "100.00", "1000000")
	cheap.Stale = true
	source := newFakeSource(solUSDCPool("pool-a", "100.50", "1000000"), cheap)
	e := testEngine(t, source)

	e.Scan(context.Background())

	if got := len(e.ActiveOpportunities()); got != 0 {
		t.Errorf("stale pool still produced %d opportunities, want 0", got)
	}
}

func TestActiveOpportunitiesSortedByNetProfit(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)
	e.Scan(context.Background())

	opps := e.ActiveOpportunities()
	for i := 1; i < len(opps); i++ {
		if opps[i].Profit.NetProfit.GreaterThan(opps[i-1].Profit.NetProfit) {
			t.Fatalf("opportunities not sorted by net profit at index %d", i)
		}
	}
}

func TestBestOpportunityForAmountSizeGate(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)
	e.Scan(context.Background())

	tests := []struct {
		name   string
		amount decimal.Decimal
		want   bool
	}{
		{"within depth cap", decimal.NewFromInt(50000), true},
		{"at depth cap", decimal.NewFromInt(100000), true},
		{"above depth cap", decimal.NewFromInt(100001), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found := e.BestOpportunityForAmount("USDC", tt.amount)
			if found != tt.want {
				t.Errorf("found = %v, want %v", found, tt.want)
			}
		})
	}

	if _, found := e.BestOpportunityForAmount("BONK", decimal.NewFromInt(10)); found {
		t.Error("unknown token should yield no opportunity")
	}
}

func TestMonitoringLifecycle(t *testing.T) {
	source := newFakeSource(
		solUSDCPool("pool-a", "100.50", "1000000"),
		solUSDCPool("pool-b", "100.00", "1000000"),
	)
	e := testEngine(t, source)

	if e.IsMonitoring() {
		t.Fatal("engine should not be monitoring before start")
	}

	ctx := context.Background()
	e.StartMonitoring(ctx)
	e.StartMonitoring(ctx) // idempotent
	if !e.IsMonitoring() {
		t.Fatal("engine should be monitoring after start")
	}

	// The first tick runs immediately; give it a moment.
	deadline := time.After(time.Second)
	for len(e.ActiveOpportunities()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no opportunities detected within a second of starting")
		case <-time.After(5 * time.Millisecond):
		}
	}

	e.StopMonitoring()
	e.StopMonitoring() // idempotent
	if e.IsMonitoring() {
		t.Error("engine should not be monitoring after stop")
	}
}

func TestClassifyRoutes(t *testing.T) {
	sol, usdc := solUSDC()
	usdt := token.Token{Symbol: "USDT", Mint: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6, ReferencePrice: decimal.NewFromInt(1)}

	hop := func(in, out token.Token) domain.RouteStep {
		return domain.RouteStep{InputToken: in, OutputToken: out}
	}

	tests := []struct {
		name string
		path domain.Path
		want domain.OpportunityType
	}{
		{"two hops", domain.Path{Steps: []domain.RouteStep{hop(usdc, sol), hop(sol, usdc)}}, domain.TypeDirect},
		{"three hops three tokens", domain.Path{Steps: []domain.RouteStep{hop(usdc, sol), hop(sol, usdt), hop(usdt, usdc)}}, domain.TypeTriangular},
		{"four hops", domain.Path{Steps: []domain.RouteStep{hop(usdc, sol), hop(sol, usdt), hop(usdt, sol), hop(sol, usdc)}}, domain.TypeMultiHop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.path); got != tt.want {
				t.Errorf("classify = %s, want %s", got, tt.want)
			}
		})
	}
}
