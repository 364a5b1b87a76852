package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detapp "github.com/vortexdefi/dlmm-arb/business/detection/app"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execapp "github.com/vortexdefi/dlmm-arb/business/execution/app"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	profitapp "github.com/vortexdefi/dlmm-arb/business/profitability/app"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// memorySource is a minimal in-memory pool source for engine construction.
type memorySource struct {
	mu    sync.Mutex
	pools map[string]pooldomain.Pool
}

func newMemorySource(pools ...pooldomain.Pool) *memorySource {
	s := &memorySource{pools: make(map[string]pooldomain.Pool)}
	for _, p := range pools {
		s.pools[p.Address] = p
	}
	return s
}

func (s *memorySource) AddPool(_ context.Context, address string, tokenX, tokenY token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[address] = pooldomain.Pool{Address: address, TokenX: tokenX, TokenY: tokenY}
	return nil
}

func (s *memorySource) RemovePool(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pools, address)
}

func (s *memorySource) SnapshotAll() []pooldomain.Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pooldomain.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p)
	}
	return out
}

func (s *memorySource) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pools)
}

// recordingReporter captures every reporter call for assertions.
type recordingReporter struct {
	mu            sync.Mutex
	started       bool
	stopped       bool
	opportunities []detdomain.Opportunity
	executions    []execdomain.Results
	statsUpdates  int
}

func (r *recordingReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) ReportOpportunity(opp detdomain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities = append(r.opportunities, opp)
}

func (r *recordingReporter) ReportExecution(results execdomain.Results) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = append(r.executions, results)
}

func (r *recordingReporter) UpdateStats(arbdomain.StatsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsUpdates++
}

func (r *recordingReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

// settlingExecutor settles every step at its expected output.
type settlingExecutor struct{}

func (settlingExecutor) ExecuteStep(_ context.Context, step detdomain.ExecutionStep) (execdomain.StepResult, error) {
	return execdomain.StepResult{
		TxRef:        fmt.Sprintf("tx-%s-%d", step.PoolAddress, step.Index),
		ActualOutput: step.ExpectedOutput,
	}, nil
}

func mgrTokens() (token.Token, token.Token) {
	sol := token.Token{
		Symbol: "SOL", Mint: "So11111111111111111111111111111111111111112",
		Decimals: 9, ReferencePrice: decimal.RequireFromString("100"),
	}
	usdc := token.Token{
		Symbol: "USDC", Mint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals: 6, ReferencePrice: decimal.NewFromInt(1),
	}
	return sol, usdc
}

func mgrPool(address, price string) pooldomain.Pool {
	sol, usdc := mgrTokens()
	return pooldomain.Pool{
		Address: address, TokenX: sol, TokenY: usdc,
		Price:            decimal.RequireFromString(price),
		Liquidity:        decimal.NewFromInt(1_000_000),
		FeeRate:          decimal.RequireFromString("0.0005"),
		SlippageEstimate: decimal.RequireFromString("0.0001"),
		UpdatedAt:        time.Now(),
	}
}

type managerFixture struct {
	manager  *Manager
	engine   *detapp.Engine
	reporter *recordingReporter
}

func newManagerFixture(t *testing.T, cfg ManagerConfig, pools ...pooldomain.Pool) *managerFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := detapp.NewEngine(newMemorySource(pools...), detdomain.NewHeuristicEstimator(), detapp.EngineConfig{
		ScanInterval:     10 * time.Millisecond,
		MaxRouteDepth:    3,
		FreshnessHorizon: time.Minute,
		ProbeAmount:      decimal.NewFromInt(1000),
		GasUnitPrice:     decimal.RequireFromString("0.000005"),
		BaseMEVRate:      decimal.RequireFromString("0.0001"),
	}, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	calculator := profitapp.NewCalculator(profitapp.CalculatorConfig{
		GasUnitPrice:   decimal.RequireFromString("0.000005"),
		SlippageBuffer: decimal.RequireFromString("1.2"),
		BaseMEVRate:    decimal.RequireFromString("0.001"),
		RiskFreeRate:   decimal.RequireFromString("0.05"),
		VaRConfidence:  0.05,
	})

	planner, err := execapp.NewPlanner(settlingExecutor{}, execapp.PlannerConfig{
		MaxConcurrentPlans: 2,
		DefaultStepTimeout: time.Second,
		FreshnessHorizon:   time.Minute,
	}, log)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}

	reporter := &recordingReporter{}
	return &managerFixture{
		manager:  NewManager(engine, calculator, planner, reporter, cfg, log),
		engine:   engine,
		reporter: reporter,
	}
}

func defaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MinProfitThreshold: decimal.NewFromInt(1),
		MaxRiskScore:       0.9,
		ReportInterval:     10 * time.Millisecond,
	}
}

func TestManagerRequiresStart(t *testing.T) {
	f := newManagerFixture(t, defaultManagerConfig())
	sol, usdc := mgrTokens()

	if err := f.manager.AddPool(context.Background(), "addr", sol, usdc); !apperror.IsCode(err, apperror.CodeManagerNotInitialized) {
		t.Errorf("AddPool error = %v, want manager not initialized", err)
	}
	if err := f.manager.RemovePool("addr"); !apperror.IsCode(err, apperror.CodeManagerNotInitialized) {
		t.Errorf("RemovePool error = %v, want manager not initialized", err)
	}
	if _, err := f.manager.ActiveOpportunities(); !apperror.IsCode(err, apperror.CodeManagerNotInitialized) {
		t.Errorf("ActiveOpportunities error = %v, want manager not initialized", err)
	}
	if _, err := f.manager.ExecuteArbitrage(context.Background(), detdomain.Opportunity{}, decimal.NewFromInt(100)); !apperror.IsCode(err, apperror.CodeManagerNotInitialized) {
		t.Errorf("ExecuteArbitrage error = %v, want manager not initialized", err)
	}
}

func TestManagerLifecycle(t *testing.T) {
	f := newManagerFixture(t, defaultManagerConfig())
	ctx := context.Background()

	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op, got %v", err)
	}
	if !f.manager.SystemHealth().Running {
		t.Error("health should report running after start")
	}

	if err := f.manager.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := f.manager.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}
	if f.manager.SystemHealth().Running {
		t.Error("health should report stopped")
	}

	f.reporter.mu.Lock()
	defer f.reporter.mu.Unlock()
	if !f.reporter.started || !f.reporter.stopped {
		t.Error("reporter should be started and stopped with the manager")
	}
}

func TestSystemHealthReadableWhenStopped(t *testing.T) {
	f := newManagerFixture(t, defaultManagerConfig(), mgrPool("pool-a", "100.5"), mgrPool("pool-b", "100.0"))

	h := f.manager.SystemHealth()
	if h.Running {
		t.Error("unstarted system should not report running")
	}
	if h.MonitoredPools != 2 {
		t.Errorf("monitored pools = %d, want 2", h.MonitoredPools)
	}
}

func TestMonitoringFeedsReporter(t *testing.T) {
	cfg := defaultManagerConfig()
	cfg.MonitoringEnabled = true
	f := newManagerFixture(t, cfg, mgrPool("pool-a", "100.5"), mgrPool("pool-b", "100.0"))

	if err := f.manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.manager.Stop()

	deadline := time.After(time.Second)
	for {
		f.reporter.mu.Lock()
		reported := len(f.reporter.opportunities)
		f.reporter.mu.Unlock()
		if reported > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reporter received no opportunities within a second")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if f.manager.Stats().OpportunitiesDetected == 0 {
		t.Error("detections should be folded into stats")
	}
}

func TestDetectionStatsCountScanPassesNotReportTicks(t *testing.T) {
	cfg := defaultManagerConfig()
	cfg.MonitoringEnabled = false
	// A threshold far above any edge must not hide detections from the stats.
	cfg.MinProfitThreshold = decimal.NewFromInt(1_000_000)
	f := newManagerFixture(t, cfg, mgrPool("pool-a", "105"), mgrPool("pool-b", "100"))

	ctx := context.Background()
	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.manager.Stop()

	f.engine.Scan(ctx)
	detected := f.engine.DetectionsTotal()
	if detected == 0 {
		t.Fatal("scan pass produced no detections")
	}

	// Many report ticks elapse; the single pass still counts exactly once.
	deadline := time.After(time.Second)
	for f.manager.Stats().OpportunitiesDetected == 0 {
		select {
		case <-deadline:
			t.Fatal("detections never reached the stats")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(100 * time.Millisecond)

	if got := f.manager.Stats().OpportunitiesDetected; got != detected {
		t.Errorf("OpportunitiesDetected = %d after one scan pass, want %d", got, detected)
	}
}

func TestExecuteArbitrageSuccess(t *testing.T) {
	cfg := defaultManagerConfig()
	cfg.MonitoringEnabled = true
	f := newManagerFixture(t, cfg, mgrPool("pool-a", "105"), mgrPool("pool-b", "100"))

	ctx := context.Background()
	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.manager.Stop()

	// Wait for the scan loop to surface the edge.
	var opp detdomain.Opportunity
	deadline := time.After(time.Second)
	for {
		opps, err := f.manager.ActiveOpportunities()
		if err != nil {
			t.Fatalf("ActiveOpportunities: %v", err)
		}
		if len(opps) > 0 {
			opp = opps[0]
			break
		}
		select {
		case <-deadline:
			t.Fatal("no opportunity detected within a second")
		case <-time.After(5 * time.Millisecond):
		}
	}

	results, err := f.manager.ExecuteArbitrage(ctx, opp, decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("ExecuteArbitrage: %v", err)
	}
	if !results.Success {
		t.Error("expected a successful execution")
	}
	if results.RealizedProfit.Sign() <= 0 {
		t.Errorf("realized profit = %s, want > 0", results.RealizedProfit)
	}

	snap := f.manager.Stats()
	if snap.ExecutionsAttempted != 1 || snap.ExecutionsSucceeded != 1 {
		t.Errorf("attempted=%d succeeded=%d, want 1/1", snap.ExecutionsAttempted, snap.ExecutionsSucceeded)
	}

	f.reporter.mu.Lock()
	defer f.reporter.mu.Unlock()
	if len(f.reporter.executions) != 1 {
		t.Errorf("reporter received %d execution reports, want 1", len(f.reporter.executions))
	}
}

func TestExecuteArbitrageRejectsThinProfit(t *testing.T) {
	cfg := defaultManagerConfig()
	cfg.MonitoringEnabled = true
	cfg.MinProfitThreshold = decimal.NewFromInt(1_000_000)
	f := newManagerFixture(t, cfg, mgrPool("pool-a", "105"), mgrPool("pool-b", "100"))

	ctx := context.Background()
	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.manager.Stop()

	// The threshold also filters the opportunity feed.
	opps, err := f.manager.ActiveOpportunities()
	if err != nil {
		t.Fatalf("ActiveOpportunities: %v", err)
	}
	if len(opps) != 0 {
		t.Errorf("threshold should filter all opportunities, got %d", len(opps))
	}

	// Executing directly against the same threshold fails the profit gate.
	f.engine.StopMonitoring()
	var raw detdomain.Opportunity
	deadline := time.After(time.Second)
	for {
		f.engine.Scan(ctx)
		if all := f.engine.ActiveOpportunities(); len(all) > 0 {
			raw = all[0]
			break
		}
		select {
		case <-deadline:
			t.Fatal("engine found no raw opportunities")
		case <-time.After(5 * time.Millisecond):
		}
	}

	_, err = f.manager.ExecuteArbitrage(ctx, raw, decimal.NewFromInt(1000))
	if !apperror.IsCode(err, apperror.CodeInsufficientProfitability) {
		t.Fatalf("error = %v, want insufficient profitability", err)
	}
	if f.manager.Stats().ExecutionsAttempted != 0 {
		t.Error("rejected opportunity should not count as an attempt")
	}
}

func TestExecuteArbitrageRejectsHighRisk(t *testing.T) {
	cfg := defaultManagerConfig()
	cfg.MaxRiskScore = 0.01
	f := newManagerFixture(t, cfg, mgrPool("pool-a", "105"), mgrPool("pool-b", "100"))

	ctx := context.Background()
	if err := f.manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.manager.Stop()

	f.engine.Scan(ctx)
	all := f.engine.ActiveOpportunities()
	if len(all) == 0 {
		t.Fatal("engine found no raw opportunities")
	}

	_, err := f.manager.ExecuteArbitrage(ctx, all[0], decimal.NewFromInt(1000))
	if !apperror.IsCode(err, apperror.CodeInsufficientProfitability) {
		t.Fatalf("error = %v, want risk rejection", err)
	}
}
