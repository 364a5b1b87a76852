package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

const meterName = "github.com/vortexdefi/dlmm-arb/business/detection"

// EngineConfig holds detection engine configuration.
type EngineConfig struct {
	ScanInterval     time.Duration
	MaxRouteDepth    int
	FreshnessHorizon time.Duration
	ProbeAmount      decimal.Decimal // quoting size in start-token units

	// Preliminary cost model, used to discard unprofitable paths before
	// the full profitability calculation.
	GasUnitPrice decimal.Decimal // currency per compute unit
	BaseMEVRate  decimal.Decimal // fraction of input amount
}

// Engine runs the background scan loop producing arbitrage opportunities
// over the tracked pool set.
type Engine struct {
	pools     PoolSource
	estimator domain.RiskEstimator
	config    EngineConfig
	logger    *slog.Logger

	mu            sync.RWMutex
	opportunities map[uint64]domain.Opportunity
	detections    int64
	running       bool

	cancel  context.CancelFunc
	stopped chan struct{}

	detected     metric.Int64Counter
	scanDuration metric.Float64Histogram
}

// NewEngine creates a detection engine over the given pool source.
func NewEngine(pools PoolSource, estimator domain.RiskEstimator, cfg EngineConfig, logger *slog.Logger) (*Engine, error) {
	e := &Engine{
		pools:         pools,
		estimator:     estimator,
		config:        cfg,
		logger:        logger,
		opportunities: make(map[uint64]domain.Opportunity),
	}

	meter := otel.Meter(meterName)
	var err error
	if e.detected, err = meter.Int64Counter("opportunities_detected_total",
		metric.WithDescription("Arbitrage opportunities detected across all scan ticks")); err != nil {
		return nil, err
	}
	if e.scanDuration, err = meter.Float64Histogram("scan_duration_seconds",
		metric.WithDescription("Duration of full detection scan passes")); err != nil {
		return nil, err
	}

	return e, nil
}

// AddPool registers a pool with the underlying registry.
func (e *Engine) AddPool(ctx context.Context, address string, tokenX, tokenY token.Token) error {
	return e.pools.AddPool(ctx, address, tokenX, tokenY)
}

// RemovePool unregisters a pool.
func (e *Engine) RemovePool(address string) {
	e.pools.RemovePool(address)
}

// PoolCount returns the number of monitored pools.
func (e *Engine) PoolCount() int {
	return e.pools.Count()
}

// StartMonitoring launches the background scan loop. Idempotent.
func (e *Engine) StartMonitoring(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	ctx, e.cancel = context.WithCancel(ctx)
	e.stopped = make(chan struct{})
	e.mu.Unlock()

	go func() {
		defer close(e.stopped)
		ticker := time.NewTicker(e.config.ScanInterval)
		defer ticker.Stop()

		e.Scan(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Scan(ctx)
			}
		}
	}()
}

// StopMonitoring cancels the scan loop and waits for the in-flight tick to
// finish. Idempotent.
func (e *Engine) StopMonitoring() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel, stopped := e.cancel, e.stopped
	e.mu.Unlock()

	cancel()
	<-stopped
}

// DetectionsTotal returns the monotonic count of detection events: every
// opportunity a scan pass produced, including re-detections of a route a
// later pass saw again.
func (e *Engine) DetectionsTotal() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.detections
}

// IsMonitoring reports whether the scan loop is active.
func (e *Engine) IsMonitoring() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Scan runs one detection pass over an immutable snapshot of the pool set.
// Errors are absorbed: the loop is self-healing and a partial pool set still
// produces whatever opportunities remain reachable.
func (e *Engine) Scan(ctx context.Context) {
	start := time.Now()
	now := time.Now()

	graph := newRouteGraph(e.pools.SnapshotAll())

	var found []domain.Opportunity
	for _, sym := range graph.tokens() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for _, path := range graph.findCycles(sym, e.config.ProbeAmount, e.config.MaxRouteDepth) {
			opp, ok := e.score(path, now)
			if !ok {
				continue
			}
			found = append(found, opp)
		}
	}

	e.mu.Lock()
	// Drop expired entries, then merge this tick's detections. A re-detected
	// route replaces its previous instance.
	for key, opp := range e.opportunities {
		if !opp.IsFresh(now, e.config.FreshnessHorizon) {
			delete(e.opportunities, key)
		}
	}
	for _, opp := range found {
		e.opportunities[opp.Key()] = opp
	}
	e.detections += int64(len(found))
	total := len(e.opportunities)
	e.mu.Unlock()

	e.detected.Add(ctx, int64(len(found)))
	e.scanDuration.Record(ctx, time.Since(start).Seconds())
	e.logger.Debug("scan complete",
		"found", len(found), "active", total, "took", time.Since(start))
}

// score turns a quoted cyclic path into an opportunity, or rejects it when
// the preliminary net profit is non-positive.
func (e *Engine) score(path domain.Path, now time.Time) (domain.Opportunity, bool) {
	input := e.config.ProbeAmount
	finalAmount := input.Mul(path.CompoundRate())
	gross := finalAmount.Sub(input)
	if gross.Sign() <= 0 {
		return domain.Opportunity{}, false
	}

	// Preliminary cost screen. Slippage is already folded into the hop
	// rates; the full calculator re-derives everything for a real amount.
	var gas decimal.Decimal
	for range path.Steps {
		gas = gas.Add(decimal.NewFromInt(domain.ActionSwap.ComputeUnits()).Mul(e.config.GasUnitPrice))
	}
	mev := input.Mul(e.config.BaseMEVRate)
	priority := gas.Mul(decimal.NewFromFloat(0.5))
	costs := gas.Add(mev).Add(priority)

	net := gross.Sub(costs)
	if net.Sign() <= 0 {
		return domain.Opportunity{}, false
	}

	risk := e.estimator.Assess(path, gross)

	opp := domain.Opportunity{
		ID:          uuid.NewString(),
		Type:        classify(path),
		InputToken:  path.StartToken(),
		InputAmount: input,
		Pools:       path.PoolAddresses(),
		Path:        path,
		Profit: domain.ProfitSnapshot{
			GrossProfit: gross,
			TotalCosts:  costs,
			NetProfit:   net,
			Margin:      net.Div(input),
		},
		Risk:       risk,
		Steps:      buildSteps(path, input),
		MEV:        chooseMEVProtection(risk),
		Confidence: 1 - risk.Score(),
		DetectedAt: now,
	}
	return opp, true
}

// buildSteps linearizes the path into dependent swap steps with compounded
// amounts.
func buildSteps(path domain.Path, input decimal.Decimal) []domain.ExecutionStep {
	steps := make([]domain.ExecutionStep, 0, len(path.Steps))
	amount := input
	for i, hop := range path.Steps {
		output := amount.Mul(hop.Rate)
		step := domain.ExecutionStep{
			Index:          i,
			Action:         domain.ActionSwap,
			PoolAddress:    hop.Pool.Address,
			InputToken:     hop.InputToken,
			OutputToken:    hop.OutputToken,
			Amount:         amount,
			ExpectedOutput: output,
		}
		if i > 0 {
			step.DependsOn = []int{i - 1}
		}
		steps = append(steps, step)
		amount = output
	}
	return steps
}

// chooseMEVProtection picks a submission strategy from the risk profile:
// private submission when the route looks contested, timed jitter otherwise.
func chooseMEVProtection(risk domain.RiskAssessment) domain.MEVProtection {
	if risk.MEV >= 0.5 || risk.Competition >= 0.75 {
		return domain.MEVProtection{
			Strategy:          domain.StrategyPrivateSubmission,
			MaxFrontRunImpact: 0.01,
			RequirePrivate:    true,
		}
	}
	return domain.MEVProtection{
		Strategy:          domain.StrategyTimedJitter,
		JitterBound:       500 * time.Millisecond,
		MaxFrontRunImpact: 0.01,
	}
}

// ActiveOpportunities returns the currently fresh opportunities, best net
// profit first.
func (e *Engine) ActiveOpportunities() []domain.Opportunity {
	now := time.Now()

	e.mu.RLock()
	result := make([]domain.Opportunity, 0, len(e.opportunities))
	for _, opp := range e.opportunities {
		if opp.IsFresh(now, e.config.FreshnessHorizon) {
			result = append(result, opp)
		}
	}
	e.mu.RUnlock()

	sortByNetProfit(result)
	return result
}

// BestOpportunityForAmount returns the highest-net-profit fresh opportunity
// starting from the given token that can absorb the given size, or false.
func (e *Engine) BestOpportunityForAmount(symbol string, amount decimal.Decimal) (domain.Opportunity, bool) {
	var (
		best  domain.Opportunity
		found bool
	)
	for _, opp := range e.ActiveOpportunities() {
		if opp.InputToken.Symbol != symbol {
			continue
		}
		// Cap usable size at 10% of the shallowest pool along the route.
		maxSize := opp.Path.ShallowestLiquidity().Mul(decimal.NewFromFloat(0.1))
		if amount.GreaterThan(maxSize) {
			continue
		}
		if !found || opp.Profit.NetProfit.GreaterThan(best.Profit.NetProfit) {
			best, found = opp, true
		}
	}
	return best, found
}

func sortByNetProfit(opps []domain.Opportunity) {
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].Profit.NetProfit.GreaterThan(opps[j].Profit.NetProfit)
	})
}
