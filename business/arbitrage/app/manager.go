package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detapp "github.com/vortexdefi/dlmm-arb/business/detection/app"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execapp "github.com/vortexdefi/dlmm-arb/business/execution/app"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
	profitapp "github.com/vortexdefi/dlmm-arb/business/profitability/app"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// ManagerConfig holds the manager's policy thresholds.
type ManagerConfig struct {
	MinProfitThreshold  decimal.Decimal // currency units
	MaxRiskScore        float64         // mean of the five risk components
	EnableMEVProtection bool
	MonitoringEnabled   bool
	ReportInterval      time.Duration
}

// SystemHealth is the operational summary surfaced to dashboards. It always
// reflects the true last-known state, even while individual scans fail.
type SystemHealth struct {
	Running              bool
	MonitoredPools       int
	ActiveOpportunities  int
	AggregateProfit      decimal.Decimal // sum of net profit across active opportunities
	AverageRiskScore     float64
	ExecutionSuccessRate float64
}

// Manager orchestrates the detection engine, profitability calculator, and
// execution planner behind the system's public surface.
type Manager struct {
	engine     *detapp.Engine
	calculator *profitapp.Calculator
	planner    *execapp.Planner
	reporter   Reporter
	stats      *arbdomain.Stats
	config     ManagerConfig
	logger     *slog.Logger

	mu      sync.RWMutex
	started bool
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewManager wires the manager over its collaborators.
func NewManager(engine *detapp.Engine, calculator *profitapp.Calculator, planner *execapp.Planner, reporter Reporter, cfg ManagerConfig, logger *slog.Logger) *Manager {
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 5 * time.Second
	}
	return &Manager{
		engine:     engine,
		calculator: calculator,
		planner:    planner,
		reporter:   reporter,
		stats:      arbdomain.NewStats(),
		config:     cfg,
		logger:     logger,
	}
}

// Start brings the system up: reporter first, then the scan loop when
// monitoring is enabled. Idempotent.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	if err := m.reporter.Start(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, "reporter start")
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.stopped = make(chan struct{})

	if m.config.MonitoringEnabled {
		m.engine.StartMonitoring(ctx)
	}
	go m.reportLoop(ctx)

	m.started = true
	m.logger.Info("arbitrage system started",
		"monitoring", m.config.MonitoringEnabled,
		"min_profit", m.config.MinProfitThreshold,
		"max_risk", m.config.MaxRiskScore)
	return nil
}

// Stop shuts monitoring down. In-flight execution plans run to their
// terminal state; only scanning and reporting stop.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}

	m.engine.StopMonitoring()
	m.cancel()
	<-m.stopped
	err := m.reporter.Stop()

	m.started = false
	m.logger.Info("arbitrage system stopped")
	return err
}

// reportLoop periodically feeds the reporter with fresh opportunities and
// stats so the UI reflects the live system. The detection total advances by
// the engine's counter delta, so each scan pass counts once no matter how
// many report ticks an opportunity lives through, and threshold-filtered
// opportunities still count as detected.
func (m *Manager) reportLoop(ctx context.Context) {
	defer close(m.stopped)
	ticker := time.NewTicker(m.config.ReportInterval)
	defer ticker.Stop()

	var reported int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			detected := m.engine.DetectionsTotal()
			m.stats.RecordDetections(int(detected - reported))
			reported = detected

			for _, opp := range m.filterOpportunities(m.engine.ActiveOpportunities()) {
				m.reporter.ReportOpportunity(opp)
			}
			m.reporter.UpdateStats(m.stats.Snapshot())
		}
	}
}

func (m *Manager) requireStarted() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.started {
		return apperror.New(apperror.CodeManagerNotInitialized)
	}
	return nil
}

// AddPool registers a pool for monitoring.
func (m *Manager) AddPool(ctx context.Context, address string, tokenX, tokenY token.Token) error {
	if err := m.requireStarted(); err != nil {
		return err
	}
	return m.engine.AddPool(ctx, address, tokenX, tokenY)
}

// RemovePool unregisters a pool.
func (m *Manager) RemovePool(address string) error {
	if err := m.requireStarted(); err != nil {
		return err
	}
	m.engine.RemovePool(address)
	return nil
}

// ActiveOpportunities returns the engine's fresh opportunities that pass the
// configured profit and risk thresholds.
func (m *Manager) ActiveOpportunities() ([]detdomain.Opportunity, error) {
	if err := m.requireStarted(); err != nil {
		return nil, err
	}
	return m.filterOpportunities(m.engine.ActiveOpportunities()), nil
}

func (m *Manager) filterOpportunities(opps []detdomain.Opportunity) []detdomain.Opportunity {
	filtered := make([]detdomain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if opp.Profit.NetProfit.LessThan(m.config.MinProfitThreshold) {
			continue
		}
		if opp.Risk.Score() > m.config.MaxRiskScore {
			continue
		}
		filtered = append(filtered, opp)
	}
	return filtered
}

// ExecuteArbitrage analyzes the opportunity at the given amount, creates an
// execution plan, drives it to a terminal state, and folds the outcome into
// the running stats. Execution errors after capital has moved are surfaced
// with full context.
func (m *Manager) ExecuteArbitrage(ctx context.Context, opp detdomain.Opportunity, amount decimal.Decimal) (execdomain.Results, error) {
	if err := m.requireStarted(); err != nil {
		return execdomain.Results{}, err
	}

	analysis := m.calculator.DetailedProfitability(opp, amount, nil)

	if analysis.Base.NetProfit.LessThan(m.config.MinProfitThreshold) {
		return execdomain.Results{}, apperror.New(apperror.CodeInsufficientProfitability,
			apperror.WithContextf("net profit %s below threshold %s",
				analysis.Base.NetProfit.StringFixed(4), m.config.MinProfitThreshold))
	}
	if opp.Risk.Score() > m.config.MaxRiskScore {
		return execdomain.Results{}, apperror.New(apperror.CodeInsufficientProfitability,
			apperror.WithContextf("risk score %.2f above limit %.2f",
				opp.Risk.Score(), m.config.MaxRiskScore))
	}

	plan, err := m.planner.CreatePlan(opp, analysis, execdomain.Preferences{
		RequireMEVProtection: m.config.EnableMEVProtection,
	})
	if err != nil {
		return execdomain.Results{}, err
	}

	results, execErr := m.planner.ExecutePlan(ctx, plan.ID)
	m.stats.RecordExecution(results.Success, results.RealizedProfit, results.ExecutionTime, results.MEVHeld)
	m.reporter.ReportExecution(results)
	m.reporter.UpdateStats(m.stats.Snapshot())

	return results, execErr
}

// Stats returns a snapshot of the running statistics.
func (m *Manager) Stats() arbdomain.StatsSnapshot {
	return m.stats.Snapshot()
}

// SystemHealth summarizes the system for operational dashboards. Readable
// regardless of whether the system is started.
func (m *Manager) SystemHealth() SystemHealth {
	m.mu.RLock()
	running := m.started
	m.mu.RUnlock()

	opps := m.filterOpportunities(m.engine.ActiveOpportunities())

	var aggregate decimal.Decimal
	var riskSum float64
	for _, opp := range opps {
		aggregate = aggregate.Add(opp.Profit.NetProfit)
		riskSum += opp.Risk.Score()
	}

	health := SystemHealth{
		Running:              running,
		MonitoredPools:       m.engine.PoolCount(),
		ActiveOpportunities:  len(opps),
		AggregateProfit:      aggregate,
		ExecutionSuccessRate: m.stats.Snapshot().SuccessRate,
	}
	if len(opps) > 0 {
		health.AverageRiskScore = riskSum / float64(len(opps))
	}
	return health
}
