// Package domain contains the manager-owned running statistics.
package domain

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// emaAlpha weights new observations at one half, so the averages react to
// recent behavior within a couple of executions while keeping some history.
const emaAlpha = 0.5

// StatsSnapshot is an immutable copy of the running statistics.
type StatsSnapshot struct {
	OpportunitiesDetected int64
	ExecutionsAttempted   int64
	ExecutionsSucceeded   int64
	TotalProfit           decimal.Decimal

	AvgExecutionTime   time.Duration
	SuccessRate        float64 // running average in [0,1]
	MEVEffectiveness   float64 // running average in [0,1]
	RiskAdjustedReturn float64 // average profit per attempt scaled by success rate
}

// Stats accumulates process-wide execution statistics. Reset only on
// restart. Safe under concurrent execution completions.
type Stats struct {
	mu sync.Mutex

	opportunitiesDetected int64
	executionsAttempted   int64
	executionsSucceeded   int64
	totalProfit           decimal.Decimal

	avgExecSeconds   float64
	successRate      float64
	mevEffectiveness float64
	avgProfit        float64

	seeded bool
}

// NewStats creates empty statistics.
func NewStats() *Stats {
	return &Stats{}
}

// RecordDetections adds to the monotonic detection total.
func (s *Stats) RecordDetections(n int) {
	s.mu.Lock()
	s.opportunitiesDetected += int64(n)
	s.mu.Unlock()
}

// RecordExecution folds one execution attempt into the running averages.
func (s *Stats) RecordExecution(success bool, profit decimal.Decimal, execTime time.Duration, mevHeld bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executionsAttempted++
	if success {
		s.executionsSucceeded++
		s.totalProfit = s.totalProfit.Add(profit)
	}

	successObs := 0.0
	if success {
		successObs = 1.0
	}
	mevObs := 0.0
	if mevHeld {
		mevObs = 1.0
	}
	profitObs := profit.InexactFloat64()
	if !success {
		profitObs = 0
	}

	if !s.seeded {
		s.avgExecSeconds = execTime.Seconds()
		s.successRate = successObs
		s.mevEffectiveness = mevObs
		s.avgProfit = profitObs
		s.seeded = true
		return
	}

	s.avgExecSeconds = ema(s.avgExecSeconds, execTime.Seconds())
	s.successRate = ema(s.successRate, successObs)
	s.mevEffectiveness = ema(s.mevEffectiveness, mevObs)
	s.avgProfit = ema(s.avgProfit, profitObs)
}

func ema(prev, obs float64) float64 {
	return emaAlpha*obs + (1-emaAlpha)*prev
}

// Snapshot returns a consistent copy of the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		OpportunitiesDetected: s.opportunitiesDetected,
		ExecutionsAttempted:   s.executionsAttempted,
		ExecutionsSucceeded:   s.executionsSucceeded,
		TotalProfit:           s.totalProfit,
		AvgExecutionTime:      time.Duration(s.avgExecSeconds * float64(time.Second)),
		SuccessRate:           s.successRate,
		MEVEffectiveness:      s.mevEffectiveness,
		RiskAdjustedReturn:    s.avgProfit * s.successRate,
	}
}
