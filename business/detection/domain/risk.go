package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RiskLevel is the aggregate classification of an assessment.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

// RiskAssessment scores five independent risk components, each in [0, 1].
type RiskAssessment struct {
	Liquidity   float64 // inverse of minimum pool depth along the path
	Slippage    float64 // maximum per-hop price impact
	MEV         float64 // contestedness, scaled by expected profit size
	Temporal    float64 // edge decay, derived from path complexity
	Competition float64 // observed activity pressure

	// Factors lists human-readable contributors to the score.
	Factors []string
}

// Score returns the mean of the five components.
func (r RiskAssessment) Score() float64 {
	return (r.Liquidity + r.Slippage + r.MEV + r.Temporal + r.Competition) / 5
}

// Level classifies the aggregate score.
func (r RiskAssessment) Level() RiskLevel {
	score := r.Score()
	switch {
	case score < 0.25:
		return RiskLow
	case score < 0.5:
		return RiskMedium
	case score < 0.75:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

// RiskEstimator scores the risk of executing a candidate path for a given
// expected gross profit. Implementations must be deterministic for identical
// inputs so detection stays reproducible.
type RiskEstimator interface {
	Assess(path Path, grossProfit decimal.Decimal) RiskAssessment
}

// HeuristicEstimator is the default estimator. Competition and liquidity
// pressure are heuristics derived from path shape and profit magnitude, not
// from historical data; deployments with real flow data should substitute
// their own RiskEstimator.
type HeuristicEstimator struct {
	// ReferenceDepth is the pool depth (quote units) at which liquidity
	// risk reaches 0.5.
	ReferenceDepth decimal.Decimal

	// ReferenceProfit is the gross profit at which MEV risk reaches 0.5.
	ReferenceProfit decimal.Decimal
}

// NewHeuristicEstimator returns an estimator with default reference points.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{
		ReferenceDepth:  decimal.NewFromInt(100_000),
		ReferenceProfit: decimal.NewFromInt(500),
	}
}

var _ RiskEstimator = (*HeuristicEstimator)(nil)

// Assess scores the path deterministically.
func (e *HeuristicEstimator) Assess(path Path, grossProfit decimal.Decimal) RiskAssessment {
	r := RiskAssessment{
		Liquidity:   e.liquidityRisk(path),
		Slippage:    e.slippageRisk(path),
		MEV:         saturating(grossProfit, e.ReferenceProfit),
		Temporal:    temporalRisk(path.Complexity()),
		Competition: e.competitionRisk(path, grossProfit),
	}

	if r.Liquidity >= 0.5 {
		r.Factors = append(r.Factors, "shallow pool depth along route")
	}
	if r.Slippage >= 0.5 {
		r.Factors = append(r.Factors, "high per-hop price impact")
	}
	if r.MEV >= 0.5 {
		r.Factors = append(r.Factors, "profit size likely to attract searchers")
	}
	if path.Complexity() == ComplexityComplex {
		r.Factors = append(r.Factors, fmt.Sprintf("%d-hop route decays quickly", path.HopCount()))
	}
	return r
}

// liquidityRisk rises toward 1 as the shallowest pool's depth falls toward
// zero, crossing 0.5 at ReferenceDepth.
func (e *HeuristicEstimator) liquidityRisk(path Path) float64 {
	min := path.ShallowestLiquidity()
	if min.Sign() <= 0 {
		return 1
	}
	ratio, _ := min.Div(min.Add(e.ReferenceDepth)).Float64()
	return clamp01(1 - ratio)
}

// slippageRisk maps the worst per-hop impact onto [0,1], saturating at 5%.
func (e *HeuristicEstimator) slippageRisk(path Path) float64 {
	var max decimal.Decimal
	for _, s := range path.Steps {
		if s.Impact.GreaterThan(max) {
			max = s.Impact
		}
	}
	f, _ := max.Float64()
	return clamp01(f / 0.05)
}

// competitionRisk combines route visibility (short routes are easier for
// competitors to spot) with profit magnitude.
func (e *HeuristicEstimator) competitionRisk(path Path, grossProfit decimal.Decimal) float64 {
	base := 0.5 - 0.1*float64(path.HopCount()-2)
	return clamp01(base + 0.4*saturating(grossProfit, e.ReferenceProfit))
}

func temporalRisk(c Complexity) float64 {
	switch c {
	case ComplexitySimple:
		return 0.2
	case ComplexityModerate:
		return 0.5
	default:
		return 0.8
	}
}

// saturating maps v onto [0,1) via v/(v+ref), returning 0 for non-positive v.
func saturating(v, ref decimal.Decimal) float64 {
	if v.Sign() <= 0 {
		return 0
	}
	f, _ := v.Div(v.Add(ref)).Float64()
	return clamp01(f)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
