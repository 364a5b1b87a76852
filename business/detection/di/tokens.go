// Package di contains dependency injection tokens for the detection context.
package di

import (
	"github.com/vortexdefi/dlmm-arb/business/detection/app"
	"github.com/vortexdefi/dlmm-arb/business/detection/domain"
	"github.com/vortexdefi/dlmm-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	DetectionEngine = di.NewToken[*app.Engine]("detection.Engine")
)

// Private dependency tokens - internal to detection module
var (
	RiskEstimator = di.NewToken[domain.RiskEstimator]("detection:riskEstimator")
)

// Helper functions for type-safe access
func GetDetectionEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, DetectionEngine)
}

func GetRiskEstimator(c di.ServiceRegistry) domain.RiskEstimator {
	return di.GetToken(c, RiskEstimator)
}
