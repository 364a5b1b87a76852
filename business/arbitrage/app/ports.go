// Package app contains the arbitrage manager orchestrating detection,
// profitability analysis, and execution.
package app

import (
	"context"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
)

// Reporter receives user-facing events from the manager. Implementations
// must not block: the manager calls them from its monitoring loop.
type Reporter interface {
	Start(ctx context.Context) error
	ReportOpportunity(opp detdomain.Opportunity)
	ReportExecution(results execdomain.Results)
	UpdateStats(snapshot arbdomain.StatsSnapshot)
	Stop() error
}
