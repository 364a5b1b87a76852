// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
)

var hundred = decimal.NewFromInt(100)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "DLMM Arbitrage System Started")
	fmt.Fprintln(r.out, "=============================")
	return nil
}

// ReportOpportunity outputs a detected opportunity to the console.
func (r *ConsoleReporter) ReportOpportunity(opp detdomain.Opportunity) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Detected:       %s\n", opp.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Type:           %s\n", opp.Type)
	fmt.Fprintf(r.out, "Route:          %s (%d hops)\n", opp.Path.String(), opp.Path.HopCount())
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Gross:          %s %s\n", opp.Profit.GrossProfit.StringFixed(4), opp.InputToken.Symbol)
	fmt.Fprintf(r.out, "  Costs:          %s %s\n", opp.Profit.TotalCosts.StringFixed(4), opp.InputToken.Symbol)
	fmt.Fprintf(r.out, "  Net:            %s %s (%s%%)\n",
		opp.Profit.NetProfit.StringFixed(4), opp.InputToken.Symbol,
		opp.Profit.Margin.Mul(hundred).StringFixed(2))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "RISK")
	fmt.Fprintf(r.out, "  Level:          %s (score %.2f, confidence %.2f)\n",
		opp.Risk.Level(), opp.Risk.Score(), opp.Confidence)
	for _, factor := range opp.Risk.Factors {
		fmt.Fprintf(r.out, "  - %s\n", factor)
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// ReportExecution outputs a plan's terminal results.
func (r *ConsoleReporter) ReportExecution(results execdomain.Results) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintf(r.out, "[%s] plan %s: ", time.Now().Format("15:04:05"), results.PlanID)
	switch {
	case results.Success:
		fmt.Fprintf(r.out, "COMPLETED profit=%s took=%s mev_held=%t\n",
			results.RealizedProfit.StringFixed(4), results.ExecutionTime, results.MEVHeld)
	case results.RolledBack:
		fmt.Fprintf(r.out, "ROLLED BACK failed_step=%d took=%s\n",
			results.FailedStep, results.ExecutionTime)
	default:
		fmt.Fprintf(r.out, "FAILED failed_step=%d\n", results.FailedStep)
	}
	for _, step := range results.Steps {
		kind := "step"
		if step.Rollback {
			kind = "rollback"
		}
		fmt.Fprintf(r.out, "  %s %d: %s\n", kind, step.StepIndex, step.TxRef)
	}
}

// UpdateStats outputs the running statistics line.
func (r *ConsoleReporter) UpdateStats(s arbdomain.StatsSnapshot) {
	fmt.Fprintf(r.out, "[%s] detected=%d attempts=%d succeeded=%d profit=%s success_rate=%.0f%%\n",
		time.Now().Format("15:04:05"),
		s.OpportunitiesDetected, s.ExecutionsAttempted, s.ExecutionsSucceeded,
		s.TotalProfit.StringFixed(2), s.SuccessRate*100)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "DLMM Arbitrage System Stopped")
	return nil
}
