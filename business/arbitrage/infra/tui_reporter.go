package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
	"github.com/vortexdefi/dlmm-arb/pkg/ui"
)

// TUIReporter implements Reporter by forwarding events into the Bubble Tea
// program as messages. Send is non-blocking once the program runs.
type TUIReporter struct {
	program *tea.Program
	done    chan error
}

// NewTUIReporter creates a reporter around a fresh TUI program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{
		program: ui.NewProgram(),
		done:    make(chan error, 1),
	}
}

// Start launches the Bubble Tea program in the background.
func (r *TUIReporter) Start(ctx context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.done <- err
	}()
	return nil
}

// Done signals when the TUI exits (e.g. the user pressed quit).
func (r *TUIReporter) Done() <-chan error {
	return r.done
}

// ReportOpportunity forwards a detected opportunity to the TUI.
func (r *TUIReporter) ReportOpportunity(opp detdomain.Opportunity) {
	r.program.Send(ui.OpportunityMsg{Opportunity: opp})
}

// ReportExecution forwards a plan's terminal results to the TUI.
func (r *TUIReporter) ReportExecution(results execdomain.Results) {
	r.program.Send(ui.ExecutionMsg{Results: results})
}

// UpdateStats forwards the running statistics to the TUI.
func (r *TUIReporter) UpdateStats(snapshot arbdomain.StatsSnapshot) {
	r.program.Send(ui.StatsMsg{Snapshot: snapshot})
}

// Stop shuts the TUI down.
func (r *TUIReporter) Stop() error {
	r.program.Quit()
	return nil
}
