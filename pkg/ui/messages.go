// Package ui provides the Bubble Tea TUI for the arbitrage system.
package ui

import (
	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
	execdomain "github.com/vortexdefi/dlmm-arb/business/execution/domain"
)

// Message types for TUI updates

// OpportunityMsg is sent when an arbitrage opportunity is detected.
type OpportunityMsg struct {
	Opportunity detdomain.Opportunity
}

// ExecutionMsg is sent when a plan reaches a terminal state.
type ExecutionMsg struct {
	Results execdomain.Results
}

// StatsMsg is sent with the latest running statistics.
type StatsMsg struct {
	Snapshot arbdomain.StatsSnapshot
}

// LogMsg is sent to display a log line in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}
