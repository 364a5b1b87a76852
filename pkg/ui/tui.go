package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	arbdomain "github.com/vortexdefi/dlmm-arb/business/arbitrage/domain"
	detdomain "github.com/vortexdefi/dlmm-arb/business/detection/domain"
)

const maxLogLines = 8

var hundred = decimal.NewFromInt(100)

// Model is the root Bubble Tea model: an opportunities table, a stats
// summary, and a short log tail.
type Model struct {
	keys KeyMap
	help help.Model

	opportunities table.Model
	byKey         map[uint64]detdomain.Opportunity

	stats  arbdomain.StatsSnapshot
	logs   []string
	paused bool
	width  int
}

// NewModel creates the root TUI model.
func NewModel() Model {
	columns := []table.Column{
		{Title: "Type", Width: 10},
		{Title: "Route", Width: 28},
		{Title: "Net Profit", Width: 12},
		{Title: "Margin", Width: 8},
		{Title: "Risk", Width: 8},
		{Title: "Age", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(ColorPrimary)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(ColorBorder)
	t.SetStyles(styles)

	return Model{
		keys:          DefaultKeyMap(),
		help:          help.New(),
		opportunities: t,
		byKey:         make(map[uint64]detdomain.Opportunity),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.byKey = make(map[uint64]detdomain.Opportunity)
			m.opportunities.SetRows(nil)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case OpportunityMsg:
		if !m.paused {
			m.byKey[msg.Opportunity.Key()] = msg.Opportunity
			m.rebuildRows()
		}

	case ExecutionMsg:
		r := msg.Results
		switch {
		case r.Success:
			m.appendLog(PositiveValue.Render(
				fmt.Sprintf("plan %s completed, profit %s", shortID(r.PlanID), r.RealizedProfit.StringFixed(4))))
		case r.RolledBack:
			m.appendLog(WarnValue.Render(
				fmt.Sprintf("plan %s rolled back at step %d", shortID(r.PlanID), r.FailedStep)))
		default:
			m.appendLog(NegativeValue.Render(
				fmt.Sprintf("plan %s failed at step %d", shortID(r.PlanID), r.FailedStep)))
		}

	case StatsMsg:
		m.stats = msg.Snapshot

	case LogMsg:
		style := MutedValue
		switch msg.Level {
		case "warn":
			style = WarnValue
		case "error":
			style = NegativeValue
		}
		m.appendLog(style.Render(msg.Message))

	case ErrorMsg:
		m.appendLog(NegativeValue.Render(msg.Error.Error()))
	}

	var cmd tea.Cmd
	m.opportunities, cmd = m.opportunities.Update(msg)
	return m, cmd
}

func (m *Model) rebuildRows() {
	now := time.Now()
	opps := make([]detdomain.Opportunity, 0, len(m.byKey))
	for key, opp := range m.byKey {
		if now.Sub(opp.DetectedAt) > time.Minute {
			delete(m.byKey, key)
			continue
		}
		opps = append(opps, opp)
	}

	rows := make([]table.Row, 0, len(opps))
	for _, opp := range opps {
		rows = append(rows, table.Row{
			string(opp.Type),
			opp.Path.String(),
			opp.Profit.NetProfit.StringFixed(4),
			opp.Profit.Margin.Mul(hundred).StringFixed(2) + "%",
			string(opp.Risk.Level()),
			fmt.Sprintf("%ds", int(now.Sub(opp.DetectedAt).Seconds())),
		})
	}
	m.opportunities.SetRows(rows)
}

func (m *Model) appendLog(line string) {
	m.logs = append(m.logs, fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), line))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "DLMM Arbitrage"
	if m.paused {
		title += " [paused]"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Opportunities"))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.opportunities.View()))
	b.WriteString("\n\n")

	b.WriteString(HeaderStyle.Render("Stats"))
	b.WriteString("\n")
	b.WriteString(BoxStyle.Render(m.statsView()))
	b.WriteString("\n\n")

	if len(m.logs) > 0 {
		b.WriteString(HeaderStyle.Render("Activity"))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(strings.Join(m.logs, "\n")))
		b.WriteString("\n\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) statsView() string {
	s := m.stats
	return fmt.Sprintf(
		"detected: %d   attempts: %d   succeeded: %d\nprofit: %s   success: %.0f%%   mev held: %.0f%%   avg exec: %s",
		s.OpportunitiesDetected, s.ExecutionsAttempted, s.ExecutionsSucceeded,
		s.TotalProfit.StringFixed(2), s.SuccessRate*100, s.MEVEffectiveness*100,
		s.AvgExecutionTime.Round(time.Millisecond),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Run starts the TUI program and blocks until it exits.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// NewProgram creates the TUI program without starting it, so callers can
// Send messages into it.
func NewProgram() *tea.Program {
	return tea.NewProgram(NewModel(), tea.WithAltScreen())
}
