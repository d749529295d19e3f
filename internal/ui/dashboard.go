package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AllowanceRow holds one token's classified allowance for the dashboard.
type AllowanceRow struct {
	Symbol    string
	Address   string
	Amount    string // human-formatted, "—" when not read yet
	Tier      string // "LOW" | "MEDIUM" | "HIGH" | ""
	Unlimited bool
}

// DashboardFetcher produces the current rows, ordered by risk when asked.
type DashboardFetcher func(sortByRisk bool) ([]AllowanceRow, error)

// dashboardModel is the Bubble Tea model for the live allowance dashboard.
type dashboardModel struct {
	account    string
	spender    string
	rows       []AllowanceRow
	sortByRisk bool
	refreshing bool
	spin       spinner.Model
	lastUpdate time.Time
	quitting   bool
	fetcher    DashboardFetcher
	err        string
}

type rowsFetchedMsg []AllowanceRow
type fetchErrorMsg string

// NewDashboard creates a Bubble Tea program for the allowance dashboard.
// r refreshes, s toggles risk sorting, q quits.
func NewDashboard(account, spender string, sortByRisk bool, fetcher DashboardFetcher) *tea.Program {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorSpender)

	m := dashboardModel{
		account:    account,
		spender:    spender,
		sortByRisk: sortByRisk,
		refreshing: true,
		spin:       sp,
		fetcher:    fetcher,
	}
	return tea.NewProgram(m)
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.spin.Tick)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, tea.Batch(m.fetchCmd(), m.spin.Tick)
			}
		case "s":
			m.sortByRisk = !m.sortByRisk
			if !m.refreshing {
				m.refreshing = true
				return m, tea.Batch(m.fetchCmd(), m.spin.Tick)
			}
		}

	case rowsFetchedMsg:
		m.rows = []AllowanceRow(msg)
		m.lastUpdate = time.Now()
		m.refreshing = false
		m.err = ""

	case fetchErrorMsg:
		m.err = string(msg)
		m.refreshing = false

	case spinner.TickMsg:
		if m.refreshing {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("⛽ Allowance Dashboard") + "\n")
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Owner %s · Spender %s\n",
		TruncateAddr(m.account), TruncateAddr(m.spender))))

	sortLabel := "registry order"
	if m.sortByRisk {
		sortLabel = "risk order"
	}
	status := fmt.Sprintf("Updated: %s · %s · r refresh · s sort · q quit\n\n",
		m.lastUpdate.Format("15:04:05"), sortLabel)
	if m.refreshing {
		status = m.spin.View() + " reading allowances...\n\n"
	}
	sb.WriteString(StyleMeta.Render(status))

	if m.err != "" {
		sb.WriteString(Err(m.err) + "\n")
	}

	if len(m.rows) == 0 {
		if !m.refreshing {
			sb.WriteString(StyleMeta.Render("No tokens tracked.") + "\n")
		}
		return sb.String()
	}

	t := NewTable([]Column{
		{Title: "Token", Width: 12},
		{Title: "Address", Width: 14},
		{Title: "Allowance", Width: 24},
		{Title: "Risk", Width: 10},
	})
	for _, row := range m.rows {
		amount := row.Amount
		if row.Unlimited {
			amount = "∞ unlimited"
		}
		t.AddRow(Row{
			row.Symbol,
			TruncateAddr(row.Address),
			amount,
			RiskBadge(row.Tier),
		})
	}
	sb.WriteString(t.Render())
	return sb.String()
}

func (m dashboardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.fetcher(m.sortByRisk)
		if err != nil {
			return fetchErrorMsg(err.Error())
		}
		return rowsFetchedMsg(rows)
	}
}
