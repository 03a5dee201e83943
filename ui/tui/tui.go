// Copyright (c) 2025 the graphseed authors
// graphseed - GraphDB repository provisioning and RDF import tool
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the interactive status dashboard shown when
// graphseed is run without a subcommand. It renders server health, the
// declared repositories and recent imports, refreshing on demand.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spendcast/graphseed/internal/config"
	"github.com/spendcast/graphseed/internal/core"
	"github.com/spendcast/graphseed/internal/i18n"
	"github.com/spendcast/graphseed/internal/logging"
	"github.com/spendcast/graphseed/internal/model"
)

// colorPalette defines the core colors used in the dashboard.
const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // A nice teal/cyan
	colorError     = lipgloss.Color("196") // A bright red
	colorSuccess   = lipgloss.Color("40")  // A nice green
	colorSpecial   = lipgloss.Color("208") // An orange for special attention
)

var (
	docStyle   = lipgloss.NewStyle().Margin(1, 2)
	titleStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	okStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	errStyle   = lipgloss.NewStyle().Foreground(colorError)
	warnStyle  = lipgloss.NewStyle().Foreground(colorSpecial)
)

// refreshInterval is the automatic refresh cadence of the dashboard.
const refreshInterval = 10 * time.Second

// dashboardMsg carries freshly loaded dashboard data.
type dashboardMsg struct {
	data core.DashboardData
	err  error
}

// tickMsg triggers a periodic refresh.
type tickMsg time.Time

// dashboardModel is the bubbletea model for the dashboard.
type dashboardModel struct {
	store  core.Store
	client core.GraphClient
	cfg    *config.Config

	table  table.Model
	data   core.DashboardData
	notice string
	err    error
	width  int
	height int
}

// Run starts the dashboard. It blocks until the user quits.
func Run(st core.Store, gc core.GraphClient, cfg *config.Config) {
	m := newDashboardModel(st, gc, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logging.Errorf("dashboard error: %v", err)
	}
}

func newDashboardModel(st core.Store, gc core.GraphClient, cfg *config.Config) dashboardModel {
	columns := []table.Column{
		{Title: i18n.T("tui.col_repository"), Width: 24},
		{Title: i18n.T("tui.col_state"), Width: 12},
		{Title: i18n.T("tui.col_size"), Width: 12},
		{Title: i18n.T("tui.col_last_import"), Width: 18},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(colorHighlight)
	s.Selected = s.Selected.Foreground(lipgloss.Color("231")).Background(colorSubtle)
	t.SetStyles(s)

	return dashboardModel{store: st, client: gc, cfg: cfg, table: t}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func (m dashboardModel) refreshCmd() tea.Cmd {
	st, gc, cfg := m.store, m.client, m.cfg
	endpoint := cfg.GraphDB.URL
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		data, err := core.BuildDashboardData(ctx, st, gc, cfg, endpoint)
		return dashboardMsg{data: data, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "c":
			endpoint := m.cfg.GraphDB.URL
			if err := clipboard.WriteAll(endpoint); err != nil {
				m.notice = i18n.T("tui.copy_failed", err)
			} else {
				m.notice = i18n.T("tui.copied", endpoint)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(maxInt(4, msg.Height-14))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tickCmd())

	case dashboardMsg:
		m.data = msg.data
		m.err = msg.err
		m.table.SetRows(repoRows(msg.data.Repositories))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func repoRows(repos []model.RepoStatus) []table.Row {
	rows := make([]table.Row, 0, len(repos))
	for _, rs := range repos {
		size := "-"
		if rs.Size >= 0 {
			size = fmt.Sprintf("%d", rs.Size)
		}
		last := "-"
		if rs.LastImport != nil {
			last = rs.LastImport.ImportedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, table.Row{rs.RepoID, string(rs.State), size, last})
	}
	return rows
}

func (m dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(i18n.T("tui.title")))
	b.WriteString("\n\n")

	health := errStyle.Render(i18n.T("tui.health_down"))
	if m.data.Healthy {
		health = okStyle.Render(i18n.T("tui.health_up", m.data.ProtocolVersion))
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", m.data.Endpoint, health))
	b.WriteString(fmt.Sprintf("%s\n\n",
		i18n.T("tui.repo_summary", m.data.RepoOK, m.data.RepoMissing, m.data.RepoUndeclared)))

	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if len(m.data.RecentImports) > 0 {
		b.WriteString(titleStyle.Render(i18n.T("tui.recent_imports")))
		b.WriteString("\n")
		for _, rec := range m.data.RecentImports {
			line := fmt.Sprintf("%s  %s  %s", rec.ImportedAt.Format("01-02 15:04"), rec.String(), rec.Status)
			switch rec.Status {
			case model.ImportStatusFailed:
				line = errStyle.Render(line)
			case model.ImportStatusSkipped:
				line = warnStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(helpStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(i18n.T("tui.help")))
	return docStyle.Render(b.String())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
