// Package tui shows a running simulation's arrival counts in the terminal.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivierh59500/sankey-flow-go/internal/chart"
	"github.com/olivierh59500/sankey-flow-go/internal/config"
	"github.com/olivierh59500/sankey-flow-go/internal/ui"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#91A767")).
			MarginLeft(2).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e8754b")).
			Bold(true)

	tableBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#666666")).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

const barWidth = 20

type keyMap struct {
	Pause   key.Binding
	Restart key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Restart, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause, k.Restart, k.Quit}}
}

type tickMsg time.Time

// Model is the bubbletea model. Each tick message runs StepsPerTick steps.
type Model struct {
	sim          *chart.Simulation
	cfg          *config.Config
	table        table.Model
	help         help.Model
	interval     time.Duration
	StepsPerTick int
	Paused       bool
	err          error
}

// New builds the model for sim.
func New(sim *chart.Simulation, cfg *config.Config) Model {
	columns := []table.Column{
		{Title: "Leaf", Width: 24},
		{Title: "Group", Width: 12},
		{Title: "Count", Width: 7},
		{Title: "Share", Width: 7},
		{Title: "", Width: barWidth},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(len(sim.Chart().Sampler.Targets())+3),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#666666")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.NoColor{}).Bold(false)
	t.SetStyles(s)

	m := Model{
		sim:          sim,
		cfg:          cfg,
		table:        t,
		help:         help.New(),
		interval:     time.Second / time.Duration(cfg.Window.TPS),
		StepsPerTick: 1,
	}
	m.refresh()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the ticker.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles keys and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Pause):
			m.Paused = !m.Paused
		case key.Matches(msg, keys.Restart):
			m.sim.Restart()
			m.err = nil
			m.refresh()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if !m.Paused {
			for i := 0; i < m.StepsPerTick; i++ {
				if _, err := m.sim.Step(); err != nil {
					m.err = err
				}
			}
			m.refresh()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) refresh() {
	counter := m.sim.Counter()
	rows := make([]table.Row, 0)
	for _, a := range counter.Snapshot() {
		rows = append(rows, table.Row{
			strings.TrimPrefix(a.Leaf, "/"),
			m.cfg.GroupLabel(a.Group),
			strconv.Itoa(a.Count),
			fmt.Sprintf("%.1f%%", a.Share*100),
			ui.Bar(a.Share, barWidth),
		})
	}
	m.table.SetRows(rows)
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("sankeyflow watch"))
	b.WriteString("\n")

	state := m.sim.State()
	status := fmt.Sprintf("run %s  tick %d  live %d  arrived %d/%d",
		m.sim.RunID()[:8], m.sim.Elapsed(), state.Live(), state.Arrived,
		m.sim.Chart().Engine.Config().TotalParticles)
	if m.Paused {
		status += "  " + pausedStyle.Render("paused")
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(tableBoxStyle.Render(m.table.View()))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help.View(keys)))
	return b.String()
}

// Run drives the model until the user quits.
func Run(sim *chart.Simulation, cfg *config.Config, stepsPerTick int) error {
	m := New(sim, cfg)
	if stepsPerTick > 0 {
		m.StepsPerTick = stepsPerTick
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
