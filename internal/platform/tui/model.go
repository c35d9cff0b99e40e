package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/multiplayer"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// Console layout constants
const (
	refreshInterval = 250 * time.Millisecond
	minMapWidth     = 24
	minMapHeight    = 8
	sessionTableW   = 62
)

// SessionSource is the part of the coordinator the console reads from.
type SessionSource interface {
	Sessions() []multiplayer.SessionSummary
	GetSessionSnapshot(sessionID string) (world.Snapshot, error)
	DestroySession(sessionID string) error
}

type consoleView int

const (
	viewSessions consoleView = iota
	viewResults
)

// Model is the Bubble Tea model of the operator console.
type Model struct {
	source   SessionSource
	results  ResultSource
	bounds   core.Bounds
	sessions []multiplayer.SessionSummary
	snapshot *world.Snapshot
	table    table.Model
	board    resultsBoard
	screen   *core.Screen
	help     help.Model
	keys     KeyMap
	view     consoleView
	status   string
	width    int
	height   int
	quitting bool
}

// NewModel creates a console over source. results may be nil when no
// database is configured.
func NewModel(source SessionSource, results ResultSource, bounds core.Bounds, width, height int) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		source:  source,
		results: results,
		bounds:  bounds,
		help:    h,
		keys:    DefaultKeyMap(),
		width:   width,
		height:  height,
	}
	m.table = m.createTable()
	m.board = newResultsBoard(width, height)
	m.screen = core.NewScreen(m.mapSize())
	m.reload()
	return m
}

func (m Model) mapSize() (int, int) {
	w := max(m.width-sessionTableW-8, minMapWidth)
	h := max(m.height-8, minMapHeight)
	return w, h
}

func (m *Model) createTable() table.Model {
	columns := []table.Column{
		{Title: "Session", Width: 10},
		{Title: "Status", Width: 12},
		{Title: "Section", Width: 10},
		{Title: "Players", Width: 8},
		{Title: "Enemies", Width: 8},
		{Title: "Version", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// reload re-reads the session list and the snapshot of the selected session.
func (m *Model) reload() {
	m.sessions = m.source.Sessions()
	rows := make([]table.Row, len(m.sessions))
	for i, s := range m.sessions {
		rows[i] = table.Row{
			shortID(s.ID),
			s.Status,
			s.SectionID,
			fmt.Sprintf("%d/%d", s.Connected, s.Players),
			fmt.Sprintf("%d", s.Enemies),
			fmt.Sprintf("%d", s.Version),
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
	m.loadSnapshot()
}

func (m *Model) loadSnapshot() {
	m.snapshot = nil
	id := m.SelectedID()
	if id == "" {
		return
	}
	snap, err := m.source.GetSessionSnapshot(id)
	if err != nil {
		return
	}
	m.snapshot = &snap
}

// SelectedID returns the id of the highlighted session, or "".
func (m Model) SelectedID() string {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.sessions) {
		return ""
	}
	return m.sessions[c].ID
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return refreshCmd(refreshInterval)
}

// Update handles messages for the console.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case RefreshMsg:
		m.reload()
		if m.view == viewResults {
			m.board.load(m.results)
		}
		return m, refreshCmd(refreshInterval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.board.resize(msg.Width, msg.Height)
		m.screen.Resize(m.mapSize())
		m.help.Width = msg.Width
		m.reload()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Switch):
			if m.view == viewSessions {
				m.view = viewResults
				m.board.load(m.results)
			} else {
				m.view = viewSessions
			}
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.reload()
			return m, nil

		case key.Matches(msg, m.keys.Destroy):
			if m.view != viewSessions {
				return m, nil
			}
			if id := m.SelectedID(); id != "" {
				if err := m.source.DestroySession(id); err != nil {
					m.status = "close failed: " + err.Error()
				} else {
					m.status = "closed session " + shortID(id)
				}
				m.reload()
			}
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			if m.view == viewResults {
				m.board.table, cmd = m.board.table.Update(msg)
				return m, cmd
			}
			m.table, cmd = m.table.Update(msg)
			m.loadSnapshot()
			return m, cmd
		}
	}

	return m, nil
}

// View renders the console.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	if m.view == viewResults {
		b.WriteString(titleStyle.Render("ARENA - RECENT RESULTS"))
		b.WriteString("\n\n")
		b.WriteString(m.board.view())
	} else {
		b.WriteString(titleStyle.Render(fmt.Sprintf("ARENA - %d LIVE SESSIONS", len(m.sessions))))
		b.WriteString("\n\n")
		b.WriteString(m.renderSessions())
	}

	b.WriteString("\n")
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.status != "" {
		b.WriteString(dim.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dim.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderSessions() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var left string
	if len(m.sessions) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		left = box.Render(empty.Render("No live sessions."))
	} else {
		left = box.Render(m.table.View())
	}

	drawMinimap(m.screen, m.bounds, m.snapshot)
	right := RenderScreen(m.screen)
	if m.snapshot != nil {
		right += "\n" + m.detailLine()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (m Model) detailLine() string {
	s := m.snapshot
	parts := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		parts = append(parts, fmt.Sprintf("%s L%d %d/%d", p.Name, p.Level, p.HP, p.MaxHP))
	}
	return fmt.Sprintf("tick %d  %s", s.Tick, strings.Join(parts, "  "))
}

// Run runs the console on the local terminal until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
