package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/coop-arena/internal/storage"
)

const maxResults = 100

// ResultSource lists recorded session results.
type ResultSource interface {
	RecentResults(limit int) ([]storage.SessionResult, error)
}

// resultsBoard is the results tab of the console.
type resultsBoard struct {
	results []storage.SessionResult
	table   table.Model
	err     error
	width   int
	height  int
}

func newResultsBoard(width, height int) resultsBoard {
	b := resultsBoard{width: width, height: height}
	b.table = b.createTable()
	return b
}

func (b *resultsBoard) createTable() table.Model {
	columns := []table.Column{
		{Title: "Session", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Sections", Width: 9},
		{Title: "Players", Width: 20},
		{Title: "Time", Width: 7},
		{Title: "Ended", Width: 13},
	}
	if b.width > 90 {
		columns[3].Width = b.width - 70
		if columns[3].Width > 40 {
			columns[3].Width = 40
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(b.height-8, 3)),
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

func (b *resultsBoard) resize(width, height int) {
	b.width, b.height = width, height
	b.table = b.createTable()
	b.updateRows()
}

func (b *resultsBoard) load(src ResultSource) {
	if src == nil {
		b.results, b.err = nil, nil
		b.updateRows()
		return
	}
	b.results, b.err = src.RecentResults(maxResults)
	b.updateRows()
}

func (b *resultsBoard) updateRows() {
	rows := make([]table.Row, len(b.results))
	for i, r := range b.results {
		rows[i] = table.Row{
			shortID(r.SessionID),
			r.Status,
			fmt.Sprintf("%d", r.SectionsCleared),
			strings.Join(r.Players, ","),
			fmt.Sprintf("%dm%02ds", r.Duration/60, r.Duration%60),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	b.table.SetRows(rows)
	b.table.GotoTop()
}

func (b resultsBoard) view() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	if b.err != nil {
		return box.Render("cannot load results: " + b.err.Error())
	}
	if len(b.results) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return box.Render(empty.Render("No finished sessions recorded yet."))
	}
	return box.Render(b.table.View())
}
