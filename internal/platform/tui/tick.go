// Package tui is the operator console of the arena server: a Bubble Tea
// program listing live sessions with a minimap of the selected one, served
// on the local terminal or over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg is sent to reload the session list.
type RefreshMsg time.Time

// refreshCmd returns a command that sends a refresh message after interval.
func refreshCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}
