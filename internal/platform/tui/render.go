package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/coop-arena/internal/core"
	"github.com/vovakirdan/coop-arena/internal/world"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Adjacent cells with the same color share one escape sequence.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// drawMinimap draws the snapshot's entities inside a box covering the whole
// screen.
func drawMinimap(scr *core.Screen, bounds core.Bounds, snap *world.Snapshot) {
	scr.Clear()
	area := core.NewRect(0, 0, scr.Width(), scr.Height())
	scr.DrawBox(area, core.ColorGray)
	if snap == nil {
		scr.DrawText(2, area.H/2, "no session selected", core.ColorGray)
		return
	}
	scr.DrawText(2, 0, " "+snap.SectionID+" ", core.ColorCyan)

	for _, pr := range snap.Projectiles {
		scr.Plot(bounds, core.V(pr.X, pr.Y), area, '·', core.ColorYellow)
	}
	for _, e := range snap.Enemies {
		if e.Status == "dead" {
			continue
		}
		r, c := 'e', core.ColorRed
		if e.Boss {
			r, c = 'B', core.ColorMagenta
		}
		scr.Plot(bounds, core.V(e.X, e.Y), area, r, c)
	}
	for _, p := range snap.Players {
		r, c := '@', core.ColorGreen
		switch {
		case p.Status == "dead":
			r, c = 'x', core.ColorGray
		case !p.Connected:
			c = core.ColorGray
		}
		scr.Plot(bounds, core.V(p.X, p.Y), area, r, c)
	}
}
