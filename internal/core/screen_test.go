package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(20, 5)

	if s.Width() != 20 || s.Height() != 5 {
		t.Fatalf("size = %dx%d, expected 20x5", s.Width(), s.Height())
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if c := s.GetCell(x, y); c.Rune != ' ' {
				t.Fatalf("new screen should be blank, got %q at (%d, %d)", c.Rune, x, y)
			}
		}
	}
}

func TestScreenSetOutOfBounds(t *testing.T) {
	s := NewScreen(4, 4)
	s.Set(-1, 0, 'A', ColorRed)
	s.Set(0, 10, 'A', ColorRed)

	if c := s.GetCell(-1, 0); c.Rune != ' ' {
		t.Errorf("out of bounds GetCell = %q, expected space", c.Rune)
	}
}

func TestScreenPlot(t *testing.T) {
	s := NewScreen(12, 7)
	area := NewRect(0, 0, 12, 7)
	world := NewBounds(100, 50)

	s.DrawBox(area, ColorGray)
	s.Plot(world, V(0, 0), area, '@', ColorGreen)
	s.Plot(world, V(100, 50), area, 'E', ColorRed)

	if c := s.GetCell(1, 1); c.Rune != '@' || c.Color != ColorGreen {
		t.Errorf("origin plotted as %q/%d, expected '@' at (1,1)", c.Rune, c.Color)
	}
	if c := s.GetCell(10, 5); c.Rune != 'E' {
		t.Errorf("far corner plotted as %q, expected 'E' at (10,5)", c.Rune)
	}
	if c := s.GetCell(0, 0); c.Rune != '┌' {
		t.Errorf("box corner = %q, expected '┌'", c.Rune)
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawText(0, 0, "abc", ColorDefault)
	s.DrawText(0, 1, "de", ColorDefault)

	lines := strings.Split(s.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "abc" || lines[1] != "de " {
		t.Errorf("String() = %q", s.String())
	}
}
