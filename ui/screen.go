// Package ui lays out the doubling demo screen and maps input onto model
// actions. It has no graphics dependency; cmd/doubler draws it with ebiten
// or prints it in headless mode.
package ui

import (
	"fmt"

	"github.com/openfluke/doubler/app"
)

// Title is shown at the top of the screen and on the window.
const Title = "Doubling an Array"

// Logical screen size in pixels.
const (
	Width  = 320
	Height = 200
)

type Action int

const (
	ActionNone Action = iota
	ActionDouble
	ActionReset
)

func (a Action) String() string {
	switch a {
	case ActionDouble:
		return "double"
	case ActionReset:
		return "reset"
	default:
		return "none"
	}
}

// Button is a clickable rectangle.
type Button struct {
	Label      string
	Action     Action
	X, Y, W, H int
}

// Contains reports whether (x, y) falls inside the button.
func (b Button) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Enabled reports whether pressing the button does anything.
func (b Button) Enabled(m *app.Model) bool {
	return b.Action != ActionDouble || m.Available()
}

// Line is a run of text at a position.
type Line struct {
	Text string
	X, Y int
}

// Buttons is the fixed button layout.
var Buttons = []Button{
	{Label: "Double Values", Action: ActionDouble, X: 100, Y: 120, W: 120, H: 24},
	{Label: "Reset", Action: ActionReset, X: 100, Y: 156, W: 120, H: 24},
}

// HitTest returns the action under (x, y), honoring disabled buttons.
func HitTest(m *app.Model, x, y int) Action {
	for _, b := range Buttons {
		if b.Contains(x, y) && b.Enabled(m) {
			return b.Action
		}
	}
	return ActionNone
}

// Apply performs a on the model and reports whether state changed.
func Apply(m *app.Model, a Action) bool {
	switch a {
	case ActionDouble:
		return m.Double()
	case ActionReset:
		m.Reset()
		return true
	}
	return false
}

// Lines renders the text content of the screen.
func Lines(m *app.Model) []Line {
	lines := []Line{
		{Text: Title, X: 16, Y: 12},
		{Text: fmt.Sprintf("Iteration: %d", m.Iteration()), X: 16, Y: 36},
		{Text: "Current Values:", X: 16, Y: 60},
		{Text: m.FormatValues(), X: 24, Y: 80},
	}
	if !m.Available() {
		lines = append(lines, Line{Text: "GPU unavailable", X: 16, Y: 100})
	}
	return lines
}
