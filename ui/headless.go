package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openfluke/doubler/app"
)

// ErrUnavailable is returned when a run asks for doubling without a dispatcher.
var ErrUnavailable = errors.New("ui: doubling unavailable")

// RunHeadless prints the screen, then doubles iterations times, printing after
// each step.
func RunHeadless(ctx context.Context, w io.Writer, m *app.Model, iterations int) error {
	if err := Print(w, m); err != nil {
		return err
	}
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !Apply(m, ActionDouble) {
			return ErrUnavailable
		}
		if err := Print(w, m); err != nil {
			return err
		}
	}
	return nil
}

// Print writes the iteration and values as one line.
func Print(w io.Writer, m *app.Model) error {
	_, err := fmt.Fprintf(w, "Iteration: %d  Current Values: %s\n", m.Iteration(), m.FormatValues())
	return err
}
