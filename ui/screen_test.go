package ui

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfluke/doubler/app"
	"github.com/openfluke/doubler/compute"
	"github.com/openfluke/doubler/gpu"
	"github.com/openfluke/doubler/kernels"
)

func newModel(t *testing.T) *app.Model {
	t.Helper()
	d, err := compute.New(context.Background(), gpu.NewCPUBackend(gpu.CPUOptions{}), kernels.Double)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return app.NewModel(d, nil)
}

func TestHitTest(t *testing.T) {
	m := newModel(t)
	double, reset := Buttons[0], Buttons[1]

	require.Equal(t, ActionDouble, HitTest(m, double.X+1, double.Y+1))
	require.Equal(t, ActionReset, HitTest(m, reset.X+reset.W-1, reset.Y+reset.H-1))
	require.Equal(t, ActionNone, HitTest(m, 0, 0))
	require.Equal(t, ActionNone, HitTest(m, double.X+double.W, double.Y))
}

func TestHitTestDisabledDouble(t *testing.T) {
	m := app.NewModel(nil, nil)
	double := Buttons[0]
	require.False(t, double.Enabled(m))
	require.Equal(t, ActionNone, HitTest(m, double.X+1, double.Y+1))
	require.True(t, Buttons[1].Enabled(m))
}

func TestApplyScenario(t *testing.T) {
	m := newModel(t)

	require.True(t, Apply(m, ActionDouble))
	require.True(t, Apply(m, ActionDouble))
	require.Equal(t, []float32{4, 8, 12, 16, 20}, m.Values())

	lines := Lines(m)
	require.Equal(t, Title, lines[0].Text)
	require.Equal(t, "Iteration: 2", lines[1].Text)
	require.Equal(t, "4.0, 8.0, 12.0, 16.0, 20.0", lines[3].Text)

	require.True(t, Apply(m, ActionReset))
	require.Equal(t, []float32{1, 2, 3, 4, 5}, m.Values())
	require.Equal(t, 0, m.Iteration())
	require.False(t, Apply(m, ActionNone))
}

func TestLinesUnavailable(t *testing.T) {
	lines := Lines(app.NewModel(nil, nil))
	require.Equal(t, "GPU unavailable", lines[len(lines)-1].Text)
}

func TestRunHeadless(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunHeadless(context.Background(), &out, newModel(t), 2))
	require.Equal(t,
		"Iteration: 0  Current Values: 1.0, 2.0, 3.0, 4.0, 5.0\n"+
			"Iteration: 1  Current Values: 2.0, 4.0, 6.0, 8.0, 10.0\n"+
			"Iteration: 2  Current Values: 4.0, 8.0, 12.0, 16.0, 20.0\n",
		out.String())
}

func TestRunHeadlessUnavailable(t *testing.T) {
	var out bytes.Buffer
	err := RunHeadless(context.Background(), &out, app.NewModel(nil, nil), 1)
	require.ErrorIs(t, err, ErrUnavailable)

	out.Reset()
	require.NoError(t, RunHeadless(context.Background(), &out, app.NewModel(nil, nil), 0))
}

func TestRunHeadlessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, &bytes.Buffer{}, newModel(t), 3)
	require.ErrorIs(t, err, context.Canceled)
}
