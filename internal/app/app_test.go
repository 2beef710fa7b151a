package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-spincube/internal/config"
	"github.com/coreman2200/funtimes-spincube/internal/driver/fake"
	"github.com/coreman2200/funtimes-spincube/internal/gesture"
	"github.com/coreman2200/funtimes-spincube/internal/render"
	"github.com/coreman2200/funtimes-spincube/internal/scheduler"
)

type cues struct{ starts, ends, closed int }

func (c *cues) AnimationStart() { c.starts++ }
func (c *cues) AnimationEnd()   { c.ends++ }
func (c *cues) Close()          { c.closed++ }

type failing struct{ fake.Driver }

func (f *failing) Write(render.Frame) error { return errors.New("device gone") }

func newCore(t *testing.T, script string, mirrors ...render.Driver) (*Core, *fake.Driver, *cues) {
	t.Helper()
	src, err := fake.ParseScript(script)
	require.NoError(t, err)
	src.CloseAtEnd = true
	drv := &fake.Driver{W: 40, H: 20}
	cs := &cues{}
	c, err := InitCore(config.Default(), Deps{
		Source: src, Primary: drv, Mirrors: mirrors, Cues: cs, Log: zerolog.Nop(),
	})
	require.NoError(t, err)
	return c, drv, cs
}

func TestStepChordRunsAnimation(t *testing.T) {
	c, drv, cs := newCore(t, "+shift | +d")

	exit, err := c.Step()
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, 1, drv.Count())

	exit, err = c.Step()
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, 1+scheduler.AnimationBudget, drv.Count())
	assert.Contains(t, c.Status(), "spin: 1000 frames in one tick")

	snap := c.Sched.Snapshot()
	assert.Equal(t, gesture.ShiftHeld, snap.State)
	assert.InDelta(t, math.Pi/2, snap.Axes.Y, 1e-9)

	assert.Equal(t, 1, cs.starts)
	assert.Equal(t, 1, cs.ends)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Metrics.Ticks))
	assert.Equal(t, float64(1+scheduler.AnimationBudget), testutil.ToFloat64(c.Metrics.Frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Metrics.AnimationsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Metrics.Transitions.WithLabelValues(string(gesture.Animating))))

	exit, err = c.Step()
	require.NoError(t, err)
	assert.True(t, exit, "script end closes")
	assert.Equal(t, 1+scheduler.AnimationBudget, drv.Count())

	c.Close()
	assert.Equal(t, 1, cs.closed)
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	c, drv, _ := newCore(t, "+w", &failing{})
	exit, err := c.Step()
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, 1, drv.Count())
}

func TestPrimaryFailureStopsRun(t *testing.T) {
	src := fake.NewScript()
	c, err := InitCore(nil, Deps{Source: src, Primary: &failing{}, Log: zerolog.Nop()})
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), clock, 60) }()
	err = waitRun(t, clock, done)
	assert.ErrorContains(t, err, "device gone")
}

func TestRunExitsOnClose(t *testing.T) {
	c, drv, _ := newCore(t, "+w | | -w")
	clock := clockwork.NewFakeClock()
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), clock, 60) }()

	require.NoError(t, waitRun(t, clock, done))
	assert.Equal(t, 3, drv.Count())
	assert.InDelta(t, 2*scheduler.AngularUnit/scheduler.StepGranularity, c.Sched.Snapshot().Axes.X, 1e-12)
}

func TestRunStopsOnCancel(t *testing.T) {
	c, err := InitCore(nil, Deps{Source: fake.NewScript(), Primary: &fake.Driver{W: 8, H: 8}, Log: zerolog.Nop()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, clockwork.NewFakeClock(), 60) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestInitCoreRequiresCollaborators(t *testing.T) {
	_, err := InitCore(nil, Deps{Primary: &fake.Driver{}})
	assert.Error(t, err)
	_, err = InitCore(nil, Deps{Source: fake.NewScript()})
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	c, _, _ := newCore(t, "")
	assert.Contains(t, c.Status(), string(gesture.Initial))
	assert.Contains(t, c.Status(), "space quit")

	_, err := c.Step()
	require.NoError(t, err)
	assert.NotContains(t, c.Status(), "spin:", "an idle tick is not a burst")
}

// waitRun advances clock one tick at a time until Run returns.
func waitRun(t *testing.T, clock *clockwork.FakeClock, done <-chan error) error {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("Run did not return")
			return nil
		case <-time.After(time.Millisecond):
			clock.Advance(time.Second / 60)
		}
	}
}
