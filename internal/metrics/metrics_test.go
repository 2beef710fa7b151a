package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Ticks.Inc()
	m.Frames.Add(1001)
	m.Transitions.WithLabelValues("ShiftHeld").Inc()
	m.Transitions.WithLabelValues("Animating").Inc()
	m.Transitions.WithLabelValues("ShiftHeld").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ticks))
	assert.Equal(t, 1001.0, testutil.ToFloat64(m.Frames))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("ShiftHeld")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Resets.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Resets))
}

func TestSummary(t *testing.T) {
	m := New()
	m.AnimationsStarted.Inc()
	m.AnimationsCompleted.Inc()
	m.Transitions.WithLabelValues("Animating").Inc()
	m.FrameDuration.Observe(0.002)
	m.FrameDuration.Observe(0.003)

	s, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s["spincube_animations_started_total"])
	assert.Equal(t, 1.0, s["spincube_gesture_transitions_total{to=Animating}"])
	assert.Equal(t, 2.0, s["spincube_frame_duration_seconds_count"])
	assert.Equal(t, 0.0, s["spincube_ticks_total"])
}
