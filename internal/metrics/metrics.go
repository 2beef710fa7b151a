// Package metrics counts scheduler activity on a private registry. Nothing is
// served; the totals are gathered once at shutdown.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	Registry *prometheus.Registry

	Ticks               prometheus.Counter
	Frames              prometheus.Counter
	AnimationsStarted   prometheus.Counter
	AnimationsCompleted prometheus.Counter
	Resets              prometheus.Counter
	Transitions         *prometheus.CounterVec
	FrameDuration       prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "spincube_ticks_total",
			Help: "Host ticks that called Update",
		}),
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "spincube_frames_total",
			Help: "Frames submitted to the renderer",
		}),
		AnimationsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "spincube_animations_started_total",
			Help: "Animations armed by a shift+motion chord",
		}),
		AnimationsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "spincube_animations_completed_total",
			Help: "Animations that ran their full budget",
		}),
		Resets: f.NewCounter(prometheus.CounterOpts{
			Name: "spincube_resets_total",
			Help: "Axis resets",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "spincube_gesture_transitions_total",
			Help: "Gesture state changes by target state",
		}, []string{"to"}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "spincube_frame_duration_seconds",
			Help:    "Time spent projecting and presenting one frame",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		}),
	}
}

// Summary flattens the registry: counters by name (labelled series as
// name{label=value}) and histogram sample counts as name_count.
func (m *Metrics) Summary() (map[string]float64, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := seriesName(mf.GetName(), metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out[name] = metric.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				out[name+"_count"] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

func seriesName(name string, labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return name
	}
	name += "{"
	for i, l := range labels {
		if i > 0 {
			name += ","
		}
		name += l.GetName() + "=" + l.GetValue()
	}
	return name + "}"
}
