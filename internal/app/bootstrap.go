package app

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/config"
	"github.com/coreman2200/funtimes-spincube/internal/cue"
	"github.com/coreman2200/funtimes-spincube/internal/gesture"
	"github.com/coreman2200/funtimes-spincube/internal/input"
	"github.com/coreman2200/funtimes-spincube/internal/metrics"
	"github.com/coreman2200/funtimes-spincube/internal/render"
	"github.com/coreman2200/funtimes-spincube/internal/scheduler"
)

// Deps are the collaborators chosen by main for the selected backend.
type Deps struct {
	Source  input.Source
	Primary render.Driver
	Mirrors []render.Driver
	Cues    cue.Player // nil plays nothing
	Log     zerolog.Logger
}

type Core struct {
	Sched   *scheduler.Scheduler
	Engine  *render.Engine
	Metrics *metrics.Metrics

	cues cue.Player
	log  zerolog.Logger

	tickFrames atomic.Uint64 // frames submitted by the last Step
}

func uniformsFrom(c config.RenderCfg) *render.Uniforms {
	u := render.DefaultUniforms()
	u.Params["DepthCue"] = c.DepthCue
	u.Params["ExposureEV"] = c.ExposureEV
	if c.Gamma > 0 {
		u.Params["OutputGamma"] = c.Gamma
	}
	return u
}

// InitCore wires engine, scheduler, metrics and cues together.
func InitCore(cfg *config.Config, d Deps) (*Core, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if d.Source == nil {
		return nil, errors.New("input source is nil")
	}
	eng, err := render.NewEngine(d.Primary, uniformsFrom(cfg.Render), d.Log, d.Mirrors...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if d.Cues == nil {
		d.Cues = cue.Nop{}
	}

	c := &Core{
		Engine:  eng,
		Metrics: metrics.New(),
		cues:    d.Cues,
		log:     d.Log.With().Str("component", "core").Logger(),
	}
	m := c.Metrics
	hooks := scheduler.Hooks{
		OnTransition: func(_, to gesture.State) {
			m.Transitions.WithLabelValues(string(to)).Inc()
		},
		OnAnimationStart: func() {
			m.AnimationsStarted.Inc()
			c.cues.AnimationStart()
		},
		OnAnimationEnd: func(restored gesture.State) {
			m.AnimationsCompleted.Inc()
			c.cues.AnimationEnd()
			c.log.Info().Str("restored", string(restored)).Msg("animation complete")
		},
		OnReset: func() {
			m.Resets.Inc()
			c.log.Info().Msg("axes reset")
		},
		OnFrame: func(scheduler.Snapshot) {
			m.Frames.Inc()
			m.FrameDuration.Observe(eng.Last.TotalMS / 1000)
		},
	}
	c.Sched = scheduler.New(d.Source, eng, hooks, d.Log)
	return c, nil
}

// Status is a one-line HUD for the interactive backends.
func (c *Core) Status() string {
	s := c.Sched.Snapshot()
	line := fmt.Sprintf("%-18s x%+7.2f y%+7.2f z%+7.2f", s.State, s.Axes.X, s.Axes.Y, s.Axes.Z)
	if s.State == gesture.Animating {
		line += fmt.Sprintf(" [%4d]", s.Counter)
	}
	// the window presents one frame per tick, so say what a burst covered
	if n := c.tickFrames.Load(); n > 1 {
		line += fmt.Sprintf(" (spin: %d frames in one tick)", n)
	}
	return line + "  wasdqe rotate, shift+key spin, r reset, space quit"
}

// Close stops the cue player and logs the metrics summary.
func (c *Core) Close() {
	c.cues.Close()
	sum, err := c.Metrics.Summary()
	if err != nil {
		c.log.Warn().Err(err).Msg("gather metrics")
		return
	}
	fields := make(map[string]any, len(sum))
	for k, v := range sum {
		fields[k] = v
	}
	c.log.Info().Fields(fields).Uint64("frames", c.Engine.Seq()).Msg("summary")
}
