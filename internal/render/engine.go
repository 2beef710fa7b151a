package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Engine projects the cube for a model transform, applies post processing
// and writes the result to a primary driver and any mirrors.
type Engine struct {
	Cam     Camera
	Mesh    Mesh
	U       *Uniforms
	Primary Driver
	Mirrors []Driver

	post  PostPipeline
	seq   uint64
	log   zerolog.Logger
	clock clockwork.Clock

	// metrics (last durations in ms), primary driver only
	Last struct {
		ProjectMS float64
		PostMS    float64
		TotalMS   float64
	}
}

// NewEngine returns an Engine with the default camera, cube and post wired.
func NewEngine(primary Driver, u *Uniforms, log zerolog.Logger, mirrors ...Driver) (*Engine, error) {
	if primary == nil {
		return nil, errors.New("primary driver is nil")
	}
	if u == nil {
		u = DefaultUniforms()
	}
	return &Engine{
		Cam:     DefaultCamera(),
		Mesh:    Cube(),
		U:       u,
		Primary: primary,
		Mirrors: mirrors,
		post:    DefaultPost(),
		log:     log.With().Str("component", "engine").Logger(),
		clock:   clockwork.NewRealClock(),
	}, nil
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// Seq is the number of frames submitted so far.
func (e *Engine) Seq() uint64 { return e.seq }

// SubmitFrame renders one frame. A primary driver error is returned wrapped;
// mirror errors are logged and dropped.
func (e *Engine) SubmitFrame(model mgl64.Mat4) error {
	start := e.clock.Now()
	e.seq++

	f, projMS, postMS := e.frameFor(e.Primary, model)
	e.Last.ProjectMS = projMS
	e.Last.PostMS = postMS
	if err := e.Primary.Write(f); err != nil {
		return fmt.Errorf("present frame %d: %w", e.seq, err)
	}
	for _, m := range e.Mirrors {
		mf, _, _ := e.frameFor(m, model)
		if err := m.Write(mf); err != nil {
			e.log.Warn().Err(err).Uint64("seq", e.seq).Msg("mirror write failed")
		}
	}

	e.Last.TotalMS = millis(e.clock.Since(start))
	return nil
}

// frameFor projects and post-processes the cube for one driver and reports
// the projection and post timings.
func (e *Engine) frameFor(d Driver, model mgl64.Mat4) (f Frame, projMS, postMS float64) {
	projStart := e.clock.Now()
	w, h := d.Size()
	segs := e.Cam.Project(e.Mesh, model, w, h, d.Aspect())
	projMS = millis(e.clock.Since(projStart))

	postStart := e.clock.Now()
	e.post.apply(segs, e.U)
	postMS = millis(e.clock.Since(postStart))

	return Frame{Seq: e.seq, Model: model, Width: w, Height: h, Segments: segs}, projMS, postMS
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }
