package fake

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/render"
)

// Driver records frames without presenting them and logs a compact summary
// every Every frames, useful for headless runs.
type Driver struct {
	W, H  int
	Every int
	Log   zerolog.Logger

	mu    sync.Mutex
	count int
	last  render.Frame
}

func NewDriver(w, h int, log zerolog.Logger) *Driver {
	return &Driver{W: w, H: h, Every: 250, Log: log.With().Str("component", "headless").Logger()}
}

func (d *Driver) Size() (int, int) { return d.W, d.H }
func (d *Driver) Aspect() float64  { return 1 }

func (d *Driver) Write(f render.Frame) error {
	d.mu.Lock()
	d.count++
	d.last = f
	n := d.count
	d.mu.Unlock()

	if d.Every > 0 && n%d.Every == 0 {
		// average edge brightness as a cheap visual fingerprint
		var sum float64
		for _, s := range f.Segments {
			sum += float64(s.Color.R+s.Color.G+s.Color.B) / 3
		}
		avg := 0.0
		if len(f.Segments) > 0 {
			avg = sum / float64(len(f.Segments))
		}
		d.Log.Info().Uint64("seq", f.Seq).Int("segments", len(f.Segments)).
			Float64("avg", avg).Msg("frame")
	}
	return nil
}

func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *Driver) Last() render.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
