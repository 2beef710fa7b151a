// Package panel mirrors frames onto a small LED matrix driven over SPI, or
// onto a one-line console strip when no SPI port is present.
package panel

import (
	"image"
	"image/color"
	"io"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-spincube/internal/layout"
	"github.com/coreman2200/funtimes-spincube/internal/render"
)

// DefaultBrightness keeps a bare strip under its supply rating at full white.
const DefaultBrightness = 200.0 / 255

type Options struct {
	Grid        layout.Grid
	Port        string        // spireg name, "" for the first port
	MinInterval time.Duration // frames closer together than this are skipped
	Brightness  float64       // 0..1 scale on every channel, 0 means DefaultBrightness
	Clock       clockwork.Clock
	Log         zerolog.Logger
}

// Panel is a render.Driver. Writes are throttled to MinInterval.
type Panel struct {
	grid     layout.Grid
	drawer   display.Drawer
	port     io.Closer
	hardware bool
	clock    clockwork.Clock
	min      time.Duration
	scale    float64
	log      zerolog.Logger

	mu      sync.Mutex
	last    time.Time
	drawn   int
	skipped int
	strip   *image.NRGBA
	depth   []float64
}

// Open initializes the host and the first usable SPI port. Without one the
// panel falls back to the console strip.
func Open(opts Options) (*Panel, error) {
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	log := opts.Log.With().Str("component", "panel").Logger()
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	n := opts.Grid.Count()
	port, err := spireg.Open(opts.Port)
	if err != nil {
		log.Warn().Err(err).Msg("no SPI port, mirroring to console strip")
		return NewWithDrawer(screen1d.New(&screen1d.Opts{X: n}), opts), nil
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: n,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	})
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	_ = dev.Halt()
	p := NewWithDrawer(dev, opts)
	p.port = port
	p.hardware = true
	log.Info().Int("pixels", n).Str("port", port.String()).Msg("panel ready")
	return p, nil
}

// NewWithDrawer wraps any periph drawer that is at least Grid.Count() pixels wide.
func NewWithDrawer(d display.Drawer, opts Options) *Panel {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Brightness <= 0 || opts.Brightness > 1 {
		opts.Brightness = DefaultBrightness
	}
	return &Panel{
		grid:   opts.Grid,
		drawer: d,
		clock:  opts.Clock,
		min:    opts.MinInterval,
		scale:  opts.Brightness * 255,
		log:    opts.Log.With().Str("component", "panel").Logger(),
		strip:  image.NewNRGBA(image.Rect(0, 0, opts.Grid.Count(), 1)),
		depth:  make([]float64, opts.Grid.Count()),
	}
}

func (p *Panel) Size() (int, int) { return p.grid.W, p.grid.H }
func (p *Panel) Aspect() float64  { return 1 }
func (p *Panel) Hardware() bool   { return p.hardware }

// Stats reports how many frames were drawn and how many were throttled.
func (p *Panel) Stats() (drawn, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawn, p.skipped
}

func (p *Panel) Write(f render.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.clock.Now()
	if p.drawn > 0 && p.min > 0 && now.Sub(p.last) < p.min {
		p.skipped++
		return nil
	}
	p.last = now
	p.encode(f)
	if err := p.drawer.Draw(p.drawer.Bounds(), p.strip, image.Point{}); err != nil {
		return err
	}
	p.drawn++
	return nil
}

// encode rasterizes f into the strip in wiring order, nearest edge wins.
func (p *Panel) encode(f render.Frame) {
	for i := range p.strip.Pix {
		p.strip.Pix[i] = 0
	}
	for i := range p.depth {
		p.depth[i] = 2
	}
	render.Rasterize(f, p.grid.W, p.grid.H, func(x, y int, c render.Color, d float64) {
		i := p.grid.Index(x, y)
		if d >= p.depth[i] {
			return
		}
		p.depth[i] = d
		p.strip.SetNRGBA(i, 0, color.NRGBA{
			R: p.level(c.R), G: p.level(c.G), B: p.level(c.B), A: 0xFF,
		})
	})
}

func (p *Panel) level(v float32) uint8 {
	return uint8(math.Round(math.Min(math.Max(float64(v), 0), 1) * p.scale))
}

// Close blanks the LEDs and releases the SPI port.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.drawer.Halt()
	if p.port != nil {
		if cerr := p.port.Close(); err == nil {
			err = cerr
		}
		p.port = nil
	}
	return err
}
