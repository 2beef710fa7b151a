// Package window presents frames in a desktop window and reports real key
// press and release edges.
//
// ebiten owns the loop: Update advances the simulation and Draw shows the
// newest frame, so during an animation burst only the last frame of each tick
// reaches the screen. The status line reports how many frames that tick
// covered.
package window

import (
	"errors"
	"image"
	"iter"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/input"
	"github.com/coreman2200/funtimes-spincube/internal/render"
)

type Options struct {
	Width, Height int
	Title         string
	TPS           int
	Status        func() string
	Log           zerolog.Logger
}

var bindings = []struct {
	key ebiten.Key
	k   input.Key
}{
	{ebiten.KeyW, input.KeyW},
	{ebiten.KeyA, input.KeyA},
	{ebiten.KeyS, input.KeyS},
	{ebiten.KeyD, input.KeyD},
	{ebiten.KeyQ, input.KeyQ},
	{ebiten.KeyE, input.KeyE},
	{ebiten.KeySpace, input.KeySpace},
	{ebiten.KeyR, input.KeyR},
}

// Window is a render.Driver, an input.Source and an ebiten.Game.
type Window struct {
	opts Options
	q    *input.Queue
	log  zerolog.Logger

	step  func() (bool, error)
	shift bool

	mu    sync.Mutex
	w, h  int
	frame render.Frame
	fresh bool

	img   *image.RGBA
	fbImg *ebiten.Image
}

func New(opts Options) *Window {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 480
	}
	if opts.Title == "" {
		opts.Title = "spincube"
	}
	return &Window{
		opts: opts,
		q:    input.NewQueue(),
		log:  opts.Log.With().Str("component", "window").Logger(),
		w:    opts.Width,
		h:    opts.Height,
	}
}

// Run opens the window and blocks until step asks to exit, step fails or the
// window is closed.
func (g *Window) Run(step func() (exit bool, err error)) error {
	g.step = step
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	if g.opts.TPS > 0 {
		ebiten.SetTPS(g.opts.TPS)
	}
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *Window) poll() {
	if ebiten.IsWindowBeingClosed() {
		g.q.Push(input.CloseEvent())
	}

	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if shift != g.shift {
		g.shift = shift
		if shift {
			g.q.Push(input.Press(input.KeyShift))
		} else {
			g.q.Push(input.Release(input.KeyShift))
		}
	}

	for _, b := range bindings {
		if inpututil.IsKeyJustPressed(b.key) {
			g.q.Push(input.Press(b.k))
		}
		if inpututil.IsKeyJustReleased(b.key) {
			g.q.Push(input.Release(b.k))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.q.Push(input.CloseEvent())
	}
}

// SetStatus replaces the HUD provider. Call it before Run.
func (g *Window) SetStatus(f func() string) { g.opts.Status = f }

func (g *Window) PollEvents() iter.Seq[input.Event] { return g.q.PollEvents() }

func (g *Window) Update() error {
	g.poll()
	if g.step == nil {
		return nil
	}
	exit, err := g.step()
	if err != nil {
		return err
	}
	if exit {
		return ebiten.Termination
	}
	return nil
}

func (g *Window) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	f, fresh := g.frame, g.fresh
	g.fresh = false
	g.mu.Unlock()

	if fresh || g.img == nil {
		g.paint(f)
	}
	if g.fbImg != nil {
		screen.DrawImage(g.fbImg, nil)
	}
	if g.opts.Status != nil {
		ebitenutil.DebugPrint(screen, g.opts.Status())
	}
}

func (g *Window) paint(f render.Frame) {
	w, h := f.Width, f.Height
	if w <= 0 || h <= 0 {
		return
	}
	if g.img == nil || g.img.Bounds().Dx() != w || g.img.Bounds().Dy() != h {
		g.img = image.NewRGBA(image.Rect(0, 0, w, h))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
	}
	paintFrame(g.img, f)
	g.fbImg.WritePixels(g.img.Pix)
}

// paintFrame clears dst to the background and rasterizes the frame into it.
func paintFrame(dst *image.RGBA, f render.Frame) {
	bg := render.Background
	br, bgc, bb := uint8(bg.R*255), uint8(bg.G*255), uint8(bg.B*255)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = br
		dst.Pix[i+1] = bgc
		dst.Pix[i+2] = bb
		dst.Pix[i+3] = 0xFF
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	render.Rasterize(f, w, h, func(x, y int, c render.Color, _ float64) {
		j := dst.PixOffset(x, y)
		dst.Pix[j+0] = uint8(c.R * 255)
		dst.Pix[j+1] = uint8(c.G * 255)
		dst.Pix[j+2] = uint8(c.B * 255)
	})
}

func (g *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if outsideWidth > 0 && outsideHeight > 0 {
		g.w, g.h = outsideWidth, outsideHeight
	}
	return g.w, g.h
}

func (g *Window) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.w, g.h
}

func (g *Window) Aspect() float64 { return 1 }

// Write keeps the frame for the next Draw.
func (g *Window) Write(f render.Frame) error {
	g.mu.Lock()
	g.frame = f
	g.fresh = true
	g.mu.Unlock()
	return nil
}
