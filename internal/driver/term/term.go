// Package term presents frames on a tcell screen and turns terminal key
// input into press/release events.
//
// Terminals only report key presses and auto-repeats. A held key is assumed
// released once no repeat has arrived for the hold window. Until its first
// repeat a key gets the longer FirstHold window, which must cover the OS
// initial repeat delay (660 ms on X11, about 500 ms on Windows). Upper-case
// letters imply shift.
package term

import (
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/input"
	"github.com/coreman2200/funtimes-spincube/internal/render"
)

const (
	DefaultHold      = 450 * time.Millisecond
	DefaultFirstHold = 750 * time.Millisecond
)

// depth ramp, nearest first
var shading = []rune{'@', '#', '%', '*', '+', '=', '-', ':', '.'}

type Options struct {
	Hold      time.Duration // between repeats
	FirstHold time.Duration // from the first keystroke to its first repeat
	Clock     clockwork.Clock
	Status    func() string // HUD line, may be nil
	Log       zerolog.Logger
}

// Screen is both a render.Driver and an input.Source.
type Screen struct {
	s      tcell.Screen
	q      *input.Queue
	clock  clockwork.Clock
	hold   time.Duration
	first  time.Duration
	status func() string
	log    zerolog.Logger

	mu   sync.Mutex
	held map[input.Key]heldKey

	depth []float64
	once  sync.Once
	done  chan struct{}
}

// New opens and initializes the terminal.
func New(opts Options) (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(s, opts)
}

// NewWithScreen wraps an existing, uninitialized tcell screen.
func NewWithScreen(s tcell.Screen, opts Options) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	if opts.Hold <= 0 {
		opts.Hold = DefaultHold
	}
	if opts.FirstHold <= 0 {
		opts.FirstHold = DefaultFirstHold
	}
	if opts.FirstHold < opts.Hold {
		opts.FirstHold = opts.Hold
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	s.HideCursor()
	return &Screen{
		s:      s,
		q:      input.NewQueue(),
		clock:  opts.Clock,
		hold:   opts.Hold,
		first:  opts.FirstHold,
		status: opts.Status,
		log:    opts.Log.With().Str("component", "term").Logger(),
		held:   map[input.Key]heldKey{},
		done:   make(chan struct{}),
	}, nil
}

// SetStatus replaces the HUD provider.
func (t *Screen) SetStatus(f func() string) { t.status = f }

// Start runs the terminal event reader until Close.
func (t *Screen) Start() {
	go func() {
		defer close(t.done)
		for {
			ev := t.s.PollEvent()
			if ev == nil {
				return
			}
			t.handle(ev)
		}
	}()
}

func (t *Screen) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.handleKey(ev)
	case *tcell.EventResize:
		t.s.Sync()
	}
}

func (t *Screen) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.q.Push(input.CloseEvent())
		return
	case tcell.KeyRune:
	default:
		return
	}

	r := ev.Rune()
	switch r {
	case ' ':
		t.q.Push(input.Press(input.KeySpace), input.Release(input.KeySpace))
		return
	case 'r', 'R':
		t.q.Push(input.Press(input.KeyR), input.Release(input.KeyR))
		return
	}

	k, upper := runeKey(r)
	if k == input.KeyUnknown {
		return
	}
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if upper || ev.Modifiers()&tcell.ModShift != 0 {
		t.touchLocked(input.KeyShift, now)
	}
	t.touchLocked(k, now)
}

type heldKey struct {
	seen     time.Time
	repeated bool
}

// touchLocked refreshes a held key, emitting a press the first time it is seen.
func (t *Screen) touchLocked(k input.Key, now time.Time) {
	h, ok := t.held[k]
	if !ok {
		t.q.Push(input.Press(k))
		t.held[k] = heldKey{seen: now}
		return
	}
	t.held[k] = heldKey{seen: now, repeated: h.repeated || !now.Equal(h.seen)}
}

// expire queues a release for every held key whose repeat has lapsed. Motion
// keys are released before shift.
func (t *Screen) expire() {
	now := t.clock.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	var gone []input.Key
	for k, h := range t.held {
		window := t.first
		if h.repeated {
			window = t.hold
		}
		if now.Sub(h.seen) >= window {
			gone = append(gone, k)
		}
	}
	sort.Slice(gone, func(i, j int) bool {
		if (gone[i] == input.KeyShift) != (gone[j] == input.KeyShift) {
			return gone[j] == input.KeyShift
		}
		return gone[i] < gone[j]
	})
	for _, k := range gone {
		delete(t.held, k)
		t.q.Push(input.Release(k))
	}
}

func (t *Screen) PollEvents() iter.Seq[input.Event] {
	t.expire()
	return t.q.PollEvents()
}

func runeKey(r rune) (input.Key, bool) {
	switch r {
	case 'w':
		return input.KeyW, false
	case 'a':
		return input.KeyA, false
	case 's':
		return input.KeyS, false
	case 'd':
		return input.KeyD, false
	case 'q':
		return input.KeyQ, false
	case 'e':
		return input.KeyE, false
	case 'W':
		return input.KeyW, true
	case 'A':
		return input.KeyA, true
	case 'S':
		return input.KeyS, true
	case 'D':
		return input.KeyD, true
	case 'Q':
		return input.KeyQ, true
	case 'E':
		return input.KeyE, true
	}
	return input.KeyUnknown, false
}

// Size reserves the bottom row for the HUD.
func (t *Screen) Size() (int, int) {
	w, h := t.s.Size()
	if h > 1 {
		h--
	}
	return w, h
}

func (t *Screen) Aspect() float64 { return 2 }

func (t *Screen) Write(f render.Frame) error {
	t.s.Clear()
	w, h := f.Width, f.Height
	if sw, sh := t.Size(); sw < w || sh < h {
		w, h = sw, sh
	}

	if cap(t.depth) < w*h {
		t.depth = make([]float64, w*h)
	}
	t.depth = t.depth[:w*h]
	for i := range t.depth {
		t.depth[i] = 2
	}

	render.Rasterize(f, w, h, func(x, y int, c render.Color, d float64) {
		i := y*w + x
		if d >= t.depth[i] {
			return
		}
		t.depth[i] = d
		glyph := shading[int(d*float64(len(shading)-1))]
		st := tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(c.R*255), int32(c.G*255), int32(c.B*255)))
		t.s.SetContent(x, y, glyph, nil, st)
	})

	if t.status != nil {
		_, sh := t.s.Size()
		drawText(t.s, 0, sh-1, tcell.StyleDefault.Foreground(tcell.ColorDarkGray), t.status())
	}
	t.s.Show()
	return nil
}

// Close restores the terminal and stops the reader.
func (t *Screen) Close() error {
	t.once.Do(func() {
		t.s.Fini()
	})
	return nil
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, str string) {
	for i, r := range []rune(str) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
