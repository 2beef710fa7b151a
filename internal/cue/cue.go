// Package cue plays short tones when an animation starts and ends.
package cue

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-spincube/internal/diagnostics"
)

const (
	DefaultSampleRate = 44100

	startHz = 880
	endHz   = 440
	blipLen = 60 * time.Millisecond
)

// Player is the cue sink the scheduler hooks call into.
type Player interface {
	AnimationStart()
	AnimationEnd()
	Close()
}

// Nop discards every cue.
type Nop struct{}

func (Nop) AnimationStart() {}
func (Nop) AnimationEnd()   {}
func (Nop) Close()          {}

// Tones mixes blips into a single speaker stream.
type Tones struct {
	mu    sync.Mutex
	rate  beep.SampleRate
	mixer *beep.Mixer
	log   zerolog.Logger
}

// Open initializes the speaker. When audio is unavailable it emits a warning
// diagnostic and returns Nop, so callers never need to check.
func Open(sampleRate int, log zerolog.Logger) Player {
	log = log.With().Str("component", "cue").Logger()
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		diagnostics.Emit(log, diagnostics.Diagnostic{
			Severity:       diagnostics.Warn,
			Code:           diagnostics.CodeCueInit,
			Summary:        "audio cues disabled",
			Detail:         err.Error(),
			LikelyCauses:   []string{"no audio output device", "audio server not running"},
			SuggestedFixes: []string{"set cues.enabled: false in config.yaml"},
			Evidence:       map[string]any{"sample_rate": sampleRate},
		})
		return Nop{}
	}
	t := &Tones{rate: rate, mixer: &beep.Mixer{}, log: log}
	speaker.Play(t.mixer)
	return t
}

// Blip is a short, attenuated sine tone.
func Blip(rate beep.SampleRate, hz float64, d time.Duration) (beep.Streamer, error) {
	tone, err := generators.SineTone(rate, hz)
	if err != nil {
		return nil, err
	}
	return &effects.Volume{
		Streamer: beep.Take(rate.N(d), tone),
		Base:     2,
		Volume:   -2,
	}, nil
}

func (t *Tones) play(hz float64) {
	s, err := Blip(t.rate, hz, blipLen)
	if err != nil {
		t.log.Debug().Err(err).Float64("hz", hz).Msg("blip")
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	speaker.Lock()
	t.mixer.Add(s)
	speaker.Unlock()
}

func (t *Tones) AnimationStart() { t.play(startHz) }
func (t *Tones) AnimationEnd()   { t.play(endHz) }

func (t *Tones) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	speaker.Clear()
	speaker.Close()
}
