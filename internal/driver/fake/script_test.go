package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-spincube/internal/input"
	"github.com/coreman2200/funtimes-spincube/internal/render"
)

func drain(s *Script) []input.Event {
	var out []input.Event
	for ev := range s.PollEvents() {
		out = append(out, ev)
	}
	return out
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript("+shift +d | | -d -shift | r | close")
	require.NoError(t, err)
	require.Equal(t, 5, s.Remaining())

	assert.Equal(t, []input.Event{input.Press(input.KeyShift), input.Press(input.KeyD)}, drain(s))
	assert.Empty(t, drain(s))
	assert.Equal(t, []input.Event{input.Release(input.KeyD), input.Release(input.KeyShift)}, drain(s))
	assert.Equal(t, []input.Event{input.Press(input.KeyR), input.Release(input.KeyR)}, drain(s))
	assert.Equal(t, []input.Event{input.CloseEvent()}, drain(s))
	assert.Empty(t, drain(s), "exhausted script yields nothing")
}

func TestScriptCloseAtEnd(t *testing.T) {
	s := NewScript([]input.Event{input.Press(input.KeyW)})
	s.CloseAtEnd = true
	drain(s)
	assert.Equal(t, []input.Event{input.CloseEvent()}, drain(s))
	assert.Equal(t, []input.Event{input.CloseEvent()}, drain(s))
}

func TestParseScriptRejectsUnknownKey(t *testing.T) {
	_, err := ParseScript("+shift | +f13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick 1")
}

func TestDriverRecords(t *testing.T) {
	d := &Driver{W: 4, H: 3}
	require.NoError(t, d.Write(render.Frame{Seq: 7}))
	require.NoError(t, d.Write(render.Frame{Seq: 8}))
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, uint64(8), d.Last().Seq)
	w, h := d.Size()
	assert.Equal(t, [2]int{4, 3}, [2]int{w, h})
}

func TestScriptPadTo(t *testing.T) {
	s := NewScript([]input.Event{input.Press(input.KeyW)})
	s.PadTo(3)
	assert.Equal(t, 3, s.Remaining())
	s.PadTo(2)
	assert.Equal(t, 3, s.Remaining())
}
