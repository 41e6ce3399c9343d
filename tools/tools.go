// Package tools turns pointer and keyboard input into edit actions. Each tool
// is a small state machine: it waits in Idle for a press it recognizes, edits
// in ActiveEdit (or KeyboardEdit when entered from the keyboard) and returns
// to Idle when the edit is committed or cancelled. Every entry into an edit
// state is matched by exactly one call to Host.EditDone.
package tools

import (
	"log/slog"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/edit"
)

type (
	State int

	// Context is what a tool found under the pointer at press time.
	Context int

	Modifiers int

	Key int

	PointerEvent struct {
		X, Y  float64
		Track int
		Frame int
		Mods  Modifiers
	}

	KeyEvent struct {
		Key  Key
		Mods Modifiers
	}

	// Host is the editing session a tool works for.
	Host interface {
		Sequence() *flowcut.Sequence
		Perform(a edit.Action) error
		// EditDone is called once every time a tool leaves an edit state.
		EditDone()
		// DefaultPress handles a press the tool has no use for.
		DefaultPress(ev PointerEvent)
		Logger() *slog.Logger
	}

	Tool interface {
		State() State
		Press(ev PointerEvent)
		Drag(ev PointerEvent)
		Release(ev PointerEvent)
		// Key handles a key event and reports whether it was used.
		Key(ev KeyEvent) bool
		// EnterKeyboard starts a keyboard edit at the edit point nearest to
		// frame on a track.
		EnterKeyboard(track, frame int) bool
		Cancel()
	}

	// Edge is an edit target: a clip edge, an edit point or a clip body.
	Edge struct {
		Context Context
		Track   int
		// Index is the clip for trims and slips, and the clip after the edit
		// point for rolls.
		Index int
	}

	// machine is the state shared by all tools.
	machine struct {
		host  Host
		state State
		edge  Edge
		press int
		delta int
	}
)

const (
	Idle State = iota
	ActiveEdit
	KeyboardEdit
)

const (
	ContextNone Context = iota
	TrimLeft
	TrimRight
	MultiRoll
	MultiSlip
)

const (
	Shift Modifiers = 1 << iota
	Ctrl
	Alt
)

const (
	KeyLeft Key = iota
	KeyRight
	KeyEnter
	KeyEscape
)

func (s State) String() string {
	switch s {
	case ActiveEdit:
		return "active"
	case KeyboardEdit:
		return "keyboard"
	}
	return "idle"
}

func (c Context) String() string {
	switch c {
	case TrimLeft:
		return "trim-left"
	case TrimRight:
		return "trim-right"
	case MultiRoll:
		return "roll"
	case MultiSlip:
		return "slip"
	}
	return "none"
}

func (m *machine) State() State { return m.state }

// Preview returns the edge being edited and the uncommitted delta.
func (m *machine) Preview() (Edge, int) { return m.edge, m.delta }

func (m *machine) enter(s State, e Edge, frame int) {
	m.state, m.edge, m.press, m.delta = s, e, frame, 0
}

// finish leaves the edit state. It is the only place EditDone is called.
func (m *machine) finish() {
	if m.state == Idle {
		return
	}
	m.state, m.edge, m.delta = Idle, Edge{}, 0
	m.host.EditDone()
}

func (m *machine) Cancel() { m.finish() }

// perform hands an action to the host. A failed edit changed nothing; it is
// logged and the tool carries on.
func (m *machine) perform(a edit.Action) bool {
	if err := m.host.Perform(a); err != nil {
		m.host.Logger().Warn("tool edit failed", "action", a.Name(), "err", err)
		return false
	}
	return true
}

// nudge is the keyboard step: one frame, ten with shift.
func nudge(ev KeyEvent) int {
	step := 1
	if ev.Mods&Shift != 0 {
		step = 10
	}
	if ev.Key == KeyLeft {
		return -step
	}
	return step
}

// nearestPoint returns the index of the clip boundary nearest to frame on a
// track, as the index of the clip starting there (or the clip count for the
// end of the track), and the signed distance frame - point.
func nearestPoint(r flowcut.Reader, track, frame int) (index, distance int, ok bool) {
	count := r.ClipCount(track)
	if count == 0 {
		return 0, 0, false
	}
	i, inside := r.ClipIndexAt(track, frame)
	if !inside {
		if frame < 0 {
			return 0, frame, true
		}
		return count, frame - r.TrackLength(track), true
	}
	start, end := r.ClipStart(track, i), r.ClipStart(track, i+1)
	if frame-start <= end-frame {
		return i, frame - start, true
	}
	return i + 1, frame - end, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
