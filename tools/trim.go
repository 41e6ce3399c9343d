package tools

import (
	"math"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/edit"
)

type (
	// TrimTool edits clip edges. Which edges it recognizes depends on how it
	// was created: one-roll trims ripple a single edge, two-roll trims move
	// an edit point and the multi-trim tool does both plus slips, choosing by
	// where on the clip the press lands.
	TrimTool struct {
		machine
		snap   int
		locate locator
	}

	locator func(r flowcut.Reader, track, frame, snap int) (Edge, bool)
)

func NewOneRollTool(h Host, snap int) *TrimTool {
	return &TrimTool{machine: machine{host: h}, snap: snap, locate: oneRollEdge}
}

func NewTwoRollTool(h Host, snap int) *TrimTool {
	return &TrimTool{machine: machine{host: h}, snap: snap, locate: twoRollEdge}
}

func NewSlipTool(h Host) *TrimTool {
	return &TrimTool{machine: machine{host: h}, locate: slipEdge}
}

func NewMultiTrimTool(h Host, snap int) *TrimTool {
	return &TrimTool{machine: machine{host: h}, snap: snap, locate: multiTrimEdge}
}

func (t *TrimTool) Press(ev PointerEvent) {
	t.finish()
	e, ok := t.locate(t.host.Sequence(), ev.Track, ev.Frame, t.snap)
	if !ok {
		t.host.DefaultPress(ev)
		return
	}
	t.enter(ActiveEdit, e, ev.Frame)
}

func (t *TrimTool) Drag(ev PointerEvent) {
	if t.state == ActiveEdit {
		t.delta = ev.Frame - t.press
	}
}

func (t *TrimTool) Release(ev PointerEvent) {
	if t.state != ActiveEdit {
		return
	}
	t.commit(ev.Frame - t.press)
	t.finish()
}

func (t *TrimTool) Key(ev KeyEvent) bool {
	switch t.state {
	case KeyboardEdit:
		switch ev.Key {
		case KeyLeft, KeyRight:
			t.commit(nudge(ev))
		default:
			t.finish()
		}
		return true
	case ActiveEdit:
		if ev.Key == KeyEscape {
			t.finish()
			return true
		}
	}
	return false
}

func (t *TrimTool) EnterKeyboard(track, frame int) bool {
	t.finish()
	e, ok := t.locate(t.host.Sequence(), track, frame, math.MaxInt32)
	if !ok {
		return false
	}
	t.enter(KeyboardEdit, e, frame)
	return true
}

// commit performs the edit of the current edge. Nothing happens if the edit
// is not possible.
func (t *TrimTool) commit(delta int) {
	seq := t.host.Sequence()
	e := t.edge
	var a edit.Action
	var ok bool
	switch e.Context {
	case TrimLeft:
		a, ok = edit.TrimStart(seq, e.Track, e.Index, delta)
	case TrimRight:
		a, ok = edit.TrimEnd(seq, e.Track, e.Index, delta)
	case MultiRoll:
		a, ok = edit.Roll(seq, e.Track, e.Index, delta)
	case MultiSlip:
		// dragging right shows earlier source frames
		a, ok = edit.Slip(seq, e.Track, e.Index, -delta)
	}
	if ok {
		t.perform(a)
	}
}

func oneRollEdge(r flowcut.Reader, track, frame, snap int) (Edge, bool) {
	index, d, ok := nearestPoint(r, track, frame)
	if !ok || abs(d) > snap || !r.CanEdit(track, true) {
		return Edge{}, false
	}
	return sideOf(r, track, index, d), true
}

func twoRollEdge(r flowcut.Reader, track, frame, snap int) (Edge, bool) {
	index, d, ok := nearestPoint(r, track, frame)
	if !ok || abs(d) > snap || index == 0 || index >= r.ClipCount(track) || !r.CanEdit(track, true) {
		return Edge{}, false
	}
	return Edge{Context: MultiRoll, Track: track, Index: index}, true
}

func slipEdge(r flowcut.Reader, track, frame, snap int) (Edge, bool) {
	i, inside := r.ClipIndexAt(track, frame)
	if !inside || !r.CanEdit(track, true) {
		return Edge{}, false
	}
	if c, _ := r.ClipAtIndex(track, i); c.IsBlank() {
		return Edge{}, false
	}
	return Edge{Context: MultiSlip, Track: track, Index: i}, true
}

// multiTrimEdge rolls near an edit point, trims a little further from it and
// slips inside the clip body.
func multiTrimEdge(r flowcut.Reader, track, frame, snap int) (Edge, bool) {
	if !r.CanEdit(track, true) {
		return Edge{}, false
	}
	index, d, ok := nearestPoint(r, track, frame)
	if !ok {
		return Edge{}, false
	}
	if abs(d) <= snap/3 && index > 0 && index < r.ClipCount(track) {
		return Edge{Context: MultiRoll, Track: track, Index: index}, true
	}
	if abs(d) <= snap {
		return sideOf(r, track, index, d), true
	}
	i, inside := r.ClipIndexAt(track, frame)
	if c, _ := r.ClipAtIndex(track, i); inside && !c.IsBlank() {
		return Edge{Context: MultiSlip, Track: track, Index: i}, true
	}
	return Edge{}, false
}

// sideOf picks the clip edge at the edit point in front of clip index: the
// start of the clip after the point when the press was right of it, the end
// of the clip before it otherwise.
func sideOf(r flowcut.Reader, track, index, d int) Edge {
	count := r.ClipCount(track)
	if (d >= 0 && index < count) || index == 0 {
		return Edge{Context: TrimLeft, Track: track, Index: index}
	}
	return Edge{Context: TrimRight, Track: track, Index: index - 1}
}
