package edit

import (
	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/resync"
)

type (
	TrimAction struct {
		base
		Track, Index int
		Delta        int
	}

	// ChildTrim tells what a roll did to the sync child of the rolled clip.
	ChildTrim int

	// RollAction moves the edit point in front of clip Index by Delta frames,
	// trimming the clips on both sides of it. When one of them has exactly one
	// sync child the same roll is done on the child.
	RollAction struct {
		base
		Track, Index int
		Delta        int
		ChildTrim    ChildTrim
		Child        resync.Child
	}
)

const (
	// ChildTrimNone: neither clip has sync children.
	ChildTrimNone ChildTrim = iota
	ChildTrimApplied
	// ChildTrimMultiple: the parent has several children, so none of them
	// was trimmed. The user should be told.
	ChildTrimMultiple
	// ChildTrimBlocked: the child edge could not follow, e.g. because of the
	// track mode of the child or its media length.
	ChildTrimBlocked
)

func (c ChildTrim) String() string {
	switch c {
	case ChildTrimApplied:
		return "applied"
	case ChildTrimMultiple:
		return "multiple children"
	case ChildTrimBlocked:
		return "blocked"
	}
	return "none"
}

// TrimStart moves the start of the clip at index by delta frames, a positive
// delta making the clip shorter. Later clips move with it.
func TrimStart(seq *flowcut.Sequence, track, index, delta int) (*TrimAction, bool) {
	return trim("trim-start", seq, track, index, delta, false, func(c flowcut.Clip) (int, int) {
		if c.IsBlank() {
			return 0, c.Out - delta
		}
		return c.In + delta, c.Out
	})
}

// TrimEnd moves the end of the clip at index by delta frames, a positive
// delta making the clip longer. Later clips move with it.
func TrimEnd(seq *flowcut.Sequence, track, index, delta int) (*TrimAction, bool) {
	return trim("trim-end", seq, track, index, delta, false, func(c flowcut.Clip) (int, int) {
		return c.In, c.Out + delta
	})
}

// Slip moves the source range of the clip at index by delta frames, keeping
// its place and length on the track.
func Slip(seq *flowcut.Sequence, track, index, delta int) (*TrimAction, bool) {
	c, ok := seq.ClipAtIndex(track, index)
	if !ok || c.IsBlank() {
		return nil, false
	}
	return trim("slip", seq, track, index, delta, true, func(c flowcut.Clip) (int, int) {
		return c.In + delta, c.Out + delta
	})
}

func trim(name string, seq *flowcut.Sequence, track, index, delta int, inPlace bool, span func(flowcut.Clip) (int, int)) (*TrimAction, bool) {
	c, ok := seq.ClipAtIndex(track, index)
	if !ok || delta == 0 {
		return nil, false
	}
	preserving := inPlace || index == seq.ClipCount(track)-1
	if !seq.CanEdit(track, preserving) {
		return nil, false
	}
	in, out := span(c)
	if !c.ValidRange(in, out) {
		return nil, false
	}
	tx := seq.Begin()
	if tx.Resize(c.ID, in, out) != nil {
		return nil, false
	}
	b, ok := newBase(name, seq, tx)
	if !ok {
		return nil, false
	}
	return &TrimAction{base: b, Track: track, Index: index, Delta: delta}, true
}

// Roll moves the edit point between clips index-1 and index by delta frames.
func Roll(seq *flowcut.Sequence, track, index, delta int) (*RollAction, bool) {
	if delta == 0 || !seq.CanEdit(track, true) {
		return nil, false
	}
	left, ok := seq.ClipAtIndex(track, index-1)
	if !ok {
		return nil, false
	}
	right, ok := seq.ClipAtIndex(track, index)
	if !ok {
		return nil, false
	}
	tx := seq.Begin()
	if !roll(tx, track, index, delta) {
		return nil, false
	}
	a := &RollAction{Track: track, Index: index, Delta: delta}
	parentIsLeft := true
	children := resync.Children(seq, left.ID)
	if len(children) == 0 {
		parentIsLeft = false
		children = resync.Children(seq, right.ID)
	}
	switch {
	case len(children) == 1:
		a.Child = children[0]
		a.ChildTrim = ChildTrimBlocked
		if mirrorRoll(tx, track, a.Child, parentIsLeft, delta) {
			a.ChildTrim = ChildTrimApplied
		}
	case len(children) > 1:
		a.ChildTrim = ChildTrimMultiple
	}
	b, ok := newBase("roll", seq, tx)
	if !ok {
		return nil, false
	}
	a.base = b
	return a, true
}

// roll stages a roll of the edit point in front of clip index if both sides
// stay valid.
func roll(tx *flowcut.Tx, track, index, delta int) bool {
	left, ok := tx.ClipAtIndex(track, index-1)
	if !ok {
		return false
	}
	right, ok := tx.ClipAtIndex(track, index)
	if !ok {
		return false
	}
	lin, lout := left.In, left.Out+delta
	rin, rout := right.In+delta, right.Out
	if right.IsBlank() {
		rin, rout = 0, right.Out-delta
	}
	if !left.ValidRange(lin, lout) || !right.ValidRange(rin, rout) {
		return false
	}
	return tx.Resize(left.ID, lin, lout) == nil && tx.Resize(right.ID, rin, rout) == nil
}

// mirrorRoll stages the roll of the child edge matching the rolled edge of
// its parent: the end of the child if the parent is left of the edit point,
// its start otherwise.
func mirrorRoll(tx *flowcut.Tx, parentTrack int, child resync.Child, parentIsLeft bool, delta int) bool {
	if child.Track == parentTrack || !tx.CanEdit(child.Track, true) {
		return false
	}
	_, index, ok := tx.Locate(child.Clip)
	if !ok {
		return false
	}
	c, _ := tx.ClipAtIndex(child.Track, index)
	count := tx.ClipCount(child.Track)
	switch {
	case parentIsLeft && index+1 < count:
		return roll(tx, child.Track, index+1, delta)
	case parentIsLeft:
		return c.ValidRange(c.In, c.Out+delta) && tx.Resize(c.ID, c.In, c.Out+delta) == nil
	case index > 0:
		return roll(tx, child.Track, index, delta)
	case delta > 0:
		// the child starts the track: its start moves later behind a blank
		return c.ValidRange(c.In+delta, c.Out) &&
			tx.Resize(c.ID, c.In+delta, c.Out) == nil &&
			tx.InsertBlank(child.Track, 0, delta) == nil
	}
	return false
}
