package edit

import (
	"github.com/flowblade/flowcut"
)

type (
	// RemoveAction takes clips off one or more tracks. The removed clips are
	// kept inside the patch, so undo puts back the very same clips.
	RemoveAction struct {
		base
		Tracks   []int
		From, To int
		Removed  []flowcut.Clip
	}
)

// SpliceOut removes the clip at index and closes the gap.
func SpliceOut(seq *flowcut.Sequence, track, index int) (*RemoveAction, bool) {
	return removeClip("splice-out", seq, track, index, false)
}

// Lift removes the clip at index and leaves a blank of the same length.
func Lift(seq *flowcut.Sequence, track, index int) (*RemoveAction, bool) {
	return removeClip("lift", seq, track, index, true)
}

func removeClip(name string, seq *flowcut.Sequence, track, index int, lift bool) (*RemoveAction, bool) {
	c, ok := seq.ClipAtIndex(track, index)
	if !ok || (lift && c.IsBlank()) {
		return nil, false
	}
	start := seq.ClipStart(track, index)
	return deleteRange(name, seq, []int{track}, start, start+c.Length(), lift)
}

// DeleteRange removes the frames [from, to) of a track. With ripple the later
// clips move back to close the gap, otherwise a blank is left in its place.
func DeleteRange(seq *flowcut.Sequence, track, from, to int, ripple bool) (*RemoveAction, bool) {
	name := "lift-range"
	if ripple {
		name = "delete-range"
	}
	return deleteRange(name, seq, []int{track}, from, to, !ripple)
}

// RippleDelete removes the frames [from, to) from every editable track and
// closes the gaps, keeping the tracks in sync with each other. Tracks that
// end before from are left alone; if any other track can not be edited there
// is no action.
func RippleDelete(seq *flowcut.Sequence, from, to int) (*RemoveAction, bool) {
	var tracks []int
	for _, t := range seq.EditableTracks() {
		if seq.TrackLength(t) <= from {
			continue
		}
		if !seq.CanEdit(t, false) {
			return nil, false
		}
		tracks = append(tracks, t)
	}
	return deleteRange("ripple-delete", seq, tracks, from, to, false)
}

func deleteRange(name string, seq *flowcut.Sequence, tracks []int, from, to int, lift bool) (*RemoveAction, bool) {
	if from < 0 || to <= from || len(tracks) == 0 {
		return nil, false
	}
	a := &RemoveAction{Tracks: tracks, From: from, To: to}
	tx := seq.Begin()
	for _, track := range tracks {
		if !seq.CanEdit(track, lift) {
			return nil, false
		}
		end := min(to, tx.TrackLength(track))
		if end <= from {
			continue
		}
		index, err := tx.Split(track, from)
		if err != nil {
			return nil, false
		}
		last, err := tx.Split(track, end)
		if err != nil {
			return nil, false
		}
		for ; last > index; last-- {
			c, err := tx.Discard(track, index)
			if err != nil {
				return nil, false
			}
			a.Removed = append(a.Removed, c)
		}
		if lift && tx.InsertBlank(track, index, end-from) != nil {
			return nil, false
		}
	}
	b, ok := newBase(name, seq, tx)
	if !ok {
		return nil, false
	}
	a.base = b
	return a, true
}
