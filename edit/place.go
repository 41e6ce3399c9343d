package edit

import (
	"github.com/flowblade/flowcut"
)

type (
	// PlaceAction puts a new clip on a track.
	PlaceAction struct {
		base
		Track int
		Frame int
		Clip  flowcut.ClipID
	}

	MoveAction struct {
		base
		Clip      flowcut.ClipID
		FromTrack int
		ToTrack   int
		Frame     int
		Overwrite bool
	}
)

// Append adds a new clip made from c at the end of the track.
func Append(seq *flowcut.Sequence, track int, c flowcut.Clip) (*PlaceAction, bool) {
	if !seq.CanEdit(track, true) || !c.ValidRange(c.In, c.Out) {
		return nil, false
	}
	tx := seq.Begin()
	id := tx.Create(c)
	frame := tx.TrackLength(track)
	if tx.Insert(track, tx.ClipCount(track), id) != nil {
		return nil, false
	}
	return newPlace("append", seq, tx, track, frame, id)
}

// Insert adds a new clip made from c at frame, pushing everything after the
// frame later. A frame past the end of the track is padded with a blank.
func Insert(seq *flowcut.Sequence, track, frame int, c flowcut.Clip) (*PlaceAction, bool) {
	preserving := frame >= seq.TrackLength(track)
	if !seq.CanEdit(track, preserving) || !c.ValidRange(c.In, c.Out) || frame < 0 {
		return nil, false
	}
	tx := seq.Begin()
	index, err := tx.Split(track, frame)
	if err != nil {
		return nil, false
	}
	id := tx.Create(c)
	if tx.Insert(track, index, id) != nil {
		return nil, false
	}
	return newPlace("insert", seq, tx, track, frame, id)
}

// Overwrite puts a new clip made from c at frame, replacing whatever was in
// the range it covers. Clips partly in the range are split and the parts in
// the range are removed.
func Overwrite(seq *flowcut.Sequence, track, frame int, c flowcut.Clip) (*PlaceAction, bool) {
	if !seq.CanEdit(track, true) || !c.ValidRange(c.In, c.Out) || frame < 0 {
		return nil, false
	}
	tx := seq.Begin()
	index, err := tx.Clear(track, frame, frame+c.Length())
	if err != nil {
		return nil, false
	}
	id := tx.Create(c)
	if tx.Insert(track, index, id) != nil {
		return nil, false
	}
	return newPlace("overwrite", seq, tx, track, frame, id)
}

func newPlace(name string, seq *flowcut.Sequence, tx *flowcut.Tx, track, frame int, id flowcut.ClipID) (*PlaceAction, bool) {
	b, ok := newBase(name, seq, tx)
	if !ok {
		return nil, false
	}
	return &PlaceAction{base: b, Track: track, Frame: frame, Clip: id}, true
}

// Move takes the clip at index off its track and puts it at frame on another
// or the same track, keeping its id. An insert move closes the gap it leaves
// and pushes the clips at the target; an overwrite move leaves a blank and
// overwrites the target range. For an insert move on the same track, frame is
// a position on the timeline before the move.
func Move(seq *flowcut.Sequence, fromTrack, index, toTrack, frame int, overwrite bool) (*MoveAction, bool) {
	c, ok := seq.ClipAtIndex(fromTrack, index)
	if !ok || c.IsBlank() || frame < 0 {
		return nil, false
	}
	if !seq.CanEdit(fromTrack, overwrite) || !seq.CanEdit(toTrack, overwrite) {
		return nil, false
	}
	start := seq.ClipStart(fromTrack, index)
	target := frame
	if !overwrite && fromTrack == toTrack && frame > start {
		target = max(frame-c.Length(), start)
	}
	if fromTrack == toTrack && target == start {
		return nil, false
	}
	tx := seq.Begin()
	if _, err := tx.Remove(fromTrack, index); err != nil {
		return nil, false
	}
	if overwrite && tx.InsertBlank(fromTrack, index, c.Length()) != nil {
		return nil, false
	}
	var at int
	var err error
	if overwrite {
		at, err = tx.Clear(toTrack, target, target+c.Length())
	} else {
		at, err = tx.Split(toTrack, target)
	}
	if err != nil || tx.Insert(toTrack, at, c.ID) != nil {
		return nil, false
	}
	b, ok := newBase("move", seq, tx)
	if !ok {
		return nil, false
	}
	return &MoveAction{base: b, Clip: c.ID, FromTrack: fromTrack, ToTrack: toTrack, Frame: target, Overwrite: overwrite}, true
}
