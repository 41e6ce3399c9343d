package edit

import (
	"github.com/flowblade/flowcut"
)

type (
	// Split records one clip split in two at Frame.
	Split struct {
		Track int
		Index int
		Clip  flowcut.ClipID
		Frame int
		// SplitIn is the source frame where the tail begins.
		SplitIn int
		Tail    flowcut.ClipID
	}

	CutAction struct {
		base
		Split
	}

	// CutAllAction splits every track that can be cut at a frame. Undoing
	// it merges all of them back at once.
	CutAllAction struct {
		base
		Frame  int
		Splits []Split
	}
)

// Cut splits the clip under frame on a track. There is no action if the frame
// is on a clip boundary, on a blank, past the end of the track, or if the
// track can not be edited.
func Cut(seq *flowcut.Sequence, track, frame int) (*CutAction, bool) {
	tx := seq.Begin()
	sp, ok := cutOn(tx, track, frame)
	if !ok {
		return nil, false
	}
	b, ok := newBase("cut", seq, tx)
	if !ok {
		return nil, false
	}
	return &CutAction{base: b, Split: sp}, true
}

// CutAll cuts all editable tracks at frame. Every track is checked against
// the sequence as it was before the action, and tracks that can not be cut
// are skipped. There is no action when no track can be cut.
func CutAll(seq *flowcut.Sequence, frame int) (*CutAllAction, bool) {
	var splits []Split
	for _, track := range seq.EditableTracks() {
		if sp, ok := cutOn(seq, track, frame); ok {
			splits = append(splits, sp)
		}
	}
	if len(splits) == 0 {
		return nil, false
	}
	tx := seq.Begin()
	for i := range splits {
		sp, ok := cutOn(tx, splits[i].Track, frame)
		if !ok {
			return nil, false
		}
		splits[i] = sp
	}
	b, ok := newBase("cut-all", seq, tx)
	if !ok {
		return nil, false
	}
	return &CutAllAction{base: b, Frame: frame, Splits: splits}, true
}

// cutOn checks whether a cut at frame is legal. If r is a Tx, the cut is
// staged on it.
func cutOn(r flowcut.Reader, track, frame int) (Split, bool) {
	if !r.CanEdit(track, true) {
		return Split{}, false
	}
	index, ok := r.ClipIndexAt(track, frame)
	if !ok {
		return Split{}, false
	}
	c, _ := r.ClipAtIndex(track, index)
	start := r.ClipStart(track, index)
	if c.IsBlank() || start == frame {
		return Split{}, false
	}
	sp := Split{Track: track, Index: index, Clip: c.ID, Frame: frame, SplitIn: c.In + frame - start}
	tx, ok := r.(*flowcut.Tx)
	if !ok {
		return sp, true
	}
	tail, err := tx.Split(track, frame)
	if err != nil {
		return Split{}, false
	}
	sp.Tail = tx.ClipIDs(track)[tail]
	return sp, true
}
