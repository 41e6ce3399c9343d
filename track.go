package flowcut

import (
	"golang.org/x/exp/slices"
)

type (
	// Track is one layer of the sequence: an ordered, gapless list of clips.
	// The first and the last track of a sequence are Reserved and never
	// accept edits.
	Track struct {
		Index    int
		Kind     TrackKind
		Name     string
		Mode     TrackMode
		Mute     bool
		Height   TrackHeight
		Reserved bool

		clips []ClipID
	}

	// Reader is the read side of the timeline, implemented both by the
	// Sequence and by a Tx, which sees its own staged changes.
	Reader interface {
		TrackCount() int
		Track(i int) (Track, bool)
		Clip(id ClipID) (Clip, bool)
		ClipIDs(track int) []ClipID
		Clips(track int) []Clip
		ClipCount(track int) int
		ClipAtIndex(track, index int) (Clip, bool)
		ClipIndexAt(track, frame int) (int, bool)
		ClipStart(track, index int) int
		TrackLength(track int) int
		Length() int
		Locate(id ClipID) (track, index int, ok bool)
		EditableTracks() []int
		CanEdit(track int, preserving bool) bool
	}

	// source is what a view needs from the thing it reads.
	source interface {
		trackCount() int
		trackRef(i int) *Track
		clipRef(id ClipID) *Clip
		placement(id ClipID) int
	}

	view struct {
		src source
	}
)

func (t *Track) clone() *Track {
	r := *t
	r.clips = slices.Clone(t.clips)
	return &r
}

func (v view) TrackCount() int { return v.src.trackCount() }

// Track returns a copy of the track at index i.
func (v view) Track(i int) (Track, bool) {
	t := v.src.trackRef(i)
	if t == nil {
		return Track{}, false
	}
	return *t.clone(), true
}

func (v view) Clip(id ClipID) (Clip, bool) {
	c := v.src.clipRef(id)
	if c == nil {
		return Clip{}, false
	}
	return c.Copy(), true
}

func (v view) ClipIDs(track int) []ClipID {
	t := v.src.trackRef(track)
	if t == nil {
		return nil
	}
	return slices.Clone(t.clips)
}

func (v view) Clips(track int) []Clip {
	t := v.src.trackRef(track)
	if t == nil {
		return nil
	}
	ret := make([]Clip, len(t.clips))
	for i, id := range t.clips {
		ret[i] = v.src.clipRef(id).Copy()
	}
	return ret
}

func (v view) ClipCount(track int) int {
	t := v.src.trackRef(track)
	if t == nil {
		return 0
	}
	return len(t.clips)
}

func (v view) ClipAtIndex(track, index int) (Clip, bool) {
	t := v.src.trackRef(track)
	if t == nil || index < 0 || index >= len(t.clips) {
		return Clip{}, false
	}
	return v.src.clipRef(t.clips[index]).Copy(), true
}

// starts returns the prefix sums of the clip lengths of a track: starts[i] is
// the first frame of clip i and starts[len] is the length of the track.
func (v view) starts(t *Track) []int {
	ret := make([]int, len(t.clips)+1)
	for i, id := range t.clips {
		ret[i+1] = ret[i] + v.src.clipRef(id).Length()
	}
	return ret
}

// ClipIndexAt returns the index of the clip covering frame, or false if the
// frame is before the first or past the last clip of the track.
func (v view) ClipIndexAt(track, frame int) (int, bool) {
	t := v.src.trackRef(track)
	if t == nil || frame < 0 {
		return 0, false
	}
	starts := v.starts(t)
	if frame >= starts[len(starts)-1] {
		return 0, false
	}
	i, found := slices.BinarySearch(starts, frame)
	if found {
		return i, true
	}
	return i - 1, true
}

// ClipStart returns the first frame of clip index on the track. Index equal
// to the clip count gives the track length; invalid input gives -1.
func (v view) ClipStart(track, index int) int {
	t := v.src.trackRef(track)
	if t == nil || index < 0 || index > len(t.clips) {
		return -1
	}
	ret := 0
	for _, id := range t.clips[:index] {
		ret += v.src.clipRef(id).Length()
	}
	return ret
}

func (v view) TrackLength(track int) int {
	t := v.src.trackRef(track)
	if t == nil {
		return 0
	}
	return v.ClipStart(track, len(t.clips))
}

// Length is the length of the longest track.
func (v view) Length() int {
	ret := 0
	for i := 0; i < v.src.trackCount(); i++ {
		ret = max(ret, v.TrackLength(i))
	}
	return ret
}

// Locate returns the track and index of a placed clip.
func (v view) Locate(id ClipID) (track, index int, ok bool) {
	track = v.src.placement(id)
	if track < 0 {
		return 0, 0, false
	}
	index = slices.Index(v.src.trackRef(track).clips, id)
	return track, index, index >= 0
}

// EditableTracks lists the indices of all tracks that are not reserved,
// bottom first. Locked tracks are included; use CanEdit to filter.
func (v view) EditableTracks() []int {
	var ret []int
	for i := 0; i < v.src.trackCount(); i++ {
		if !v.src.trackRef(i).Reserved {
			ret = append(ret, i)
		}
	}
	return ret
}

// CanEdit tells whether an edit on the track would be accepted. A preserving
// edit keeps the start frame of every clip after the edited range, as
// overwrite, lift and cut do.
func (v view) CanEdit(track int, preserving bool) bool {
	t := v.src.trackRef(track)
	if t == nil || t.Reserved {
		return false
	}
	switch t.Mode {
	case Free:
		return true
	case SyncLocked:
		return preserving
	}
	return false
}

// checkTrackEdit tells whether the change of a track from before to after is
// legal under the mode of the track. lenBefore and lenAfter give the clip
// lengths before and after the change.
func checkTrackEdit(before, after *Track, lenBefore, lenAfter func(ClipID) int) error {
	if before.Reserved || before.Mode == Locked {
		return &TrackLockedError{Track: before.Index, Mode: before.Mode, Reserved: before.Reserved}
	}
	if before.Mode != SyncLocked {
		return nil
	}
	// The clips after the edited range are the common suffix of both lists.
	// They must not move.
	i, j := len(before.clips), len(after.clips)
	for i > 0 && j > 0 && before.clips[i-1] == after.clips[j-1] &&
		lenBefore(before.clips[i-1]) == lenAfter(after.clips[j-1]) {
		i--
		j--
	}
	if i == len(before.clips) {
		return nil
	}
	startBefore, startAfter := 0, 0
	for _, id := range before.clips[:i] {
		startBefore += lenBefore(id)
	}
	for _, id := range after.clips[:j] {
		startAfter += lenAfter(id)
	}
	if startBefore != startAfter {
		return &TrackLockedError{Track: before.Index, Mode: before.Mode}
	}
	return nil
}
