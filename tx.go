package flowcut

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// Tx stages changes on top of a Sequence without modifying it. Every change
// is recorded as an Op; the resulting Patch is what gets applied, undone and
// redone. A Tx reads like the sequence would look after its patch.
type Tx struct {
	view

	seq     *Sequence
	tracks  map[int]*Track
	clips   map[ClipID]*Clip
	dropped map[ClipID]bool
	where   map[ClipID]int
	nextID  ClipID
	ops     Patch
	steps   []step
}

// Begin starts staging changes against the current state of s.
func (s *Sequence) Begin() *Tx {
	tx := &Tx{
		seq:     s,
		tracks:  map[int]*Track{},
		clips:   map[ClipID]*Clip{},
		dropped: map[ClipID]bool{},
		where:   map[ClipID]int{},
		nextID:  s.nextID,
	}
	tx.view = view{src: tx}
	return tx
}

func (tx *Tx) trackCount() int { return len(tx.seq.tracks) }

func (tx *Tx) trackRef(i int) *Track {
	if t, ok := tx.tracks[i]; ok {
		return t
	}
	return tx.seq.trackRef(i)
}

func (tx *Tx) clipRef(id ClipID) *Clip {
	if tx.dropped[id] {
		return nil
	}
	if c, ok := tx.clips[id]; ok {
		return c
	}
	return tx.seq.arena[id]
}

func (tx *Tx) placement(id ClipID) int {
	if t, ok := tx.where[id]; ok {
		return t
	}
	return tx.seq.placement(id)
}

func (tx *Tx) mutTrack(i int) *Track {
	if t, ok := tx.tracks[i]; ok {
		return t
	}
	t := tx.seq.tracks[i].clone()
	tx.tracks[i] = t
	return t
}

func (tx *Tx) mutClip(id ClipID) *Clip {
	if c, ok := tx.clips[id]; ok {
		return c
	}
	c := tx.seq.arena[id].Copy()
	tx.clips[id] = &c
	return &c
}

// restage modifies a clip in a way that changes its pipeline entry. A placed
// clip is mirrored by replacing its entry, and its track counts as edited.
func (tx *Tx) restage(id ClipID, f func(c *Clip)) []step {
	old := tx.clipRef(id).entry()
	mc := tx.mutClip(id)
	f(mc)
	track, index, ok := tx.Locate(id)
	if !ok {
		return nil
	}
	tx.mutTrack(track)
	return []step{
		{track: track, index: index, entry: old},
		{track: track, index: index, insert: true, entry: mc.entry()},
	}
}

func (tx *Tx) do(op Op) error {
	steps, err := op.stage(tx)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, op)
	tx.steps = append(tx.steps, steps...)
	return nil
}

// Patch returns the ops recorded so far.
func (tx *Tx) Patch() Patch { return slices.Clone(tx.ops) }

func (tx *Tx) Empty() bool { return len(tx.ops) == 0 }

// Create adds an unplaced clip to the arena and returns its new id. The ID of
// c is ignored.
func (tx *Tx) Create(c Clip) ClipID {
	c = c.Copy()
	c.ID = tx.nextID
	if c.Sync != nil {
		c.Sync.State = SyncNone
	}
	if err := tx.do(createOp{Clip: c}); err != nil {
		// ids at or above nextID are never in use
		panic(err)
	}
	return c.ID
}

// Drop removes an unplaced clip from the arena.
func (tx *Tx) Drop(id ClipID) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("drop #%d: %w", id, ErrNoSuchClip)
	}
	return tx.do(dropOp{Clip: c.Copy()})
}

func (tx *Tx) Insert(track, index int, id ClipID) error {
	return tx.do(insertOp{Track: track, Index: index, Clip: id})
}

// Remove takes the clip at index off the track. The clip stays in the arena.
func (tx *Tx) Remove(track, index int) (ClipID, error) {
	t := tx.trackRef(track)
	if t == nil {
		return NoClip, fmt.Errorf("remove from track %d: %w", track, ErrNoSuchTrack)
	}
	if index < 0 || index >= len(t.clips) {
		return NoClip, fmt.Errorf("remove %d from track %d: %w", index, track, ErrNoSuchClip)
	}
	id := t.clips[index]
	return id, tx.do(removeOp{Track: track, Index: index, Clip: id})
}

func (tx *Tx) Resize(id ClipID, in, out int) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("resize #%d: %w", id, ErrNoSuchClip)
	}
	if c.In == in && c.Out == out {
		return nil
	}
	return tx.do(resizeOp{Clip: id, From: Span{c.In, c.Out}, To: Span{in, out}})
}

func (tx *Tx) SetMedia(id ClipID, m Media) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("media of #%d: %w", id, ErrNoSuchClip)
	}
	if c.Media() == m {
		return nil
	}
	return tx.do(mediaOp{Clip: id, From: c.Media(), To: m})
}

func (tx *Tx) SetSync(id ClipID, link *SyncLink) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("link of #%d: %w", id, ErrNoSuchClip)
	}
	if sameLink(c.Sync, link) {
		return nil
	}
	return tx.do(linkOp{Clip: id, From: c.Sync.copy(), To: link.copy()})
}

func (tx *Tx) SetProperties(id ClipID, props []Property) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("properties of #%d: %w", id, ErrNoSuchClip)
	}
	if equalProps(c.Props, props) {
		return nil
	}
	from := make([]Property, len(c.Props))
	for i, p := range c.Props {
		from[i] = p.Copy()
	}
	to := make([]Property, len(props))
	for i, p := range props {
		if err := p.check(); err != nil {
			return fmt.Errorf("properties of #%d: %w", id, err)
		}
		to[i] = p.Copy()
	}
	return tx.do(propertyOp{Clip: id, From: from, To: to})
}

func (tx *Tx) SetMeta(id ClipID, m Meta) error {
	c := tx.clipRef(id)
	if c == nil {
		return fmt.Errorf("meta of #%d: %w", id, ErrNoSuchClip)
	}
	if c.Meta().equal(m) {
		return nil
	}
	return tx.do(metaOp{Clip: id, From: c.Meta(), To: m})
}

// Discard removes the clip at index from the track and drops it.
func (tx *Tx) Discard(track, index int) (Clip, error) {
	id, err := tx.Remove(track, index)
	if err != nil {
		return Clip{}, err
	}
	c := tx.clipRef(id).Copy()
	return c, tx.Drop(id)
}

// Split makes sure a clip boundary exists at frame and returns the index of
// the clip starting there. Blanks are split like media clips. A frame past
// the end of the track pads the track with a blank and returns the clip
// count.
func (tx *Tx) Split(track, frame int) (int, error) {
	if tx.trackRef(track) == nil {
		return 0, fmt.Errorf("split track %d: %w", track, ErrNoSuchTrack)
	}
	if frame < 0 {
		return 0, errors.New("split at a negative frame")
	}
	length := tx.TrackLength(track)
	if frame >= length {
		n := tx.ClipCount(track)
		if frame == length {
			return n, nil
		}
		id := tx.Create(NewBlank(frame - length))
		return n + 1, tx.Insert(track, n, id)
	}
	i, _ := tx.ClipIndexAt(track, frame)
	start := tx.ClipStart(track, i)
	if start == frame {
		return i, nil
	}
	c := tx.clipRef(tx.trackRef(track).clips[i]).Copy()
	head, tail := SplitClip(c, frame-start)
	if err := tx.Resize(c.ID, head.In, head.Out); err != nil {
		return 0, err
	}
	id := tx.Create(tail)
	return i + 1, tx.Insert(track, i+1, id)
}

// Clear splits the track at from and to and discards everything between. It
// returns the index where the cleared range was.
func (tx *Tx) Clear(track, from, to int) (int, error) {
	i, err := tx.Split(track, from)
	if err != nil {
		return 0, err
	}
	j, err := tx.Split(track, to)
	if err != nil {
		return 0, err
	}
	for ; j > i; j-- {
		if _, err := tx.Discard(track, i); err != nil {
			return 0, err
		}
	}
	return i, nil
}

// InsertBlank inserts a new blank of length frames at index.
func (tx *Tx) InsertBlank(track, index, length int) error {
	if length <= 0 {
		return nil
	}
	return tx.Insert(track, index, tx.Create(NewBlank(length)))
}

// SplitClip divides c at the clip local frame offset. The head keeps the id
// of c; the tail has none and carries a copy of the sync link, the markers
// inside its range and the properties shifted to its own first frame.
func SplitClip(c Clip, offset int) (head, tail Clip) {
	head = c.Copy()
	tail = c.Copy()
	tail.ID = NoClip
	if c.IsBlank() {
		head.Out = offset - 1
		tail.Out = c.Out - offset
	} else {
		head.Out = c.In + offset - 1
		tail.In = c.In + offset
	}
	tail.Markers = nil
	for _, m := range c.Markers {
		if m.Frame >= tail.In && m.Frame <= tail.Out {
			tail.Markers = append(tail.Markers, m)
		}
	}
	tail.Props = nil
	for _, p := range c.Props {
		tail.Props = append(tail.Props, p.shift(offset))
	}
	return head, tail
}

func insertID(ids []ClipID, i int, id ClipID) []ClipID {
	return slices.Insert(ids, i, id)
}

func deleteID(ids []ClipID, i int) []ClipID {
	return slices.Delete(ids, i, i+1)
}
