package flowcut

import (
	"fmt"

	"github.com/flowblade/flowcut/pipeline"
)

type (
	// Op is one primitive change of the timeline. Ops are only created by a
	// Tx and replayed by Sequence.Apply.
	Op interface {
		fmt.Stringer
		// stage applies the op to the staging view, checking that the view is
		// in the state the op was recorded against, and returns the pipeline
		// calls that mirror it.
		stage(tx *Tx) ([]step, error)
		inverse() Op
	}

	// Patch is an ordered list of ops applied as one unit.
	Patch []Op

	// Span is the inclusive source range of a clip.
	Span struct {
		In, Out int
	}

	// step is a single playlist call. Removals carry the entry they expect to
	// find.
	step struct {
		track  int
		index  int
		insert bool
		entry  pipeline.Entry
	}

	createOp struct{ Clip Clip }
	dropOp   struct{ Clip Clip }

	insertOp struct {
		Track, Index int
		Clip         ClipID
	}

	removeOp struct {
		Track, Index int
		Clip         ClipID
	}

	resizeOp struct {
		Clip     ClipID
		From, To Span
	}

	mediaOp struct {
		Clip     ClipID
		From, To Media
	}

	linkOp struct {
		Clip     ClipID
		From, To *SyncLink
	}

	propertyOp struct {
		Clip     ClipID
		From, To []Property
	}

	metaOp struct {
		Clip     ClipID
		From, To Meta
	}
)

// Inverse returns the patch that undoes p.
func (p Patch) Inverse() Patch {
	ret := make(Patch, len(p))
	for i, op := range p {
		ret[len(p)-1-i] = op.inverse()
	}
	return ret
}

func (st step) inverse() step {
	st.insert = !st.insert
	return st
}

func (st step) String() string {
	if st.insert {
		return fmt.Sprintf("insert %v at %d:%d", st.entry, st.track, st.index)
	}
	return fmt.Sprintf("remove %v at %d:%d", st.entry, st.track, st.index)
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPatchMismatch)
}

func (o createOp) String() string { return fmt.Sprintf("create #%d %v", o.Clip.ID, o.Clip.Type) }
func (o createOp) inverse() Op    { return dropOp(o) }

func (o createOp) stage(tx *Tx) ([]step, error) {
	id := o.Clip.ID
	if id == NoClip {
		return nil, mismatch("create without an id")
	}
	if tx.clipRef(id) != nil {
		return nil, mismatch("clip #%d exists", id)
	}
	c := o.Clip.Copy()
	tx.clips[id] = &c
	delete(tx.dropped, id)
	tx.where[id] = -1
	tx.nextID = max(tx.nextID, id+1)
	return nil, nil
}

func (o dropOp) String() string { return fmt.Sprintf("drop #%d", o.Clip.ID) }
func (o dropOp) inverse() Op    { return createOp(o) }

func (o dropOp) stage(tx *Tx) ([]step, error) {
	id := o.Clip.ID
	c := tx.clipRef(id)
	if c == nil {
		return nil, fmt.Errorf("drop #%d: %w", id, ErrNoSuchClip)
	}
	if tx.placement(id) >= 0 {
		return nil, mismatch("drop of placed clip #%d", id)
	}
	if !sameClip(*c, o.Clip) {
		return nil, mismatch("drop of modified clip #%d", id)
	}
	delete(tx.clips, id)
	tx.dropped[id] = true
	tx.where[id] = -1
	return nil, nil
}

func (o insertOp) String() string { return fmt.Sprintf("insert #%d at %d:%d", o.Clip, o.Track, o.Index) }
func (o insertOp) inverse() Op    { return removeOp(o) }

func (o insertOp) stage(tx *Tx) ([]step, error) {
	t := tx.trackRef(o.Track)
	if t == nil {
		return nil, fmt.Errorf("insert into track %d: %w", o.Track, ErrNoSuchTrack)
	}
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("insert #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if tx.placement(o.Clip) >= 0 {
		return nil, mismatch("clip #%d is already placed", o.Clip)
	}
	if o.Index < 0 || o.Index > len(t.clips) {
		return nil, mismatch("insert index %d on track %d with %d clips", o.Index, o.Track, len(t.clips))
	}
	mt := tx.mutTrack(o.Track)
	mt.clips = insertID(mt.clips, o.Index, o.Clip)
	tx.where[o.Clip] = o.Track
	return []step{{track: o.Track, index: o.Index, insert: true, entry: c.entry()}}, nil
}

func (o removeOp) String() string { return fmt.Sprintf("remove #%d at %d:%d", o.Clip, o.Track, o.Index) }
func (o removeOp) inverse() Op    { return insertOp(o) }

func (o removeOp) stage(tx *Tx) ([]step, error) {
	t := tx.trackRef(o.Track)
	if t == nil {
		return nil, fmt.Errorf("remove from track %d: %w", o.Track, ErrNoSuchTrack)
	}
	if o.Index < 0 || o.Index >= len(t.clips) || t.clips[o.Index] != o.Clip {
		return nil, mismatch("clip #%d is not at %d:%d", o.Clip, o.Track, o.Index)
	}
	c := tx.clipRef(o.Clip)
	mt := tx.mutTrack(o.Track)
	mt.clips = deleteID(mt.clips, o.Index)
	tx.where[o.Clip] = -1
	return []step{{track: o.Track, index: o.Index, entry: c.entry()}}, nil
}

func (o resizeOp) String() string {
	return fmt.Sprintf("resize #%d %d..%d -> %d..%d", o.Clip, o.From.In, o.From.Out, o.To.In, o.To.Out)
}

func (o resizeOp) inverse() Op { return resizeOp{Clip: o.Clip, From: o.To, To: o.From} }

func (o resizeOp) stage(tx *Tx) ([]step, error) {
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("resize #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if c.In != o.From.In || c.Out != o.From.Out {
		return nil, mismatch("clip #%d is %d..%d, not %d..%d", o.Clip, c.In, c.Out, o.From.In, o.From.Out)
	}
	if !c.ValidRange(o.To.In, o.To.Out) {
		return nil, mismatch("%d..%d is not a valid range for clip #%d", o.To.In, o.To.Out, o.Clip)
	}
	return tx.restage(o.Clip, func(c *Clip) { c.In, c.Out = o.To.In, o.To.Out }), nil
}

func (o mediaOp) String() string { return fmt.Sprintf("media #%d %s -> %s", o.Clip, o.From.Resource, o.To.Resource) }
func (o mediaOp) inverse() Op    { return mediaOp{Clip: o.Clip, From: o.To, To: o.From} }

func (o mediaOp) stage(tx *Tx) ([]step, error) {
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("media of #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if c.Media() != o.From {
		return nil, mismatch("clip #%d media is %s, not %s", o.Clip, c.Resource, o.From.Resource)
	}
	if o.To.Type == Blank || c.IsBlank() {
		return nil, mismatch("media of a blank can not be replaced")
	}
	if o.To.MediaLength > 0 && c.Out >= o.To.MediaLength {
		return nil, mismatch("%s is too short for clip #%d", o.To.Resource, o.Clip)
	}
	return tx.restage(o.Clip, func(c *Clip) {
		c.Type, c.Resource, c.MediaLength = o.To.Type, o.To.Resource, o.To.MediaLength
	}), nil
}

func (o linkOp) String() string { return fmt.Sprintf("link #%d", o.Clip) }
func (o linkOp) inverse() Op    { return linkOp{Clip: o.Clip, From: o.To, To: o.From} }

func (o linkOp) stage(tx *Tx) ([]step, error) {
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("link of #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if !sameLink(c.Sync, o.From) {
		return nil, mismatch("sync link of clip #%d changed", o.Clip)
	}
	if o.To != nil && o.To.Parent == o.Clip {
		return nil, mismatch("clip #%d can not be its own sync parent", o.Clip)
	}
	tx.mutClip(o.Clip).Sync = o.To.copy()
	return nil, nil
}

func (o propertyOp) String() string { return fmt.Sprintf("properties #%d", o.Clip) }
func (o propertyOp) inverse() Op    { return propertyOp{Clip: o.Clip, From: o.To, To: o.From} }

func (o propertyOp) stage(tx *Tx) ([]step, error) {
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("properties of #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if !equalProps(c.Props, o.From) {
		return nil, mismatch("properties of clip #%d changed", o.Clip)
	}
	for _, p := range o.To {
		if err := p.check(); err != nil {
			return nil, fmt.Errorf("properties of #%d: %w", o.Clip, err)
		}
	}
	mc := tx.mutClip(o.Clip)
	mc.Props = nil
	for _, p := range o.To {
		mc.Props = append(mc.Props, p.Copy())
	}
	return nil, nil
}

func (o metaOp) String() string { return fmt.Sprintf("meta #%d", o.Clip) }
func (o metaOp) inverse() Op    { return metaOp{Clip: o.Clip, From: o.To, To: o.From} }

func (o metaOp) stage(tx *Tx) ([]step, error) {
	c := tx.clipRef(o.Clip)
	if c == nil {
		return nil, fmt.Errorf("meta of #%d: %w", o.Clip, ErrNoSuchClip)
	}
	if !c.Meta().equal(o.From) {
		return nil, mismatch("metadata of clip #%d changed", o.Clip)
	}
	mc := tx.mutClip(o.Clip)
	m := o.To
	mc.Name, mc.Mute, mc.Color = m.Name, m.Mute, m.Color
	mc.Markers = append([]Marker(nil), m.Markers...)
	return nil, nil
}

// sameClip compares two clips ignoring the derived sync state.
func sameClip(a, b Clip) bool {
	return a.ID == b.ID && a.Type == b.Type && a.Resource == b.Resource &&
		a.MediaLength == b.MediaLength && a.In == b.In && a.Out == b.Out &&
		a.Meta().equal(b.Meta()) && sameLink(a.Sync, b.Sync) && equalProps(a.Props, b.Props)
}
