package edit

import (
	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/resync"
)

// ClipAction changes one clip in place.
type ClipAction struct {
	base
	Clip flowcut.ClipID
}

func clipAction(name string, seq *flowcut.Sequence, id flowcut.ClipID, stage func(tx *flowcut.Tx) error) (*ClipAction, bool) {
	tx := seq.Begin()
	if stage(tx) != nil {
		return nil, false
	}
	b, ok := newBase(name, seq, tx)
	if !ok {
		return nil, false
	}
	return &ClipAction{base: b, Clip: id}, true
}

// ReplaceMedia points a clip at other media, e.g. a proxy file rendered by a
// background job, keeping its range on the track.
func ReplaceMedia(seq *flowcut.Sequence, id flowcut.ClipID, m flowcut.Media) (*ClipAction, bool) {
	c, ok := seq.Clip(id)
	if !ok || c.IsBlank() || m.Type == flowcut.Blank {
		return nil, false
	}
	if track, _, placed := seq.Locate(id); placed && !seq.CanEdit(track, true) {
		return nil, false
	}
	return clipAction("replace-media", seq, id, func(tx *flowcut.Tx) error {
		return tx.SetMedia(id, m)
	})
}

// Link makes child a sync child of parent at their current positions. Both
// must be placed media clips on different tracks; parent must not be a child
// and child must not be a parent.
func Link(seq *flowcut.Sequence, child, parent flowcut.ClipID) (*ClipAction, bool) {
	c, ok := seq.Clip(child)
	if !ok || c.IsBlank() {
		return nil, false
	}
	p, ok := seq.Clip(parent)
	if !ok || p.IsBlank() || p.Sync != nil || child == parent {
		return nil, false
	}
	if len(resync.Children(seq, child)) > 0 {
		return nil, false
	}
	childTrack, _, ok := seq.Locate(child)
	if !ok {
		return nil, false
	}
	parentTrack, _, ok := seq.Locate(parent)
	if !ok || parentTrack == childTrack {
		return nil, false
	}
	childAt, _ := resync.Aligned(seq, child)
	parentAt, _ := resync.Aligned(seq, parent)
	link := &flowcut.SyncLink{Parent: parent, Offset: childAt - parentAt}
	return clipAction("link", seq, child, func(tx *flowcut.Tx) error {
		return tx.SetSync(child, link)
	})
}

// Unlink removes the sync relation of a child clip.
func Unlink(seq *flowcut.Sequence, child flowcut.ClipID) (*ClipAction, bool) {
	c, ok := seq.Clip(child)
	if !ok || c.Sync == nil {
		return nil, false
	}
	return clipAction("unlink", seq, child, func(tx *flowcut.Tx) error {
		return tx.SetSync(child, nil)
	})
}

// SetKeyframes replaces the property of the same kind as p on a clip. A
// property without keyframes removes it.
func SetKeyframes(seq *flowcut.Sequence, id flowcut.ClipID, p flowcut.Property) (*ClipAction, bool) {
	c, ok := seq.Clip(id)
	if !ok || c.IsBlank() {
		return nil, false
	}
	p, err := flowcut.NewProperty(p.Kind, p.Keyframes)
	if err != nil {
		return nil, false
	}
	var props []flowcut.Property
	replaced := false
	for _, q := range c.Props {
		if q.Kind != p.Kind {
			props = append(props, q)
			continue
		}
		replaced = true
		if len(p.Keyframes) > 0 {
			props = append(props, p)
		}
	}
	if !replaced && len(p.Keyframes) > 0 {
		props = append(props, p)
	}
	return clipAction("keyframes", seq, id, func(tx *flowcut.Tx) error {
		return tx.SetProperties(id, props)
	})
}

func SetClipMute(seq *flowcut.Sequence, id flowcut.ClipID, mute flowcut.Mute) (*ClipAction, bool) {
	return setMeta("clip-mute", seq, id, func(m *flowcut.Meta) { m.Mute = mute })
}

func SetClipColor(seq *flowcut.Sequence, id flowcut.ClipID, color string) (*ClipAction, bool) {
	return setMeta("clip-color", seq, id, func(m *flowcut.Meta) { m.Color = color })
}

// AddMarker puts a named marker on a source frame of a clip.
func AddMarker(seq *flowcut.Sequence, id flowcut.ClipID, frame int, name string) (*ClipAction, bool) {
	c, ok := seq.Clip(id)
	if !ok || c.IsBlank() || frame < c.In || frame > c.Out {
		return nil, false
	}
	return setMeta("marker", seq, id, func(m *flowcut.Meta) {
		m.Markers = append(m.Markers, flowcut.Marker{Frame: frame, Name: name})
	})
}

func setMeta(name string, seq *flowcut.Sequence, id flowcut.ClipID, f func(m *flowcut.Meta)) (*ClipAction, bool) {
	c, ok := seq.Clip(id)
	if !ok {
		return nil, false
	}
	m := c.Meta()
	f(&m)
	return clipAction(name, seq, id, func(tx *flowcut.Tx) error {
		return tx.SetMeta(id, m)
	})
}
