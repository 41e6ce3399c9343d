package flowcut

import (
	"golang.org/x/exp/slices"

	"github.com/flowblade/flowcut/pipeline"
)

type (
	// Clip is a cut of source media between In and Out (both inclusive source
	// frames), or a blank placeholder of Out-In+1 frames when Type is Blank.
	// Blanks always have In == 0.
	Clip struct {
		ID   ClipID
		Name string
		Type MediaType
		// Resource is the media path or generator description the clip cuts
		// from. Empty for blanks.
		Resource string
		// MediaLength is the number of frames available in the source; 0
		// means the source has no fixed length (images, patterns, blanks).
		MediaLength int
		In, Out     int

		Mute    Mute       `yaml:",omitempty"`
		Color   string     `yaml:",omitempty"`
		Markers []Marker   `yaml:",omitempty"`
		Sync    *SyncLink  `yaml:",omitempty"`
		Props   []Property `yaml:",omitempty"`
	}

	// Marker is a named source frame inside a clip.
	Marker struct {
		Frame int
		Name  string
	}

	// SyncLink makes a clip a sync child of Parent. Offset is the difference
	// of the media aligned positions (start - In) of the child and the parent
	// when the link was made; State is recomputed after every edit.
	SyncLink struct {
		Parent ClipID
		Offset int
		State  SyncState
	}

	// Media is the part of a clip that is replaced when the clip is relinked
	// to another file, e.g. a proxy.
	Media struct {
		Type        MediaType
		Resource    string
		MediaLength int
	}

	// Meta holds the clip attributes that do not affect the pipeline.
	Meta struct {
		Name    string
		Mute    Mute
		Color   string
		Markers []Marker
	}
)

// NewBlank returns an unplaced blank clip of the given length.
func NewBlank(length int) Clip {
	return Clip{Type: Blank, In: 0, Out: length - 1}
}

func (c Clip) Length() int   { return c.Out - c.In + 1 }
func (c Clip) IsBlank() bool { return c.Type == Blank }

// Copy returns a deep copy of the clip.
func (c Clip) Copy() Clip {
	ret := c
	ret.Markers = slices.Clone(c.Markers)
	if c.Sync != nil {
		s := *c.Sync
		ret.Sync = &s
	}
	if c.Props != nil {
		ret.Props = make([]Property, len(c.Props))
		for i, p := range c.Props {
			ret.Props[i] = p.Copy()
		}
	}
	return ret
}

// ValidRange reports whether [in, out] would be a legal range for the clip:
// at least one frame long, and inside the source media if it has a length.
func (c Clip) ValidRange(in, out int) bool {
	if out < in {
		return false
	}
	if c.IsBlank() {
		return in == 0
	}
	if in < 0 {
		return false
	}
	return c.MediaLength <= 0 || out < c.MediaLength
}

func (c Clip) Media() Media {
	return Media{Type: c.Type, Resource: c.Resource, MediaLength: c.MediaLength}
}

func (c Clip) Meta() Meta {
	return Meta{Name: c.Name, Mute: c.Mute, Color: c.Color, Markers: slices.Clone(c.Markers)}
}

func (c Clip) entry() pipeline.Entry {
	return pipeline.Entry{Clip: uint64(c.ID), Resource: c.Resource, Blank: c.IsBlank(), In: c.In, Out: c.Out}
}

func (m Meta) equal(o Meta) bool {
	return m.Name == o.Name && m.Mute == o.Mute && m.Color == o.Color && slices.Equal(m.Markers, o.Markers)
}

func (l *SyncLink) copy() *SyncLink {
	if l == nil {
		return nil
	}
	r := *l
	return &r
}

// sameLink compares two links ignoring their derived State.
func sameLink(a, b *SyncLink) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Parent == b.Parent && a.Offset == b.Offset
}
