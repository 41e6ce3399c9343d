package flowcut

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

type (
	// PropertyKind enumerates the animatable clip properties. The set is
	// closed: every kind decides its value type, default and interpolation in
	// the switches below.
	PropertyKind int

	// Value is a keyframe value; either a Scalar or a Rect.
	Value interface {
		isValue()
	}

	Scalar float64

	Rect struct {
		X, Y, W, H float64
	}

	Keyframe struct {
		Frame int
		Value Value
	}

	// Property is a keyframed clip property. Keyframe frames are clip local,
	// frame 0 being the first frame of the clip, and kept sorted.
	Property struct {
		Kind      PropertyKind
		Keyframes []Keyframe
	}
)

const (
	Opacity PropertyKind = iota
	Volume
	Pan
	Geometry
)

var ErrPropertyValue = errors.New("value type does not match the property kind")

func (Scalar) isValue() {}
func (Rect) isValue()   {}

func (k PropertyKind) String() string {
	switch k {
	case Opacity:
		return "opacity"
	case Volume:
		return "volume"
	case Pan:
		return "pan"
	case Geometry:
		return "geometry"
	}
	return fmt.Sprintf("PropertyKind(%d)", int(k))
}

// Default is the value of the property when it has no keyframes.
func (k PropertyKind) Default() Value {
	switch k {
	case Opacity:
		return Scalar(1)
	case Geometry:
		return Rect{W: 1, H: 1}
	default:
		return Scalar(0)
	}
}

// Accepts reports whether v has the value type of the kind.
func (k PropertyKind) Accepts(v Value) bool {
	switch v.(type) {
	case Scalar:
		return k == Opacity || k == Volume || k == Pan
	case Rect:
		return k == Geometry
	}
	return false
}

func (k PropertyKind) clamp(v Value) Value {
	s, ok := v.(Scalar)
	if !ok {
		return v
	}
	switch k {
	case Opacity:
		return Scalar(min(max(float64(s), 0), 1))
	case Pan:
		return Scalar(min(max(float64(s), -1), 1))
	}
	return s
}

// interpolate holds a when the values do not have the type of the kind.
func (k PropertyKind) interpolate(a, b Value, t float64) Value {
	switch k {
	case Geometry:
		ra, oka := a.(Rect)
		rb, okb := b.(Rect)
		if !oka || !okb {
			return a
		}
		return Rect{
			X: ra.X + (rb.X-ra.X)*t,
			Y: ra.Y + (rb.Y-ra.Y)*t,
			W: ra.W + (rb.W-ra.W)*t,
			H: ra.H + (rb.H-ra.H)*t,
		}
	default:
		sa, oka := a.(Scalar)
		sb, okb := b.(Scalar)
		if !oka || !okb {
			return a
		}
		return k.clamp(sa + (sb-sa)*Scalar(t))
	}
}

// NewProperty validates the keyframe values against the kind and returns the
// property with its keyframes sorted by frame. Duplicate frames are an error.
func NewProperty(kind PropertyKind, keyframes []Keyframe) (Property, error) {
	kfs := slices.Clone(keyframes)
	slices.SortStableFunc(kfs, func(a, b Keyframe) int { return a.Frame - b.Frame })
	for i, kf := range kfs {
		if !kind.Accepts(kf.Value) {
			return Property{}, fmt.Errorf("%v keyframe at %d: %w", kind, kf.Frame, ErrPropertyValue)
		}
		if i > 0 && kfs[i-1].Frame == kf.Frame {
			return Property{}, fmt.Errorf("%v has two keyframes at frame %d", kind, kf.Frame)
		}
		kfs[i].Value = kind.clamp(kf.Value)
	}
	return Property{Kind: kind, Keyframes: kfs}, nil
}

// check returns an error for the first keyframe whose value does not match
// the kind.
func (p Property) check() error {
	for _, kf := range p.Keyframes {
		if !p.Kind.Accepts(kf.Value) {
			return fmt.Errorf("%v keyframe at %d: %w", p.Kind, kf.Frame, ErrPropertyValue)
		}
	}
	return nil
}

func (p Property) Copy() Property {
	return Property{Kind: p.Kind, Keyframes: slices.Clone(p.Keyframes)}
}

// ValueAt returns the value of the property at a clip local frame. Values
// before the first and after the last keyframe hold the nearest keyframe.
func (p Property) ValueAt(frame int) Value {
	kfs := p.Keyframes
	if len(kfs) == 0 {
		return p.Kind.Default()
	}
	i, found := slices.BinarySearchFunc(kfs, frame, func(kf Keyframe, f int) int { return kf.Frame - f })
	switch {
	case found:
		return kfs[i].Value
	case i == 0:
		return kfs[0].Value
	case i == len(kfs):
		return kfs[len(kfs)-1].Value
	}
	a, b := kfs[i-1], kfs[i]
	t := float64(frame-a.Frame) / float64(b.Frame-a.Frame)
	return p.Kind.interpolate(a.Value, b.Value, t)
}

// PropertyOf returns the property of the given kind, or an empty property
// holding the default value if the clip has none.
func (c Clip) PropertyOf(kind PropertyKind) Property {
	for _, p := range c.Props {
		if p.Kind == kind {
			return p
		}
	}
	return Property{Kind: kind}
}

func equalProps(a, b []Property) bool {
	return slices.EqualFunc(a, b, func(x, y Property) bool {
		return x.Kind == y.Kind && slices.Equal(x.Keyframes, y.Keyframes)
	})
}

// shift returns the property as seen from a clip starting offset frames
// later: keyframes before the new start are replaced by one keyframe at frame
// 0 holding the value there.
func (p Property) shift(offset int) Property {
	if len(p.Keyframes) == 0 || offset == 0 {
		return p.Copy()
	}
	ret := Property{Kind: p.Kind, Keyframes: []Keyframe{{Frame: 0, Value: p.ValueAt(offset)}}}
	for _, kf := range p.Keyframes {
		if kf.Frame > offset {
			ret.Keyframes = append(ret.Keyframes, Keyframe{Frame: kf.Frame - offset, Value: kf.Value})
		}
	}
	return ret
}
