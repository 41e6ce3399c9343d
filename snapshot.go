package flowcut

type (
	// Snapshot is a deep copy of the visible state of a sequence. Two
	// snapshots are equal exactly when the sequences look the same, clip ids
	// included.
	Snapshot struct {
		Name   string
		Tracks []TrackSnapshot
	}

	TrackSnapshot struct {
		Index int
		Name  string
		Mode  TrackMode
		Mute  bool   `yaml:",omitempty"`
		Clips []Clip `yaml:",omitempty"`
	}
)

func (s *Sequence) Snapshot() Snapshot {
	ret := Snapshot{Name: s.name}
	for i, t := range s.tracks {
		ret.Tracks = append(ret.Tracks, TrackSnapshot{
			Index: i,
			Name:  t.Name,
			Mode:  t.Mode,
			Mute:  t.Mute,
			Clips: s.Clips(i),
		})
	}
	return ret
}

func (t MediaType) MarshalYAML() (interface{}, error)    { return t.String(), nil }
func (m TrackMode) MarshalYAML() (interface{}, error)    { return m.String(), nil }
func (s SyncState) MarshalYAML() (interface{}, error)    { return s.String(), nil }
func (k PropertyKind) MarshalYAML() (interface{}, error) { return k.String(), nil }
