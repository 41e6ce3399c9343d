package flowcut

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowblade/flowcut/pipeline"
)

type (
	// Sequence owns the tracks, the clip arena and the pipeline playlists
	// that mirror the tracks. It is not safe for concurrent use; all edits
	// happen on one goroutine.
	Sequence struct {
		view

		name      string
		tracks    []*Track
		arena     map[ClipID]*Clip
		where     map[ClipID]int
		nextID    ClipID
		playlists []pipeline.Playlist
		strict    bool
		logger    *slog.Logger
	}

	SequenceOptions struct {
		Name        string
		VideoTracks int
		AudioTracks int
		// Strict verifies the whole pipeline mirror after every Apply.
		Strict bool
		Logger *slog.Logger
	}
)

// NewSequence creates the tracks and their playlists in g. Track 0 and the
// last track are reserved; audio tracks come right above track 0 (A1 being
// the topmost of them) and video tracks above the audio tracks.
func NewSequence(g pipeline.Graph, opts SequenceOptions) (*Sequence, error) {
	if opts.VideoTracks < 0 || opts.AudioTracks < 0 || opts.VideoTracks+opts.AudioTracks == 0 {
		return nil, errors.New("a sequence needs at least one editable track")
	}
	if opts.Name == "" {
		opts.Name = "sequence"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Sequence{
		name:   opts.Name,
		arena:  map[ClipID]*Clip{},
		where:  map[ClipID]int{},
		nextID: 1,
		strict: opts.Strict,
		logger: opts.Logger,
	}
	s.view = view{src: s}
	count := opts.VideoTracks + opts.AudioTracks + 2
	for i := 0; i < count; i++ {
		t := &Track{Index: i}
		switch {
		case i == 0:
			t.Name, t.Kind, t.Reserved = "bottom", VideoTrack, true
		case i == count-1:
			t.Name, t.Kind, t.Reserved = "top", VideoTrack, true
		case i <= opts.AudioTracks:
			t.Name, t.Kind = fmt.Sprintf("A%d", opts.AudioTracks-i+1), AudioTrack
		default:
			t.Name, t.Kind = fmt.Sprintf("V%d", i-opts.AudioTracks), VideoTrack
		}
		p, err := g.NewPlaylist(t.Name)
		if err != nil {
			return nil, fmt.Errorf("could not create the playlist of track %s: %w", t.Name, err)
		}
		s.tracks = append(s.tracks, t)
		s.playlists = append(s.playlists, p)
	}
	if err := g.NewMultitrack(opts.Name, s.playlists); err != nil {
		return nil, fmt.Errorf("could not create the multitrack: %w", err)
	}
	return s, nil
}

func (s *Sequence) Name() string { return s.name }

func (s *Sequence) trackCount() int { return len(s.tracks) }

func (s *Sequence) trackRef(i int) *Track {
	if i < 0 || i >= len(s.tracks) {
		return nil
	}
	return s.tracks[i]
}

func (s *Sequence) clipRef(id ClipID) *Clip { return s.arena[id] }

func (s *Sequence) placement(id ClipID) int {
	if t, ok := s.where[id]; ok {
		return t
	}
	return -1
}

// TrackByName returns the index of the track with the given name.
func (s *Sequence) TrackByName(name string) (int, bool) {
	for i, t := range s.tracks {
		if t.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Playlist returns the pipeline playlist mirroring track i.
func (s *Sequence) Playlist(i int) (pipeline.Playlist, bool) {
	if i < 0 || i >= len(s.playlists) {
		return nil, false
	}
	return s.playlists[i], true
}

func (s *Sequence) SetTrackMode(i int, m TrackMode) error {
	t := s.trackRef(i)
	if t == nil {
		return fmt.Errorf("track %d: %w", i, ErrNoSuchTrack)
	}
	if t.Reserved {
		return &TrackLockedError{Track: i, Mode: t.Mode, Reserved: true}
	}
	t.Mode = m
	return nil
}

func (s *Sequence) SetTrackMute(i int, mute bool) error {
	t := s.trackRef(i)
	if t == nil {
		return fmt.Errorf("track %d: %w", i, ErrNoSuchTrack)
	}
	t.Mute = mute
	return nil
}

func (s *Sequence) SetTrackHeight(i int, h TrackHeight) error {
	t := s.trackRef(i)
	if t == nil {
		return fmt.Errorf("track %d: %w", i, ErrNoSuchTrack)
	}
	t.Height = h
	return nil
}

// SetSyncState stores the derived sync state of a child clip. It is not an
// edit and is not mirrored.
func (s *Sequence) SetSyncState(id ClipID, st SyncState) bool {
	c := s.arena[id]
	if c == nil || c.Sync == nil {
		return false
	}
	c.Sync.State = st
	return true
}

// Verify compares every track with its playlist entry by entry.
func (s *Sequence) Verify() error {
	for i, t := range s.tracks {
		p := s.playlists[i]
		if p.Count() != len(t.clips) {
			return &DivergenceError{Track: i, Reason: fmt.Sprintf("playlist has %d entries, track has %d clips", p.Count(), len(t.clips))}
		}
		for j, id := range t.clips {
			e, err := p.Entry(j)
			if err != nil {
				return &DivergenceError{Track: i, Reason: fmt.Sprintf("entry %d", j), Err: err}
			}
			if want := s.arena[id].entry(); e != want {
				return &DivergenceError{Track: i, Reason: fmt.Sprintf("entry %d is %v, want %v", j, e, want)}
			}
		}
	}
	return nil
}
