// Package pipeline describes the media pipeline graph that a sequence mirrors:
// one playlist of producer entries per track and one multitrack container
// holding all of them. The editor only ever issues the small structural
// operation set defined here and expects each call to take effect
// immediately.
package pipeline

import (
	"errors"
	"fmt"
)

type (
	// Entry is one slot of a playlist: either a cut of a producer's media
	// between In and Out (inclusive), or a blank of Out-In+1 frames. Clip tags
	// the entry with the editor clip it mirrors so that divergence can be
	// reported precisely.
	Entry struct {
		Clip     uint64
		Resource string
		Blank    bool
		In, Out  int
	}

	// Playlist is an ordered list of entries played back to back.
	Playlist interface {
		Name() string
		Insert(index int, e Entry) error
		Remove(index int) error
		Entry(index int) (Entry, error)
		Count() int
		Length() int
	}

	// Graph creates playlists and the multitrack container that stacks them.
	Graph interface {
		NewPlaylist(name string) (Playlist, error)
		NewMultitrack(name string, tracks []Playlist) error
	}
)

var ErrIndexOutOfRange = errors.New("playlist index out of range")

// Length returns the number of frames the entry occupies.
func (e Entry) Length() int { return e.Out - e.In + 1 }

func (e Entry) String() string {
	if e.Blank {
		return fmt.Sprintf("blank(%d)", e.Length())
	}
	return fmt.Sprintf("%s[%d..%d]#%d", e.Resource, e.In, e.Out, e.Clip)
}

// Entries returns a copy of all the entries of a playlist.
func Entries(p Playlist) []Entry {
	ret := make([]Entry, 0, p.Count())
	for i := 0; i < p.Count(); i++ {
		e, err := p.Entry(i)
		if err != nil {
			break
		}
		ret = append(ret, e)
	}
	return ret
}
