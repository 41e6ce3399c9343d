package pipeline

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

type (
	// Memory is an in-process Graph. It keeps the playlists as plain slices,
	// which makes it suitable for headless editing, tests and for exporting
	// the graph as XML.
	Memory struct {
		playlists   []*MemoryPlaylist
		multitracks []Multitrack
	}

	MemoryPlaylist struct {
		name    string
		entries []Entry
	}

	// Multitrack is a named stack of playlists, bottom track first.
	Multitrack struct {
		Name   string
		Tracks []*MemoryPlaylist
	}
)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) NewPlaylist(name string) (Playlist, error) {
	p := &MemoryPlaylist{name: name}
	m.playlists = append(m.playlists, p)
	return p, nil
}

func (m *Memory) NewMultitrack(name string, tracks []Playlist) error {
	mt := Multitrack{Name: name}
	for _, t := range tracks {
		p, ok := t.(*MemoryPlaylist)
		if !ok {
			return fmt.Errorf("multitrack %s: playlist %s does not belong to this graph", name, t.Name())
		}
		mt.Tracks = append(mt.Tracks, p)
	}
	m.multitracks = append(m.multitracks, mt)
	return nil
}

// Playlists returns all playlists in creation order.
func (m *Memory) Playlists() []*MemoryPlaylist { return slices.Clone(m.playlists) }

// Multitracks returns all multitrack containers in creation order.
func (m *Memory) Multitracks() []Multitrack { return slices.Clone(m.multitracks) }

func (p *MemoryPlaylist) Name() string { return p.name }

func (p *MemoryPlaylist) Insert(index int, e Entry) error {
	if index < 0 || index > len(p.entries) {
		return fmt.Errorf("insert %v at %d into %s: %w", e, index, p.name, ErrIndexOutOfRange)
	}
	if e.Out < e.In {
		return errors.New("entry must be at least one frame long")
	}
	p.entries = slices.Insert(p.entries, index, e)
	return nil
}

func (p *MemoryPlaylist) Remove(index int) error {
	if index < 0 || index >= len(p.entries) {
		return fmt.Errorf("remove %d from %s: %w", index, p.name, ErrIndexOutOfRange)
	}
	p.entries = slices.Delete(p.entries, index, index+1)
	return nil
}

func (p *MemoryPlaylist) Entry(index int) (Entry, error) {
	if index < 0 || index >= len(p.entries) {
		return Entry{}, fmt.Errorf("entry %d of %s: %w", index, p.name, ErrIndexOutOfRange)
	}
	return p.entries[index], nil
}

func (p *MemoryPlaylist) Count() int { return len(p.entries) }

func (p *MemoryPlaylist) Length() int {
	ret := 0
	for _, e := range p.entries {
		ret += e.Length()
	}
	return ret
}
