// Package resync keeps the sync relations between clips up to date. A sync
// child stores the offset between its own media aligned position and the one
// of its parent; after every structural edit the states of all children are
// recomputed from scratch from the current tracks.
package resync

import (
	"log/slog"

	"github.com/flowblade/flowcut"
)

type (
	// Child is a placed clip linked to a parent, and the track it is on.
	Child struct {
		Clip  flowcut.ClipID
		Track int
	}

	Resolver struct {
		logger *slog.Logger
	}
)

// Aligned returns the timeline frame where source frame 0 of a placed clip
// would be, i.e. its start minus its In.
func Aligned(r flowcut.Reader, id flowcut.ClipID) (int, bool) {
	track, index, ok := r.Locate(id)
	if !ok {
		return 0, false
	}
	c, _ := r.ClipAtIndex(track, index)
	return r.ClipStart(track, index) - c.In, true
}

// Children returns all placed clips linked to parent, bottom track first.
func Children(r flowcut.Reader, parent flowcut.ClipID) []Child {
	var ret []Child
	for track := 0; track < r.TrackCount(); track++ {
		for _, c := range r.Clips(track) {
			if c.Sync != nil && c.Sync.Parent == parent {
				ret = append(ret, Child{Clip: c.ID, Track: track})
			}
		}
	}
	return ret
}

// States computes the sync state of every placed child clip.
func States(r flowcut.Reader) map[flowcut.ClipID]flowcut.SyncState {
	ret := map[flowcut.ClipID]flowcut.SyncState{}
	for track := 0; track < r.TrackCount(); track++ {
		start := 0
		for _, c := range r.Clips(track) {
			if c.Sync != nil {
				ret[c.ID] = state(r, c, start)
			}
			start += c.Length()
		}
	}
	return ret
}

func state(r flowcut.Reader, child flowcut.Clip, start int) flowcut.SyncState {
	parent, ok := Aligned(r, child.Sync.Parent)
	if !ok {
		return flowcut.SyncParentGone
	}
	if start-child.In-parent == child.Sync.Offset {
		return flowcut.SyncCorrect
	}
	return flowcut.SyncOff
}

func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve recomputes and stores the sync states of seq and returns how many
// of them changed.
func (r *Resolver) Resolve(seq *flowcut.Sequence) int {
	changed := 0
	for id, st := range States(seq) {
		c, _ := seq.Clip(id)
		if c.Sync.State == st {
			continue
		}
		seq.SetSyncState(id, st)
		changed++
		r.logger.Debug("sync state changed", "clip", id, "from", c.Sync.State, "to", st)
	}
	return changed
}
