package edit_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/edit"
	"github.com/flowblade/flowcut/pipeline"
	"github.com/flowblade/flowcut/resync"
)

const (
	a1 = 1
	v1 = 2
	v2 = 3
)

func newSequence(t *testing.T) *flowcut.Sequence {
	t.Helper()
	s, err := flowcut.NewSequence(pipeline.NewMemory(), flowcut.SequenceOptions{VideoTracks: 2, AudioTracks: 1, Strict: true})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	return s
}

func media(in, out int) flowcut.Clip {
	return flowcut.Clip{Name: "shot", Type: flowcut.Video, Resource: "shot.mp4", MediaLength: 1000, In: in, Out: out}
}

func do(t *testing.T, a edit.Action, ok bool) edit.Action {
	t.Helper()
	if !ok {
		t.Fatalf("action could not be built")
	}
	if err := a.Do(); err != nil {
		t.Fatalf("%s failed: %v", a.Name(), err)
	}
	return a
}

func appendClip(t *testing.T, s *flowcut.Sequence, track int, c flowcut.Clip) flowcut.ClipID {
	t.Helper()
	a, ok := edit.Append(s, track, c)
	do(t, a, ok)
	return a.Clip
}

func spans(s *flowcut.Sequence, track int) []flowcut.Span {
	var ret []flowcut.Span
	for _, c := range s.Clips(track) {
		ret = append(ret, flowcut.Span{In: c.In, Out: c.Out})
	}
	return ret
}

func TestCutAndUndo(t *testing.T) {
	s := newSequence(t)
	id := appendClip(t, s, v1, media(0, 99))
	before := s.Snapshot()
	a, ok := edit.Cut(s, v1, 40)
	do(t, a, ok)
	if a.Index != 0 || a.Clip != id || a.SplitIn != 40 {
		t.Errorf("unexpected cut data: %+v", a.Split)
	}
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 39}, {In: 40, Out: 99}}, spans(s, v1)); diff != "" {
		t.Errorf("cut mismatch (-want +got):\n%s", diff)
	}
	if err := a.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("undo did not restore the clip (-want +got):\n%s", diff)
	}
	if err := a.Undo(); !errors.Is(err, edit.ErrNotDone) {
		t.Errorf("second Undo: got %v, want ErrNotDone", err)
	}
	if err := a.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if ids := s.ClipIDs(v1); len(ids) != 2 || ids[1] != a.Tail {
		t.Errorf("redo did not restore the same tail clip: %v", ids)
	}
	if err := a.Do(); !errors.Is(err, edit.ErrAlreadyDone) {
		t.Errorf("second Do: got %v, want ErrAlreadyDone", err)
	}
}

func TestCutNoAction(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 49))
	blank, ok := edit.Insert(s, v1, 50, flowcut.NewBlank(10))
	do(t, blank, ok)
	appendClip(t, s, v1, media(0, 49))
	appendClip(t, s, v2, media(0, 49))
	s.SetTrackMode(v2, flowcut.Locked)
	before := s.Snapshot()
	for _, tc := range []struct {
		name         string
		track, frame int
	}{
		{"boundary", v1, 50},
		{"first frame", v1, 0},
		{"blank", v1, 55},
		{"past end", v1, 500},
		{"locked track", v2, 20},
		{"reserved track", 0, 20},
		{"negative", v1, -3},
	} {
		if _, ok := edit.Cut(s, tc.track, tc.frame); ok {
			t.Errorf("%s: Cut returned an action", tc.name)
		}
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("no-op cuts changed the sequence (-want +got):\n%s", diff)
	}
}

func TestCutAll(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 99))
	appendClip(t, s, v2, media(0, 39))
	appendClip(t, s, v2, media(0, 59))
	appendClip(t, s, a1, media(10, 109))
	before := s.Snapshot()
	a, ok := edit.CutAll(s, 40)
	do(t, a, ok)
	if len(a.Splits) != 2 {
		t.Fatalf("got %d splits, want 2 (V2 is cut on a boundary)", len(a.Splits))
	}
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 39}, {In: 40, Out: 99}}, spans(s, v1)); diff != "" {
		t.Errorf("V1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]flowcut.Span{{In: 10, Out: 49}, {In: 50, Out: 109}}, spans(s, a1)); diff != "" {
		t.Errorf("A1 mismatch (-want +got):\n%s", diff)
	}
	if c := s.ClipCount(v2); c != 2 {
		t.Errorf("V2 has %d clips, want 2", c)
	}
	if err := a.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("one undo did not revert all cuts (-want +got):\n%s", diff)
	}
	if _, ok := edit.CutAll(s, 1000); ok {
		t.Errorf("CutAll past every track returned an action")
	}
}

func TestOverwriteKeepsRemovedClips(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 29))
	appendClip(t, s, v1, media(100, 129))
	before := s.Snapshot()
	a, ok := edit.Overwrite(s, v1, 20, media(500, 519))
	do(t, a, ok)
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 19}, {In: 500, Out: 519}, {In: 110, Out: 129}}, spans(s, v1)); diff != "" {
		t.Errorf("overwrite mismatch (-want +got):\n%s", diff)
	}
	if l := s.TrackLength(v1); l != 60 {
		t.Errorf("TrackLength = %d, want 60", l)
	}
	if err := a.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("undo mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertPastEnd(t *testing.T) {
	s := newSequence(t)
	a, ok := edit.Insert(s, v1, 10, media(0, 9))
	do(t, a, ok)
	clips := s.Clips(v1)
	if len(clips) != 2 || !clips[0].IsBlank() || clips[0].Length() != 10 {
		t.Errorf("insert past the end should pad with a blank: %+v", clips)
	}
}

func TestRemoveFamily(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 9))
	mid := appendClip(t, s, v1, media(0, 19))
	appendClip(t, s, v1, media(0, 29))
	appendClip(t, s, v2, media(0, 59))
	start := s.Snapshot()

	lift, ok := edit.Lift(s, v1, 1)
	do(t, lift, ok)
	if l := s.TrackLength(v1); l != 60 {
		t.Errorf("lift changed the track length to %d", l)
	}
	if len(lift.Removed) != 1 || lift.Removed[0].ID != mid {
		t.Errorf("lift removed %+v, want clip #%d", lift.Removed, mid)
	}
	if _, ok := edit.Lift(s, v1, 1); ok {
		t.Errorf("lifting a blank returned an action")
	}
	splice, ok := edit.SpliceOut(s, v1, 1)
	do(t, splice, ok)
	if l := s.TrackLength(v1); l != 40 {
		t.Errorf("splice-out left length %d, want 40", l)
	}
	ripple, ok := edit.RippleDelete(s, 0, 5)
	do(t, ripple, ok)
	if l := s.TrackLength(v2); l != 55 {
		t.Errorf("ripple delete left V2 at %d frames, want 55", l)
	}
	if l := s.TrackLength(v1); l != 35 {
		t.Errorf("ripple delete left V1 at %d frames, want 35", l)
	}
	for _, a := range []edit.Action{ripple, splice, lift} {
		if err := a.Undo(); err != nil {
			t.Fatalf("undo %s failed: %v", a.Name(), err)
		}
	}
	if diff := cmp.Diff(start, s.Snapshot()); diff != "" {
		t.Errorf("undoing all removals mismatch (-want +got):\n%s", diff)
	}
}

func TestTrims(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(10, 29))
	appendClip(t, s, v1, media(100, 119))
	ts, ok := edit.TrimStart(s, v1, 0, 5)
	do(t, ts, ok)
	te, ok := edit.TrimEnd(s, v1, 0, 10)
	do(t, te, ok)
	if diff := cmp.Diff([]flowcut.Span{{In: 15, Out: 39}, {In: 100, Out: 119}}, spans(s, v1)); diff != "" {
		t.Errorf("trim mismatch (-want +got):\n%s", diff)
	}
	if _, ok := edit.TrimStart(s, v1, 0, -20); ok {
		t.Errorf("trimming before the media start returned an action")
	}
	if _, ok := edit.TrimEnd(s, v1, 1, -20); ok {
		t.Errorf("trimming a clip to zero length returned an action")
	}
	roll, ok := edit.Roll(s, v1, 1, -5)
	do(t, roll, ok)
	if diff := cmp.Diff([]flowcut.Span{{In: 15, Out: 34}, {In: 95, Out: 119}}, spans(s, v1)); diff != "" {
		t.Errorf("roll mismatch (-want +got):\n%s", diff)
	}
	slip, ok := edit.Slip(s, v1, 1, 3)
	do(t, slip, ok)
	if diff := cmp.Diff([]flowcut.Span{{In: 15, Out: 34}, {In: 98, Out: 122}}, spans(s, v1)); diff != "" {
		t.Errorf("slip mismatch (-want +got):\n%s", diff)
	}
	if l := s.TrackLength(v1); l != 45 {
		t.Errorf("roll and slip changed the length to %d", l)
	}
}

func TestRollSyncChildren(t *testing.T) {
	s := newSequence(t)
	parent := appendClip(t, s, v1, media(0, 49))
	appendClip(t, s, v1, media(200, 249))
	child := appendClip(t, s, a1, media(0, 49))
	appendClip(t, s, a1, media(300, 349))
	link, ok := edit.Link(s, child, parent)
	do(t, link, ok)
	resync.New(nil).Resolve(s)

	roll, ok := edit.Roll(s, v1, 1, 10)
	do(t, roll, ok)
	if roll.ChildTrim != edit.ChildTrimApplied {
		t.Fatalf("ChildTrim = %v, want applied", roll.ChildTrim)
	}
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 59}, {In: 310, Out: 349}}, spans(s, a1)); diff != "" {
		t.Errorf("child roll mismatch (-want +got):\n%s", diff)
	}
	if st := resync.States(s)[child]; st != flowcut.SyncCorrect {
		t.Errorf("child sync state = %v, want correct", st)
	}

	// a second child disables the dual roll
	second := appendClip(t, s, v2, media(0, 99))
	link2, ok := edit.Link(s, second, parent)
	do(t, link2, ok)
	before := spans(s, a1)
	roll2, ok := edit.Roll(s, v1, 1, -5)
	do(t, roll2, ok)
	if roll2.ChildTrim != edit.ChildTrimMultiple {
		t.Errorf("ChildTrim = %v, want multiple children", roll2.ChildTrim)
	}
	if diff := cmp.Diff(before, spans(s, a1)); diff != "" {
		t.Errorf("a child was trimmed although dual roll is disabled (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 99}}, spans(s, v2)); diff != "" {
		t.Errorf("second child changed (-want +got):\n%s", diff)
	}
}

func TestSyncStates(t *testing.T) {
	s := newSequence(t)
	parent := appendClip(t, s, v1, media(0, 49))
	child := appendClip(t, s, a1, media(0, 49))
	link, ok := edit.Link(s, child, parent)
	do(t, link, ok)
	if st := resync.States(s)[child]; st != flowcut.SyncCorrect {
		t.Errorf("after link: %v, want correct", st)
	}
	ins, ok := edit.Insert(s, v1, 0, media(0, 9))
	do(t, ins, ok)
	if st := resync.States(s)[child]; st != flowcut.SyncOff {
		t.Errorf("after moving the parent: %v, want off", st)
	}
	del, ok := edit.SpliceOut(s, v1, 1)
	do(t, del, ok)
	if st := resync.States(s)[child]; st != flowcut.SyncParentGone {
		t.Errorf("after removing the parent: %v, want parent-gone", st)
	}
	del.Undo()
	ins.Undo()
	if st := resync.States(s)[child]; st != flowcut.SyncCorrect {
		t.Errorf("after undo: %v, want correct", st)
	}
	if children := resync.Children(s, parent); len(children) != 1 || children[0] != (resync.Child{Clip: child, Track: a1}) {
		t.Errorf("Children = %v", children)
	}
}

func TestSyncParentMovedToAnotherTrack(t *testing.T) {
	s := newSequence(t)
	parent := appendClip(t, s, v1, media(0, 49))
	child := appendClip(t, s, a1, media(0, 49))
	link, ok := edit.Link(s, child, parent)
	do(t, link, ok)
	mv, ok := edit.Move(s, v1, 0, v2, 0, true)
	do(t, mv, ok)
	if st := resync.States(s)[child]; st != flowcut.SyncCorrect {
		t.Errorf("after moving the parent to V2: %v, want correct", st)
	}
	if children := resync.Children(s, parent); len(children) != 1 || children[0].Clip != child {
		t.Errorf("Children = %v", children)
	}
	later, ok := edit.Move(s, v2, 0, v2, 10, true)
	do(t, later, ok)
	if st := resync.States(s)[child]; st != flowcut.SyncOff {
		t.Errorf("after moving the parent later: %v, want off", st)
	}
}

func TestMove(t *testing.T) {
	s := newSequence(t)
	first := appendClip(t, s, v1, media(0, 9))
	appendClip(t, s, v1, media(0, 19))
	mv, ok := edit.Move(s, v1, 0, v1, 30, false)
	do(t, mv, ok)
	ids := s.ClipIDs(v1)
	if len(ids) != 2 || ids[1] != first {
		t.Errorf("insert move mismatch: %v", ids)
	}
	ow, ok := edit.Move(s, v1, 1, v2, 5, true)
	do(t, ow, ok)
	if _, _, ok := s.Locate(first); !ok || s.TrackLength(v1) != 30 || s.TrackLength(v2) != 15 {
		t.Errorf("overwrite move mismatch: V1 %v V2 %v", spans(s, v1), spans(s, v2))
	}
	if _, ok := edit.Move(s, v2, 1, v2, 5, false); ok {
		t.Errorf("moving a clip onto itself returned an action")
	}
}

func TestClipMetadata(t *testing.T) {
	s := newSequence(t)
	id := appendClip(t, s, v1, media(0, 99))
	s.SetTrackMode(v1, flowcut.Locked)
	mute, ok := edit.SetClipMute(s, id, flowcut.MuteAudio)
	do(t, mute, ok)
	color, ok := edit.SetClipColor(s, id, "red")
	do(t, color, ok)
	p, _ := flowcut.NewProperty(flowcut.Volume, []flowcut.Keyframe{{Frame: 0, Value: flowcut.Scalar(-6)}})
	kf, ok := edit.SetKeyframes(s, id, p)
	do(t, kf, ok)
	c, _ := s.Clip(id)
	if c.Mute != flowcut.MuteAudio || c.Color != "red" || len(c.Props) != 1 {
		t.Errorf("metadata not applied: %+v", c)
	}
	if _, ok := edit.ReplaceMedia(s, id, flowcut.Media{Type: flowcut.Video, Resource: "proxy.mp4"}); ok {
		t.Errorf("replacing media on a locked track returned an action")
	}
	kf.Undo()
	color.Undo()
	mute.Undo()
	if c, _ := s.Clip(id); c.Mute != 0 || c.Color != "" || c.Props != nil {
		t.Errorf("metadata not undone: %+v", c)
	}
}

func TestReplaceMedia(t *testing.T) {
	s := newSequence(t)
	id := appendClip(t, s, v1, media(10, 59))
	a, ok := edit.ReplaceMedia(s, id, flowcut.Media{Type: flowcut.Video, Resource: "proxy.mp4", MediaLength: 1000})
	do(t, a, ok)
	if e := pipeline.Entries(mustPlaylist(t, s, v1))[0]; e.Resource != "proxy.mp4" || e.In != 10 {
		t.Errorf("pipeline entry not replaced: %v", e)
	}
	if _, ok := edit.ReplaceMedia(s, id, flowcut.Media{Type: flowcut.Video, Resource: "short.mp4", MediaLength: 20}); ok {
		t.Errorf("replacing with too short media returned an action")
	}
}

func mustPlaylist(t *testing.T, s *flowcut.Sequence, track int) pipeline.Playlist {
	t.Helper()
	p, ok := s.Playlist(track)
	if !ok {
		t.Fatalf("no playlist for track %d", track)
	}
	return p
}

func TestGroup(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 99))
	before := s.Snapshot()
	g := edit.NewGroup("split-twice",
		func() (edit.Action, bool) { a, ok := edit.Cut(s, v1, 30); return a, ok },
		func() (edit.Action, bool) { a, ok := edit.Cut(s, v1, 30); return a, ok },
		func() (edit.Action, bool) { a, ok := edit.Cut(s, v1, 60); return a, ok },
	)
	if err := g.Do(); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if n := len(g.Actions()); n != 2 {
		t.Errorf("group performed %d actions, want 2", n)
	}
	if c := s.ClipCount(v1); c != 3 {
		t.Errorf("got %d clips, want 3", c)
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("group undo mismatch (-want +got):\n%s", diff)
	}
	empty := edit.NewGroup("nothing", func() (edit.Action, bool) { a, ok := edit.Cut(s, v1, 0); return a, ok })
	if err := empty.Do(); !errors.Is(err, edit.ErrEmptyGroup) {
		t.Errorf("empty group: got %v, want ErrEmptyGroup", err)
	}
}

// stub is an action whose steps fail on demand.
type stub struct {
	name                    string
	doErr, undoErr, redoErr error
}

func (a *stub) Name() string { return a.name }
func (a *stub) Do() error    { return a.doErr }
func (a *stub) Undo() error  { return a.undoErr }
func (a *stub) Redo() error  { return a.redoErr }

func builderOf(a edit.Action) edit.Builder {
	return func() (edit.Action, bool) { return a, true }
}

func TestGroupCompensationErrors(t *testing.T) {
	first, second := &stub{name: "first"}, &stub{name: "second"}
	g := edit.NewGroup("pair", builderOf(first), builderOf(second))
	if err := g.Do(); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	refused := errors.New("refused")
	first.undoErr = refused
	second.redoErr = &flowcut.DivergenceError{Track: v1, Reason: "entry missing"}
	err := g.Undo()
	if !errors.Is(err, refused) {
		t.Errorf("Undo: got %v, want the undo error", err)
	}
	var derr *flowcut.DivergenceError
	if !errors.As(err, &derr) || derr.Track != v1 {
		t.Errorf("Undo: got %v, want the divergence of the redo", err)
	}

	third := &stub{name: "third", undoErr: &flowcut.DivergenceError{Track: a1, Reason: "entry missing"}}
	failing := &stub{name: "failing", doErr: refused}
	g = edit.NewGroup("broken", builderOf(third), builderOf(failing))
	err = g.Do()
	if !errors.Is(err, refused) || !errors.As(err, &derr) || derr.Track != a1 {
		t.Errorf("Do: got %v, want the failure and the divergence of the rewind", err)
	}
	if n := len(g.Actions()); n != 0 {
		t.Errorf("failed group kept %d actions", n)
	}
}

func TestDisplayName(t *testing.T) {
	s := newSequence(t)
	appendClip(t, s, v1, media(0, 99))
	a, ok := edit.RippleDelete(s, 0, 10)
	if !ok {
		t.Fatalf("RippleDelete failed")
	}
	if n := edit.DisplayName(a); n != "Ripple Delete" {
		t.Errorf("DisplayName = %q, want %q", n, "Ripple Delete")
	}
}

// TestRandomUndo performs random edits and checks that undoing all of them in
// reverse order restores the sequence and its pipeline exactly.
func TestRandomUndo(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for round := 0; round < 20; round++ {
		s := newSequence(t)
		for _, track := range []int{a1, v1, v2} {
			appendClip(t, s, track, media(0, 99))
		}
		start := s.Snapshot()
		var done []edit.Action
		for len(done) < 25 {
			a, ok := randomAction(rnd, s)
			if !ok {
				continue
			}
			if err := a.Do(); err != nil {
				t.Fatalf("round %d: %s failed: %v", round, a.Name(), err)
			}
			done = append(done, a)
			if err := s.Verify(); err != nil {
				t.Fatalf("round %d: after %s: %v", round, a.Name(), err)
			}
		}
		for i := len(done) - 1; i >= 0; i-- {
			if err := done[i].Undo(); err != nil {
				t.Fatalf("round %d: undo %s failed: %v", round, done[i].Name(), err)
			}
		}
		if diff := cmp.Diff(start, s.Snapshot()); diff != "" {
			t.Fatalf("round %d: undo did not restore the start (-want +got):\n%s", round, diff)
		}
		if err := s.Verify(); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}
}

func randomAction(rnd *rand.Rand, s *flowcut.Sequence) (edit.Action, bool) {
	tracks := []int{a1, v1, v2}
	track := tracks[rnd.Intn(len(tracks))]
	frame := rnd.Intn(s.Length() + 20)
	count := max(s.ClipCount(track), 1)
	index := rnd.Intn(count)
	delta := rnd.Intn(21) - 10
	clip := media(rnd.Intn(500), 0)
	clip.Out = clip.In + rnd.Intn(40)
	switch rnd.Intn(12) {
	case 0:
		return edit.Cut(s, track, frame)
	case 1:
		return edit.CutAll(s, frame)
	case 2:
		return edit.Append(s, track, clip)
	case 3:
		return edit.Insert(s, track, frame, clip)
	case 4:
		return edit.Overwrite(s, track, frame, clip)
	case 5:
		return edit.SpliceOut(s, track, index)
	case 6:
		return edit.Lift(s, track, index)
	case 7:
		return edit.TrimStart(s, track, index, delta)
	case 8:
		return edit.TrimEnd(s, track, index, delta)
	case 9:
		return edit.Roll(s, track, index, delta)
	case 10:
		return edit.Slip(s, track, index, delta)
	default:
		return edit.Move(s, track, index, tracks[rnd.Intn(len(tracks))], frame, rnd.Intn(2) == 0)
	}
}
