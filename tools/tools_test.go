package tools_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/edit"
	"github.com/flowblade/flowcut/pipeline"
	"github.com/flowblade/flowcut/tools"
)

const v1 = 2

type host struct {
	seq       *flowcut.Sequence
	done      int
	defaults  int
	performed []string
	// refuse makes Perform fail without doing anything.
	refuse error
	log    bytes.Buffer
}

func (h *host) Sequence() *flowcut.Sequence { return h.seq }

func (h *host) Logger() *slog.Logger { return slog.New(slog.NewTextHandler(&h.log, nil)) }

func (h *host) Perform(a edit.Action) error {
	if h.refuse != nil {
		return h.refuse
	}
	if err := a.Do(); err != nil {
		return err
	}
	h.performed = append(h.performed, a.Name())
	return nil
}

func (h *host) EditDone() { h.done++ }

func (h *host) DefaultPress(ev tools.PointerEvent) { h.defaults++ }

// newHost returns a host with two 100 frame clips on V1, the edit point
// between them at frame 100.
func newHost(t *testing.T) *host {
	t.Helper()
	s, err := flowcut.NewSequence(pipeline.NewMemory(), flowcut.SequenceOptions{VideoTracks: 2, AudioTracks: 1, Strict: true})
	if err != nil {
		t.Fatalf("NewSequence failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		a, ok := edit.Append(s, v1, flowcut.Clip{Name: "shot", Type: flowcut.Video, Resource: "shot.mp4", MediaLength: 1000, Out: 99})
		if !ok {
			t.Fatalf("Append failed")
		}
		if err := a.Do(); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	return &host{seq: s}
}

func press(track, frame int) tools.PointerEvent {
	return tools.PointerEvent{Track: track, Frame: frame}
}

func spans(s *flowcut.Sequence, track int) []flowcut.Span {
	var ret []flowcut.Span
	for _, c := range s.Clips(track) {
		ret = append(ret, flowcut.Span{In: c.In, Out: c.Out})
	}
	return ret
}

func TestOneRollTrim(t *testing.T) {
	h := newHost(t)
	tool := tools.NewOneRollTool(h, 5)
	tool.Press(press(v1, 101))
	if tool.State() != tools.ActiveEdit {
		t.Fatalf("State = %v after press near an edit point, want active", tool.State())
	}
	if e, _ := tool.Preview(); e != (tools.Edge{Context: tools.TrimLeft, Track: v1, Index: 1}) {
		t.Errorf("unexpected edge %+v", e)
	}
	tool.Drag(press(v1, 105))
	if _, d := tool.Preview(); d != 4 {
		t.Errorf("preview delta = %d, want 4", d)
	}
	tool.Release(press(v1, 111))
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 99}, {In: 10, Out: 99}}, spans(h.seq, v1)); diff != "" {
		t.Errorf("trim mismatch (-want +got):\n%s", diff)
	}
	if h.done != 1 || tool.State() != tools.Idle {
		t.Errorf("EditDone called %d times, state %v; want 1 and idle", h.done, tool.State())
	}
	// a release without a press does nothing
	tool.Release(press(v1, 120))
	if h.done != 1 || len(h.performed) != 1 {
		t.Errorf("stray release: done=%d performed=%v", h.done, h.performed)
	}
}

func TestPressWithoutContext(t *testing.T) {
	h := newHost(t)
	tool := tools.NewOneRollTool(h, 5)
	tool.Press(press(v1, 50))
	if h.defaults != 1 || h.done != 0 || tool.State() != tools.Idle {
		t.Errorf("press in a clip body: defaults=%d done=%d state=%v", h.defaults, h.done, tool.State())
	}
	h.seq.SetTrackMode(v1, flowcut.Locked)
	tool.Press(press(v1, 100))
	if h.defaults != 2 {
		t.Errorf("press on a locked track was not passed on")
	}
}

func TestPressWhileActive(t *testing.T) {
	h := newHost(t)
	tool := tools.NewOneRollTool(h, 5)
	tool.Press(press(v1, 101))
	// the release got lost; the next press ends the first edit
	tool.Press(press(v1, 99))
	if h.done != 1 {
		t.Errorf("EditDone called %d times, want 1", h.done)
	}
	if e, _ := tool.Preview(); e != (tools.Edge{Context: tools.TrimRight, Track: v1, Index: 0}) {
		t.Errorf("unexpected edge %+v", e)
	}
	tool.Release(press(v1, 94))
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 94}, {In: 0, Out: 99}}, spans(h.seq, v1)); diff != "" {
		t.Errorf("trim mismatch (-want +got):\n%s", diff)
	}
	if h.done != 2 {
		t.Errorf("EditDone called %d times, want 2", h.done)
	}
}

func TestKeyboardRoll(t *testing.T) {
	h := newHost(t)
	tool := tools.NewTwoRollTool(h, 5)
	if !tool.EnterKeyboard(v1, 130) {
		t.Fatalf("EnterKeyboard failed")
	}
	tool.Key(tools.KeyEvent{Key: tools.KeyRight})
	tool.Key(tools.KeyEvent{Key: tools.KeyRight, Mods: tools.Shift})
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 110}, {In: 11, Out: 99}}, spans(h.seq, v1)); diff != "" {
		t.Errorf("roll mismatch (-want +got):\n%s", diff)
	}
	if h.done != 0 {
		t.Errorf("EditDone called during a keyboard edit")
	}
	if !tool.Key(tools.KeyEvent{Key: tools.KeyEnter}) {
		t.Errorf("Enter was not used")
	}
	if h.done != 1 || tool.State() != tools.Idle {
		t.Errorf("after Enter: done=%d state=%v", h.done, tool.State())
	}
	if tool.Key(tools.KeyEvent{Key: tools.KeyLeft}) {
		t.Errorf("idle tool used a key")
	}
	if diff := cmp.Diff([]string{"roll", "roll"}, h.performed); diff != "" {
		t.Errorf("performed mismatch (-want +got):\n%s", diff)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	h := newHost(t)
	tool := tools.NewTwoRollTool(h, 5)
	tool.Press(press(v1, 98))
	tool.Cancel()
	tool.Cancel()
	if h.done != 1 || len(h.performed) != 0 {
		t.Errorf("cancel: done=%d performed=%v", h.done, h.performed)
	}
}

func TestMultiTrimContexts(t *testing.T) {
	h := newHost(t)
	tool := tools.NewMultiTrimTool(h, 9)
	for _, tc := range []struct {
		frame int
		want  tools.Edge
	}{
		{101, tools.Edge{Context: tools.MultiRoll, Track: v1, Index: 1}},
		{106, tools.Edge{Context: tools.TrimLeft, Track: v1, Index: 1}},
		{94, tools.Edge{Context: tools.TrimRight, Track: v1, Index: 0}},
		{150, tools.Edge{Context: tools.MultiSlip, Track: v1, Index: 1}},
		{2, tools.Edge{Context: tools.TrimLeft, Track: v1, Index: 0}},
	} {
		tool.Press(press(v1, tc.frame))
		if e, _ := tool.Preview(); e != tc.want {
			t.Errorf("press at %d: edge %+v, want %+v", tc.frame, e, tc.want)
		}
		tool.Cancel()
	}
	if h.done != 5 || h.defaults != 0 {
		t.Errorf("done=%d defaults=%d, want 5 and 0", h.done, h.defaults)
	}
	tool.Press(press(v1, 150))
	tool.Release(press(v1, 140))
	if diff := cmp.Diff([]flowcut.Span{{In: 0, Out: 99}, {In: 10, Out: 109}}, spans(h.seq, v1)); diff != "" {
		t.Errorf("slip mismatch (-want +got):\n%s", diff)
	}
}

func TestCutTool(t *testing.T) {
	h := newHost(t)
	tool := tools.NewCutTool(h)
	tool.Press(press(v1, 50))
	if tool.State() != tools.ActiveEdit || len(h.performed) != 1 {
		t.Fatalf("cut press: state=%v performed=%v", tool.State(), h.performed)
	}
	tool.Release(press(v1, 50))
	if h.done != 1 || h.seq.ClipCount(v1) != 3 {
		t.Errorf("after cut: done=%d clips=%d", h.done, h.seq.ClipCount(v1))
	}
	tool.Press(press(v1, 100))
	if h.defaults != 1 || tool.State() != tools.Idle {
		t.Errorf("cut on an edit point: defaults=%d state=%v", h.defaults, tool.State())
	}
	tool.Press(tools.PointerEvent{Track: v1, Frame: 150, Mods: tools.Shift})
	tool.Release(press(v1, 150))
	if h.done != 2 || h.seq.ClipCount(v1) != 4 {
		t.Errorf("after cut all: done=%d clips=%d", h.done, h.seq.ClipCount(v1))
	}
}

func TestFailedEditIsLogged(t *testing.T) {
	h := newHost(t)
	h.refuse = errors.New("pipeline refused")
	tool := tools.NewOneRollTool(h, 5)
	tool.Press(press(v1, 101))
	tool.Release(press(v1, 111))
	if h.done != 1 || tool.State() != tools.Idle {
		t.Errorf("after a failed trim: done=%d state=%v", h.done, tool.State())
	}
	if out := h.log.String(); !strings.Contains(out, "tool edit failed") || !strings.Contains(out, "pipeline refused") {
		t.Errorf("failed trim was not logged: %q", out)
	}
	cut := tools.NewCutTool(h)
	cut.Press(press(v1, 50))
	if h.done != 2 || cut.State() != tools.Idle {
		t.Errorf("after a failed cut: done=%d state=%v", h.done, cut.State())
	}
	if n := strings.Count(h.log.String(), "tool edit failed"); n != 2 {
		t.Errorf("logged %d failures, want 2", n)
	}
}
