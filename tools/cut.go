package tools

import (
	"github.com/flowblade/flowcut/edit"
)

// CutTool cuts the clip under the pointer on press, or all tracks when shift
// is held. The edit state lasts until the release.
type CutTool struct {
	machine
}

func NewCutTool(h Host) *CutTool {
	return &CutTool{machine: machine{host: h}}
}

func (t *CutTool) Press(ev PointerEvent) {
	t.finish()
	seq := t.host.Sequence()
	var a edit.Action
	var ok bool
	if ev.Mods&Shift != 0 {
		a, ok = edit.CutAll(seq, ev.Frame)
	} else {
		a, ok = edit.Cut(seq, ev.Track, ev.Frame)
	}
	if !ok {
		t.host.DefaultPress(ev)
		return
	}
	t.enter(ActiveEdit, Edge{Track: ev.Track}, ev.Frame)
	if !t.perform(a) {
		t.finish()
	}
}

func (t *CutTool) Drag(ev PointerEvent) {}

func (t *CutTool) Release(ev PointerEvent) { t.finish() }

func (t *CutTool) Key(ev KeyEvent) bool {
	if t.state == ActiveEdit && ev.Key == KeyEscape {
		t.finish()
		return true
	}
	return false
}

func (t *CutTool) EnterKeyboard(track, frame int) bool { return false }
