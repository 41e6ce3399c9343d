package session

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/edit"
)

type (
	// Script is a list of edits to run on a session, read from YAML:
	//
	//	media:
	//	  shot: {resource: shot.mp4, type: video, length: 1000}
	//	steps:
	//	  - {do: append, track: V1, media: shot, in: 0, out: 99}
	//	  - {do: cut, track: V1, frame: 40}
	//	  - {do: undo}
//	  - do: group
//	    name: trim-both
//	    steps:
//	      - {do: trim, track: V1, index: 0, side: end, delta: -5}
//	      - {do: trim, track: V1, index: 1, side: start, delta: 5}
	Script struct {
		Name  string               `yaml:"name"`
		Media map[string]MediaSpec `yaml:"media"`
		Steps []Step               `yaml:"steps"`
	}

	MediaSpec struct {
		Resource string `yaml:"resource"`
		Type     string `yaml:"type"`
		Length   int    `yaml:"length"`
	}

	// Step is one edit. Which fields are used depends on Do.
	Step struct {
		Do    string `yaml:"do"`
		Track string `yaml:"track"`
		Media string `yaml:"media"`
		In    int    `yaml:"in"`
		Out   int    `yaml:"out"`
		Frame int    `yaml:"frame"`
		From  int    `yaml:"from"`
		To    int    `yaml:"to"`
		Index int    `yaml:"index"`
		Delta int    `yaml:"delta"`
		// Side is start or end for trim.
		Side string `yaml:"side"`
		// Target is the destination track of a move and the parent track
		// of a sync, with TargetIndex the parent clip.
		Target      string `yaml:"target"`
		TargetIndex int    `yaml:"targetindex"`
		Overwrite   bool   `yaml:"overwrite"`
		// Mode is an edit mode for mode and a track mode for lock.
		Mode  string `yaml:"mode"`
		Color string `yaml:"color"`
		// Proxy is the file the proxy step renders into.
		Proxy string `yaml:"proxy"`
		// Name and Steps are the name and the edit steps of a group.
		Name  string `yaml:"name"`
		Steps []Step `yaml:"steps"`
	}

	StepResult struct {
		Step int
		Do   string
		// Name is the display name of the performed action, e.g. "Ripple
		// Delete", or empty if the step performed none.
		Name string
		// Done is false if the step could not be applied and changed
		// nothing.
		Done bool
		Err  error
	}
)

// ReadScript parses a script. Unknown fields are an error.
func ReadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sc Script
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not parse script: %w", err)
	}
	return &sc, nil
}

// Run runs the steps of a script in order. Steps that fail or cannot be
// applied are reported in the results and the script goes on; malformed
// steps and a corrupted session stop it.
func (s *Session) Run(sc *Script) ([]StepResult, error) {
	var ret []StepResult
	for i, st := range sc.Steps {
		name, done, err := s.runStep(sc, st)
		var bad *stepError
		if errors.As(err, &bad) {
			return ret, fmt.Errorf("step %d (%s): %w", i+1, st.Do, err)
		}
		ret = append(ret, StepResult{Step: i + 1, Do: st.Do, Name: name, Done: done, Err: err})
		if errors.Is(err, ErrCorrupted) || s.corrupted != nil {
			return ret, fmt.Errorf("step %d (%s): %w", i+1, st.Do, ErrCorrupted)
		}
	}
	return ret, nil
}

// stepError is a malformed step.
type stepError struct{ msg string }

func (e *stepError) Error() string { return e.msg }

func badStep(format string, args ...any) error {
	return &stepError{msg: fmt.Sprintf(format, args...)}
}

var steps = map[string]bool{
	"append": true, "insert": true, "overwrite": true, "cut": true, "cutall": true,
	"lift": true, "splice": true, "delete": true, "ripple": true, "trim": true,
	"roll": true, "slip": true, "move": true, "sync": true, "unsync": true,
	"color": true, "group": true, "proxy": true, "undo": true, "redo": true,
	"mode": true, "lock": true,
}

// runStep runs one step and returns the display name of the action it
// performed, if any.
func (s *Session) runStep(sc *Script, st Step) (string, bool, error) {
	if !steps[st.Do] {
		return "", false, badStep("unknown step %q", st.Do)
	}
	seq := s.seq
	switch st.Do {
	case "undo", "redo":
		f := s.Undo
		if st.Do == "redo" {
			f = s.Redo
		}
		if err := f(); err != nil {
			return "", false, err
		}
		return "", true, nil
	case "mode":
		m, err := ParseEditMode(st.Mode)
		if err != nil {
			return "", false, badStep("%v", err)
		}
		s.SetMode(m)
		return "", true, nil
	case "lock":
		track, err := trackOf(seq, st.Track)
		if err != nil {
			return "", false, err
		}
		m, ok := flowcut.ParseTrackMode(st.Mode)
		if !ok {
			return "", false, badStep("unknown track mode %q", st.Mode)
		}
		if err := seq.SetTrackMode(track, m); err != nil {
			return "", false, err
		}
		return "", true, nil
	case "proxy":
		track, err := trackOf(seq, st.Track)
		if err != nil {
			return "", false, err
		}
		c, ok := seq.ClipAtIndex(track, st.Index)
		if !ok {
			return "", false, nil
		}
		if _, err := s.SubmitProxy(c.ID, st.Proxy); err != nil {
			return "", false, err
		}
		s.WaitJobs()
		return "", s.Poll() > 0, nil
	case "group":
		return s.runGroup(sc, st)
	}
	b, err := s.builder(sc, st)
	if err != nil {
		return "", false, err
	}
	a, ok := b()
	done, err := s.Build(a, ok)
	if !done || err != nil {
		return "", done, err
	}
	return edit.DisplayName(a), true, nil
}

// runGroup performs the steps of a group as one undoable action. Each step is
// built after the ones before it have been done.
func (s *Session) runGroup(sc *Script, st Step) (string, bool, error) {
	if len(st.Steps) == 0 {
		return "", false, badStep("group has no steps")
	}
	builders := make([]edit.Builder, len(st.Steps))
	for i, sub := range st.Steps {
		b, err := s.builder(sc, sub)
		if err != nil {
			return "", false, fmt.Errorf("group step %d (%s): %w", i+1, sub.Do, err)
		}
		builders[i] = b
	}
	name := st.Name
	if name == "" {
		name = "group"
	}
	g := edit.NewGroup(name, builders...)
	if err := s.Perform(g); err != nil {
		if errors.Is(err, edit.ErrEmptyGroup) {
			return "", false, nil
		}
		return "", true, err
	}
	return edit.DisplayName(g), true, nil
}

func trackOf(seq *flowcut.Sequence, name string) (int, error) {
	track, ok := seq.TrackByName(name)
	if !ok {
		return 0, badStep("unknown track %q", name)
	}
	return track, nil
}

// lazy turns a typed builder call into an edit.Builder.
func lazy[A edit.Action](f func() (A, bool)) edit.Builder {
	return func() (edit.Action, bool) {
		a, ok := f()
		if !ok {
			return nil, false
		}
		return a, true
	}
}

// builder checks the arguments of an edit step and returns the builder of its
// action. The builder looks at the sequence only when it is called.
func (s *Session) builder(sc *Script, st Step) (edit.Builder, error) {
	seq := s.seq
	switch st.Do {
	case "cutall":
		return lazy(func() (*edit.CutAllAction, bool) { return edit.CutAll(seq, st.Frame) }), nil
	case "ripple":
		return lazy(func() (*edit.RemoveAction, bool) { return edit.RippleDelete(seq, st.From, st.To) }), nil
	case "undo", "redo", "mode", "lock", "proxy", "group":
		return nil, badStep("%s can not be part of a group", st.Do)
	}
	if !steps[st.Do] {
		return nil, badStep("unknown step %q", st.Do)
	}
	track, err := trackOf(seq, st.Track)
	if err != nil {
		return nil, err
	}
	switch st.Do {
	case "append", "insert", "overwrite":
		c, err := sc.clip(st)
		if err != nil {
			return nil, err
		}
		return lazy(func() (*edit.PlaceAction, bool) {
			switch st.Do {
			case "append":
				return edit.Append(seq, track, c)
			case "insert":
				return edit.Insert(seq, track, st.Frame, c)
			}
			return edit.Overwrite(seq, track, st.Frame, c)
		}), nil
	case "cut":
		return lazy(func() (*edit.CutAction, bool) { return edit.Cut(seq, track, st.Frame) }), nil
	case "lift":
		return lazy(func() (*edit.RemoveAction, bool) { return edit.Lift(seq, track, st.Index) }), nil
	case "splice":
		return lazy(func() (*edit.RemoveAction, bool) { return edit.SpliceOut(seq, track, st.Index) }), nil
	case "delete":
		return lazy(func() (*edit.RemoveAction, bool) { return edit.DeleteRange(seq, track, st.From, st.To, false) }), nil
	case "trim":
		switch st.Side {
		case "start":
			return lazy(func() (*edit.TrimAction, bool) { return edit.TrimStart(seq, track, st.Index, st.Delta) }), nil
		case "end":
			return lazy(func() (*edit.TrimAction, bool) { return edit.TrimEnd(seq, track, st.Index, st.Delta) }), nil
		}
		return nil, badStep("trim side must be start or end, not %q", st.Side)
	case "roll":
		return lazy(func() (*edit.RollAction, bool) { return edit.Roll(seq, track, st.Index, st.Delta) }), nil
	case "slip":
		return lazy(func() (*edit.TrimAction, bool) { return edit.Slip(seq, track, st.Index, st.Delta) }), nil
	case "move":
		to, ok := seq.TrackByName(st.Target)
		if !ok {
			return nil, badStep("unknown target track %q", st.Target)
		}
		return lazy(func() (*edit.MoveAction, bool) { return edit.Move(seq, track, st.Index, to, st.Frame, st.Overwrite) }), nil
	case "sync":
		to, ok := seq.TrackByName(st.Target)
		if !ok {
			return nil, badStep("unknown target track %q", st.Target)
		}
		return lazy(func() (*edit.ClipAction, bool) {
			c, ok := seq.ClipAtIndex(track, st.Index)
			parent, pok := seq.ClipAtIndex(to, st.TargetIndex)
			if !ok || !pok {
				return nil, false
			}
			return edit.Link(seq, c.ID, parent.ID)
		}), nil
	}
	// the clip steps
	return lazy(func() (*edit.ClipAction, bool) {
		c, ok := seq.ClipAtIndex(track, st.Index)
		if !ok {
			return nil, false
		}
		if st.Do == "unsync" {
			return edit.Unlink(seq, c.ID)
		}
		return edit.SetClipColor(seq, c.ID, st.Color)
	}), nil
}

func (sc *Script) clip(st Step) (flowcut.Clip, error) {
	m, ok := sc.Media[st.Media]
	if !ok {
		return flowcut.Clip{}, badStep("unknown media %q", st.Media)
	}
	t, ok := flowcut.ParseMediaType(m.Type)
	if !ok || t == flowcut.Blank {
		return flowcut.Clip{}, badStep("media %q has bad type %q", st.Media, m.Type)
	}
	return flowcut.Clip{
		Name:        st.Media,
		Type:        t,
		Resource:    m.Resource,
		MediaLength: m.Length,
		In:          st.In,
		Out:         st.Out,
	}, nil
}
