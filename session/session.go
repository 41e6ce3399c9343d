// Package session ties the editing core together: a Session owns one open
// sequence with its pipeline graph, undo history, sync resolver, tools and
// background jobs. All its methods must be called from one goroutine, the
// editing thread; other goroutines talk to it through the Broker.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowblade/flowcut"
	"github.com/flowblade/flowcut/config"
	"github.com/flowblade/flowcut/control"
	"github.com/flowblade/flowcut/edit"
	"github.com/flowblade/flowcut/history"
	"github.com/flowblade/flowcut/jobs"
	"github.com/flowblade/flowcut/pipeline"
	"github.com/flowblade/flowcut/resync"
	"github.com/flowblade/flowcut/tools"
)

type (
	EditMode int

	Options struct {
		Name        string
		Preferences config.Preferences
		// Graph defaults to a new in-memory pipeline.
		Graph pipeline.Graph
		// Transcoder renders proxies; defaults to jobs.CopyTranscoder.
		Transcoder jobs.Transcoder
		// Controller maps a MIDI jog/shuttle device; defaults to
		// control.DefaultMapping.
		Controller *control.Mapping
		Logger     *slog.Logger
	}

	Session struct {
		id       uuid.UUID
		seq      *flowcut.Sequence
		graph    pipeline.Graph
		history  *history.Manager
		resolver *resync.Resolver
		broker   *Broker
		prefs    config.Preferences
		logger   *slog.Logger

		mode        EditMode
		tools       map[EditMode]tools.Tool
		activeTrack int
		playhead    int
		drag        *drag
		// editDone is set when a tool has finished an edit during the current
		// event.
		editDone bool

		store   *jobs.Store
		runner  *jobs.Runner
		shuttle *control.Shuttle

		// corrupted is the divergence that stopped editing, if any.
		corrupted error
	}

	// drag is a clip being moved in the move modes.
	drag struct {
		track, index int
		start, press int
	}

	preferenceChange struct {
		prefs config.Preferences
		err   error
	}
)

const (
	InsertMove EditMode = iota
	OverwriteMove
	OneRollTrim
	TwoRollTrim
	SlipMode
	MultiTrim
	CutMode
)

var modeNames = [...]string{"insert", "overwrite", "trim", "roll", "slip", "multitrim", "cut"}

// ErrCorrupted is returned for every edit after the pipeline has diverged
// from the model.
var ErrCorrupted = errors.New("session is corrupted")

func (m EditMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

func ParseEditMode(s string) (EditMode, error) {
	for i, n := range modeNames {
		if n == s {
			return EditMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown edit mode %q", s)
}

func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Preferences == (config.Preferences{}) {
		opts.Preferences = config.Default()
	}
	if opts.Graph == nil {
		opts.Graph = pipeline.NewMemory()
	}
	if opts.Transcoder == nil {
		opts.Transcoder = jobs.CopyTranscoder{Chunk: 1 << 20}
	}
	if opts.Controller == nil {
		opts.Controller = &control.DefaultMapping
	}
	prefs := opts.Preferences.Normalize()
	id := uuid.New()
	logger := opts.Logger.With("session", id.String())
	seq, err := flowcut.NewSequence(opts.Graph, flowcut.SequenceOptions{
		Name:        opts.Name,
		VideoTracks: prefs.Sequence.VideoTracks,
		AudioTracks: prefs.Sequence.AudioTracks,
		Strict:      prefs.Editing.StrictMirror,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create sequence: %w", err)
	}
	store, err := jobs.OpenStore(prefs.Jobs.Database)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:       id,
		seq:      seq,
		graph:    opts.Graph,
		history:  history.New(prefs.Editing.MaxUndos, logger),
		resolver: resync.New(logger),
		broker:   NewBroker(),
		logger:   logger,
		store:    store,
		shuttle:  control.NewShuttle(*opts.Controller),
	}
	s.history.OnReset = func() { s.SetMode(InsertMove) }
	s.runner = jobs.NewRunner(store, opts.Transcoder, prefs.Jobs.Workers, func(r jobs.Result) {
		if !TrySend(s.broker.ToModel, MsgToModel{Data: r}) {
			logger.Warn("model queue full, dropping job result", "job", r.Job.ID)
		}
	}, logger)
	s.applyPreferences(prefs)
	if v, ok := s.seq.TrackByName("V1"); ok {
		s.activeTrack = v
	}
	logger.Info("session opened", "tracks", seq.TrackCount())
	return s, nil
}

func (s *Session) ID() uuid.UUID                   { return s.id }
func (s *Session) Sequence() *flowcut.Sequence     { return s.seq }
func (s *Session) History() *history.Manager       { return s.history }
func (s *Session) Broker() *Broker                 { return s.broker }
func (s *Session) Mode() EditMode                  { return s.mode }
func (s *Session) Preferences() config.Preferences { return s.prefs }
func (s *Session) Shuttle() *control.Shuttle       { return s.shuttle }
func (s *Session) Logger() *slog.Logger            { return s.logger }
func (s *Session) Jobs() *jobs.Store               { return s.store }
func (s *Session) ActiveTrack() int                { return s.activeTrack }
func (s *Session) Playhead() int                   { return s.playhead }
func (s *Session) SetActiveTrack(track int)        { s.activeTrack = track }
func (s *Session) SetPlayhead(frame int)           { s.playhead = max(frame, 0) }

// Corrupted returns the error that stopped editing, or nil.
func (s *Session) Corrupted() error { return s.corrupted }

// Perform does an action and records it in the history.
func (s *Session) Perform(a edit.Action) error {
	if s.corrupted != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, s.corrupted)
	}
	if err := a.Do(); err != nil {
		s.fail(err)
		return fmt.Errorf("%s: %w", a.Name(), err)
	}
	s.history.Register(a)
	s.logger.Debug("performed", "action", a.Name())
	if r, ok := a.(*edit.RollAction); ok {
		switch r.ChildTrim {
		case edit.ChildTrimMultiple:
			s.alert("The clip has several sync children, none of them was trimmed")
		case edit.ChildTrimBlocked:
			s.alert("The sync child of the clip could not follow the roll")
		}
	}
	s.changed()
	return nil
}

// Build performs the action a builder returns, if any. It reports whether
// something was done.
func (s *Session) Build(a edit.Action, ok bool) (bool, error) {
	if !ok {
		s.logger.Debug("no action")
		return false, nil
	}
	return true, s.Perform(a)
}

// Undo undoes the latest action. Like Redo, it ends any tool edit in progress
// and returns to InsertMove.
func (s *Session) Undo() error {
	return s.step(s.history.Undo)
}

func (s *Session) Redo() error {
	return s.step(s.history.Redo)
}

func (s *Session) step(f func() error) error {
	if s.corrupted != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, s.corrupted)
	}
	if err := f(); err != nil {
		s.fail(err)
		return err
	}
	s.changed()
	return nil
}

// fail stops editing if err is a divergence.
func (s *Session) fail(err error) {
	var div *flowcut.DivergenceError
	if !errors.As(err, &div) {
		return
	}
	s.corrupted = div
	s.logger.Error("sequence corrupted, editing stopped", "track", div.Track, "reason", div.Reason)
	s.alert("The timeline no longer matches the playback pipeline. Save your work under a new name and reopen it.")
}

func (s *Session) changed() {
	s.resolver.Resolve(s.seq)
	TrySend(s.broker.ToGUI, MsgToGUI{Kind: GUIMessageRedraw})
	TrySend(s.broker.ToGUI, MsgToGUI{Kind: GUIMessageHistory})
}

func (s *Session) alert(text string) {
	TrySend(s.broker.ToGUI, MsgToGUI{Kind: GUIMessageAlert, Text: text})
}

// SetMode ends the edit of the current tool, if any, and changes the mode.
func (s *Session) SetMode(m EditMode) {
	if t := s.tools[s.mode]; t != nil {
		t.Cancel()
	}
	s.drag = nil
	s.editDone = false
	if m == s.mode {
		return
	}
	s.mode = m
	s.logger.Debug("edit mode", "mode", m)
	TrySend(s.broker.ToGUI, MsgToGUI{Kind: GUIMessageModeChanged, Param: int(m)})
}

// EditDone is called by a tool when it leaves its edit state. The session
// returns to InsertMove once the event being handled is done, unless the tool
// started a new edit meanwhile.
func (s *Session) EditDone() {
	s.editDone = true
	TrySend(s.broker.ToGUI, MsgToGUI{Kind: GUIMessageRedraw})
}

func (s *Session) settle() {
	if !s.editDone {
		return
	}
	s.editDone = false
	if t := s.tools[s.mode]; t == nil || t.State() == tools.Idle {
		s.SetMode(InsertMove)
	}
}

// DefaultPress handles a press no tool could use: the mode falls back to
// InsertMove and the press starts a clip move.
func (s *Session) DefaultPress(ev tools.PointerEvent) {
	if s.mode != InsertMove && s.mode != OverwriteMove {
		s.SetMode(InsertMove)
	}
	s.drag = nil
	index, ok := s.seq.ClipIndexAt(ev.Track, ev.Frame)
	if !ok {
		return
	}
	if c, _ := s.seq.ClipAtIndex(ev.Track, index); c.IsBlank() {
		return
	}
	s.drag = &drag{track: ev.Track, index: index, start: s.seq.ClipStart(ev.Track, index), press: ev.Frame}
}

func (s *Session) Press(ev tools.PointerEvent) {
	defer s.settle()
	s.activeTrack = ev.Track
	if t := s.tools[s.mode]; t != nil {
		t.Press(ev)
		return
	}
	s.DefaultPress(ev)
}

func (s *Session) Drag(ev tools.PointerEvent) {
	if t := s.tools[s.mode]; t != nil {
		t.Drag(ev)
	}
}

func (s *Session) Release(ev tools.PointerEvent) {
	defer s.settle()
	if t := s.tools[s.mode]; t != nil {
		t.Release(ev)
		return
	}
	d := s.drag
	s.drag = nil
	if d == nil || (ev.Frame == d.press && ev.Track == d.track) {
		return
	}
	frame := max(d.start+ev.Frame-d.press, 0)
	a, ok := edit.Move(s.seq, d.track, d.index, ev.Track, frame, s.mode == OverwriteMove)
	if _, err := s.Build(a, ok); err != nil {
		s.logger.Warn("move failed", "err", err)
	}
}

// Key passes a key event to the tool of the current mode and reports whether
// it was used.
func (s *Session) Key(ev tools.KeyEvent) bool {
	defer s.settle()
	if t := s.tools[s.mode]; t != nil {
		return t.Key(ev)
	}
	return false
}

// EnterKeyboardEdit starts a keyboard edit on the active track at the edit
// point nearest to the playhead.
func (s *Session) EnterKeyboardEdit() bool {
	defer s.settle()
	if t := s.tools[s.mode]; t != nil {
		return t.EnterKeyboard(s.activeTrack, s.playhead)
	}
	return false
}

// Tool returns the tool of the current mode, or nil in the move modes.
func (s *Session) Tool() tools.Tool { return s.tools[s.mode] }

// SubmitProxy starts rendering a proxy of the media of a clip into dst. When
// the job is done, Poll replaces the media of the clip with the proxy.
func (s *Session) SubmitProxy(id flowcut.ClipID, dst string) (uuid.UUID, error) {
	c, ok := s.seq.Clip(id)
	if !ok || c.IsBlank() {
		return uuid.Nil, flowcut.ErrNoSuchClip
	}
	return s.runner.Submit(id, c.Resource, dst)
}

func (s *Session) AbortJob(id uuid.UUID) error {
	return s.runner.RequestAbort(id)
}

// WaitJobs blocks until the submitted jobs are finished. Their results still
// need a Poll.
func (s *Session) WaitJobs() { s.runner.Wait() }

// WatchPreferences reloads the preferences from dir when they change, until
// ctx is done. The new preferences take effect in Poll.
func (s *Session) WatchPreferences(ctx context.Context, dir string) error {
	return config.Watch(ctx, dir, func(p config.Preferences, err error) {
		TrySend(s.broker.ToModel, MsgToModel{Data: preferenceChange{prefs: p, err: err}})
	})
}

// Poll handles the messages waiting in the model queue and the commands of
// the MIDI controller, and returns how many there were. It never blocks.
func (s *Session) Poll() int {
	n := s.shuttle.Poll(s)
	for {
		select {
		case msg := <-s.broker.ToModel:
			s.handle(msg)
			n++
		default:
			return n
		}
	}
}

func (s *Session) handle(msg MsgToModel) {
	switch d := msg.Data.(type) {
	case jobs.Result:
		s.integrate(d)
	case preferenceChange:
		if d.err != nil {
			s.logger.Warn("could not read preferences", "err", d.err)
			s.alert(fmt.Sprintf("Preferences: %v", d.err))
		}
		s.ApplyPreferences(d.prefs)
	case func(*Session):
		d(s)
	default:
		s.logger.Warn("unknown model message", "type", fmt.Sprintf("%T", d))
	}
}

// integrate replaces the media of the clip of a finished job. The clip may
// have been deleted meanwhile, in which case the result is dropped.
func (s *Session) integrate(r jobs.Result) {
	if r.Job.Status != jobs.Done {
		s.logger.Info("job did not finish", "job", r.Job.ID, "status", r.Job.Status, "err", r.Err)
		return
	}
	c, ok := s.seq.Clip(r.Job.Clip)
	if !ok {
		s.logger.Info("job clip is gone", "job", r.Job.ID, "clip", r.Job.Clip)
		return
	}
	m := c.Media()
	m.Resource = r.Job.Target
	a, ok := edit.ReplaceMedia(s.seq, c.ID, m)
	if _, err := s.Build(a, ok); err != nil {
		s.logger.Warn("could not replace media", "clip", c.ID, "err", err)
	}
}

// ApplyPreferences changes the history size and the tool snapping. Track
// counts only affect new sessions.
func (s *Session) ApplyPreferences(p config.Preferences) {
	s.SetMode(InsertMove)
	s.applyPreferences(p.Normalize())
}

func (s *Session) applyPreferences(p config.Preferences) {
	s.prefs = p
	s.history.SetCapacity(p.Editing.MaxUndos)
	snap := p.Editing.SnapFrames
	s.tools = map[EditMode]tools.Tool{
		OneRollTrim: tools.NewOneRollTool(s, snap),
		TwoRollTrim: tools.NewTwoRollTool(s, snap),
		SlipMode:    tools.NewSlipTool(s),
		MultiTrim:   tools.NewMultiTrimTool(s, snap),
		CutMode:     tools.NewCutTool(s),
	}
}

// WriteMLT writes the pipeline graph as MLT XML. The graph must be the
// default in-memory one.
func (s *Session) WriteMLT(w io.Writer) error {
	m, ok := s.graph.(*pipeline.Memory)
	if !ok {
		return errors.New("pipeline graph cannot be written")
	}
	return pipeline.WriteXML(w, m, s.seq.Name(), s.prefs.Sequence.FPS)
}

// Close ends any tool edit and stops the background jobs.
func (s *Session) Close() error {
	if t := s.tools[s.mode]; t != nil {
		t.Cancel()
	}
	s.runner.Close()
	s.logger.Info("session closed")
	return s.store.Close()
}
