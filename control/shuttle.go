// Package control maps a MIDI jog/shuttle controller to keyboard edits of the
// active tool.
package control

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/flowblade/flowcut/tools"
)

type (
	// Mapping tells which controller and notes of the device do what.
	Mapping struct {
		Jog    uint8
		Enter  uint8
		Commit uint8
		Cancel uint8
		// Channel restricts the messages to one MIDI channel; negative
		// accepts all channels.
		Channel int
	}

	CommandKind int

	Command struct {
		Kind CommandKind
		// Steps is the signed jog distance of a Nudge.
		Steps int
	}

	// Target is what the commands are dispatched to, normally the editing
	// session.
	Target interface {
		Key(ev tools.KeyEvent) bool
		EnterKeyboardEdit() bool
	}

	// Shuttle decodes MIDI messages into commands. HandleMessage can be called
	// from the MIDI driver goroutine; Poll is called on the editing thread.
	Shuttle struct {
		mapping  Mapping
		commands chan Command
	}
)

const (
	Nudge CommandKind = iota
	Enter
	Commit
	Cancel
)

var DefaultMapping = Mapping{Jog: 60, Enter: 36, Commit: 37, Cancel: 38, Channel: -1}

func NewShuttle(m Mapping) *Shuttle {
	return &Shuttle{mapping: m, commands: make(chan Command, 256)}
}

// HandleMessage has the signature of a midi.ListenTo callback. Commands that
// do not fit in the queue are dropped.
func (s *Shuttle) HandleMessage(msg midi.Message, timestampms int32) {
	if c, ok := s.Decode(msg); ok {
		select {
		case s.commands <- c:
		default:
		}
	}
}

// Decode turns a message into a command. Jog values are relative: 1..63 turn
// right by that many steps and 65..127 turn left by 128 minus the value.
func (s *Shuttle) Decode(msg midi.Message) (Command, bool) {
	var channel, controller, value, key, velocity uint8
	switch {
	case msg.GetControlChange(&channel, &controller, &value):
		if !s.channelOk(channel) || controller != s.mapping.Jog {
			return Command{}, false
		}
		switch {
		case value >= 1 && value <= 63:
			return Command{Kind: Nudge, Steps: int(value)}, true
		case value >= 65:
			return Command{Kind: Nudge, Steps: -(128 - int(value))}, true
		}
	case msg.GetNoteOn(&channel, &key, &velocity):
		if !s.channelOk(channel) || velocity == 0 {
			return Command{}, false
		}
		switch key {
		case s.mapping.Enter:
			return Command{Kind: Enter}, true
		case s.mapping.Commit:
			return Command{Kind: Commit}, true
		case s.mapping.Cancel:
			return Command{Kind: Cancel}, true
		}
	}
	return Command{}, false
}

func (s *Shuttle) channelOk(channel uint8) bool {
	return s.mapping.Channel < 0 || int(channel) == s.mapping.Channel
}

// Poll dispatches the queued commands to t and returns how many there were.
func (s *Shuttle) Poll(t Target) int {
	n := 0
	for {
		select {
		case c := <-s.commands:
			Dispatch(t, c)
			n++
		default:
			return n
		}
	}
}

// Dispatch turns a command into key events. Jog steps are sent ten at a time
// with shift held, the rest one at a time.
func Dispatch(t Target, c Command) {
	switch c.Kind {
	case Enter:
		t.EnterKeyboardEdit()
	case Commit:
		t.Key(tools.KeyEvent{Key: tools.KeyEnter})
	case Cancel:
		t.Key(tools.KeyEvent{Key: tools.KeyEscape})
	case Nudge:
		key, n := tools.KeyRight, c.Steps
		if n < 0 {
			key, n = tools.KeyLeft, -n
		}
		for ; n >= 10; n -= 10 {
			t.Key(tools.KeyEvent{Key: key, Mods: tools.Shift})
		}
		for ; n > 0; n-- {
			t.Key(tools.KeyEvent{Key: key})
		}
	}
}
