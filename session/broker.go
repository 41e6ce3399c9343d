package session

import (
	"time"
)

type (
	// Broker carries the messages between the editing thread and everyone
	// else. Every recipient has one buffered channel. Background goroutines,
	// like job workers and the preference watcher, only ever send to ToModel;
	// the session drains it on the editing thread in Poll. The session posts
	// notifications for the user interface to ToGUI and drops them if nobody
	// reads them.
	Broker struct {
		ToModel chan MsgToModel
		ToGUI   chan MsgToGUI
	}

	// MsgToModel is a message to the session. Data is one of jobs.Result,
	// preferenceChange or func(*Session).
	MsgToModel struct {
		Data any
	}

	MsgToGUI struct {
		Kind  GUIMessageKind
		Param int
		Text  string
	}

	GUIMessageKind int
)

const (
	GUIMessageKindNone GUIMessageKind = iota
	GUIMessageRedraw
	// GUIMessageModeChanged: Param is the new EditMode.
	GUIMessageModeChanged
	// GUIMessageAlert: Text should be shown to the user.
	GUIMessageAlert
	// GUIMessageHistory: the undo/redo availability may have changed.
	GUIMessageHistory
)

func NewBroker() *Broker {
	return &Broker{
		ToModel: make(chan MsgToModel, 1024),
		ToGUI:   make(chan MsgToGUI, 1024),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
