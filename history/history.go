// Package history is the undo/redo stack of an editing session.
//
// The history is linear: registering an action while some actions are undone
// discards them for good. It is also bounded; when full, registering drops
// the oldest entry.
package history

import (
	"errors"
	"fmt"
	"log/slog"
)

const DefaultMax = 30

type (
	// Undoable is an action that has been done.
	Undoable interface {
		Name() string
		Undo() error
		Redo() error
	}

	// Manager holds the actions and a pointer: the actions before the pointer
	// are done and can be undone, the ones at or after it are undone and can
	// be redone.
	Manager struct {
		stack   []Undoable
		pointer int
		max     int

		// OnReset is called after every successful undo and redo, e.g. to
		// leave the current edit mode.
		OnReset func()

		logger *slog.Logger
	}
)

var ErrEmpty = errors.New("nothing to undo or redo")

// New returns an empty history holding at most n actions, or DefaultMax if n
// is not positive.
func New(n int, logger *slog.Logger) *Manager {
	if n <= 0 {
		n = DefaultMax
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{max: n, logger: logger}
}

// Register records an action that has just been done.
func (m *Manager) Register(a Undoable) {
	if m.pointer < len(m.stack) {
		m.logger.Debug("discarding redo history", "entries", len(m.stack)-m.pointer)
		clear(m.stack[m.pointer:])
		m.stack = m.stack[:m.pointer]
	}
	if len(m.stack) == m.max {
		m.logger.Debug("history full, evicting oldest", "action", m.stack[0].Name())
		m.stack[0] = nil
		m.stack = m.stack[1:]
		m.pointer--
	}
	m.stack = append(m.stack, a)
	m.pointer++
}

// Undo undoes the action before the pointer. It returns ErrEmpty, and changes
// nothing, if there is none.
func (m *Manager) Undo() error {
	if m.pointer == 0 {
		return ErrEmpty
	}
	a := m.stack[m.pointer-1]
	if err := a.Undo(); err != nil {
		return fmt.Errorf("undo %s: %w", a.Name(), err)
	}
	m.pointer--
	m.reset()
	return nil
}

// Redo redoes the action at the pointer. It returns ErrEmpty, and changes
// nothing, if there is none.
func (m *Manager) Redo() error {
	if m.pointer == len(m.stack) {
		return ErrEmpty
	}
	a := m.stack[m.pointer]
	if err := a.Redo(); err != nil {
		return fmt.Errorf("redo %s: %w", a.Name(), err)
	}
	m.pointer++
	m.reset()
	return nil
}

func (m *Manager) reset() {
	if m.OnReset != nil {
		m.OnReset()
	}
}

func (m *Manager) CanUndo() bool { return m.pointer > 0 }
func (m *Manager) CanRedo() bool { return m.pointer < len(m.stack) }
func (m *Manager) Len() int      { return len(m.stack) }
func (m *Manager) Pointer() int  { return m.pointer }
func (m *Manager) Capacity() int { return m.max }

// Entries returns the names of the actions, oldest first.
func (m *Manager) Entries() []string {
	ret := make([]string, len(m.stack))
	for i, a := range m.stack {
		ret[i] = a.Name()
	}
	return ret
}

// Clear forgets all actions.
func (m *Manager) Clear() {
	clear(m.stack)
	m.stack = m.stack[:0]
	m.pointer = 0
}

// SetCapacity changes the maximum length of the history. When the history is
// longer than the new capacity, redoable entries are dropped first, newest
// first, and then done entries, oldest first.
func (m *Manager) SetCapacity(n int) {
	m.max = max(n, 1)
	for len(m.stack) > m.max {
		if m.pointer < len(m.stack) {
			m.stack[len(m.stack)-1] = nil
			m.stack = m.stack[:len(m.stack)-1]
			continue
		}
		m.stack[0] = nil
		m.stack = m.stack[1:]
		m.pointer--
	}
}
