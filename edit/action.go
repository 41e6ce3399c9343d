// Package edit contains the edit actions of the timeline. An action is built
// from user input by one of the builder functions of this package; a builder
// that gets illegal input returns false instead of an action, and the caller
// must then do nothing at all. A built action is performed exactly once with
// Do and can afterwards be undone and redone any number of times.
package edit

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/flowblade/flowcut"
)

type (
	// Action is a reversible edit.
	Action interface {
		Name() string
		Do() error
		Undo() error
		Redo() error
	}

	phase int

	// base performs a recorded patch on a sequence. Undo applies the inverse
	// patch and redo the same patch again, so nothing is recomputed.
	base struct {
		name  string
		seq   *flowcut.Sequence
		patch flowcut.Patch
		phase phase
	}

	// Group performs several actions as one. If one of them fails, the ones
	// already done are undone. Errors of that compensation are joined to the
	// returned error, so a *flowcut.DivergenceError in either is found with
	// errors.As.
	Group struct {
		name     string
		builders []Builder
		actions  []Action
		phase    phase
	}

	Builder func() (Action, bool)
)

const (
	pending phase = iota
	done
	undone
)

var (
	ErrAlreadyDone = errors.New("action is already done")
	ErrNotDone     = errors.New("action is not done")
	ErrEmptyGroup  = errors.New("no action in the group could be built")
)

var titler = cases.Title(language.English)

// DisplayName returns the name of an action the way it is shown in menus,
// e.g. "Ripple Delete".
func DisplayName(a Action) string {
	return titler.String(strings.ReplaceAll(a.Name(), "-", " "))
}

func newBase(name string, seq *flowcut.Sequence, tx *flowcut.Tx) (base, bool) {
	if tx.Empty() {
		return base{}, false
	}
	return base{name: name, seq: seq, patch: tx.Patch()}, true
}

func (a *base) Name() string { return a.name }

// Patch returns the ops the action applies.
func (a *base) Patch() flowcut.Patch { return a.patch }

func (a *base) Do() error {
	if a.phase != pending {
		return ErrAlreadyDone
	}
	if err := a.seq.Apply(a.patch); err != nil {
		return fmt.Errorf("%s: %w", a.name, err)
	}
	a.phase = done
	return nil
}

func (a *base) Undo() error {
	if a.phase != done {
		return ErrNotDone
	}
	if err := a.seq.Apply(a.patch.Inverse()); err != nil {
		return fmt.Errorf("undo %s: %w", a.name, err)
	}
	a.phase = undone
	return nil
}

func (a *base) Redo() error {
	switch a.phase {
	case pending:
		return ErrNotDone
	case done:
		return ErrAlreadyDone
	}
	if err := a.seq.Apply(a.patch); err != nil {
		return fmt.Errorf("redo %s: %w", a.name, err)
	}
	a.phase = done
	return nil
}

// NewGroup returns a composite built lazily: each builder runs when the
// group is done, after the actions before it have been performed, so it sees
// their effect. Builders returning false are skipped.
func NewGroup(name string, builders ...Builder) *Group {
	return &Group{name: name, builders: builders}
}

func (g *Group) Name() string { return g.name }

func (g *Group) Actions() []Action { return g.actions }

// Do builds and performs the actions. A group where every builder returned
// false does nothing and returns ErrEmptyGroup.
func (g *Group) Do() error {
	if g.phase != pending {
		return ErrAlreadyDone
	}
	for _, b := range g.builders {
		a, ok := b()
		if !ok {
			continue
		}
		if err := a.Do(); err != nil {
			err = errors.Join(fmt.Errorf("%s: %w", g.name, err), g.rewind(len(g.actions)))
			g.actions = nil
			return err
		}
		g.actions = append(g.actions, a)
	}
	if len(g.actions) == 0 {
		return ErrEmptyGroup
	}
	g.phase = done
	return nil
}

func (g *Group) Undo() error {
	if g.phase != done {
		return ErrNotDone
	}
	for i := len(g.actions) - 1; i >= 0; i-- {
		if err := g.actions[i].Undo(); err != nil {
			// put back the ones already undone
			errs := []error{fmt.Errorf("undo %s: %w", g.name, err)}
			for _, a := range g.actions[i+1:] {
				if rerr := a.Redo(); rerr != nil {
					errs = append(errs, fmt.Errorf("redo %s after failed undo: %w", a.Name(), rerr))
				}
			}
			return errors.Join(errs...)
		}
	}
	g.phase = undone
	return nil
}

func (g *Group) Redo() error {
	switch g.phase {
	case pending:
		return ErrNotDone
	case done:
		return ErrAlreadyDone
	}
	if err := g.forward(Action.Redo); err != nil {
		return err
	}
	g.phase = done
	return nil
}

func (g *Group) forward(f func(Action) error) error {
	for i, a := range g.actions {
		if err := f(a); err != nil {
			return errors.Join(fmt.Errorf("%s: %w", g.name, err), g.rewind(i))
		}
	}
	return nil
}

// rewind undoes the first n actions in reverse order. It goes on past
// failures and returns all of them.
func (g *Group) rewind(n int) error {
	var errs []error
	for j := n - 1; j >= 0; j-- {
		if err := g.actions[j].Undo(); err != nil {
			errs = append(errs, fmt.Errorf("undo %s after failure: %w", g.actions[j].Name(), err))
		}
	}
	return errors.Join(errs...)
}
