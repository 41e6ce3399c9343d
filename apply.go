package flowcut

import (
	"errors"
	"fmt"
)

// Apply performs a patch on the sequence and its pipeline as one unit. The
// patch is replayed on fresh staging, the edited tracks are checked against
// their modes, the pipeline calls are made and, only when all of them
// succeed, the staging is committed. On any error the sequence is unchanged
// and the pipeline has been rolled back. A *DivergenceError means the
// rollback failed as well and the sequence must not be edited any more.
func (s *Sequence) Apply(p Patch) error {
	if len(p) == 0 {
		return nil
	}
	tx := s.Begin()
	for _, op := range p {
		if err := tx.do(op); err != nil {
			return fmt.Errorf("could not stage %v: %w", op, err)
		}
	}
	for i := range s.tracks {
		after, ok := tx.tracks[i]
		if !ok {
			continue
		}
		if err := checkTrackEdit(s.tracks[i], after, s.lengthOf, tx.lengthOf); err != nil {
			s.logger.Debug("edit rejected", "track", s.tracks[i].Name, "err", err)
			return err
		}
	}
	if err := s.mirror(tx.steps); err != nil {
		return err
	}
	s.commit(tx)
	if s.strict {
		if err := s.Verify(); err != nil {
			s.logger.Error("pipeline diverged after edit", "err", err)
			return err
		}
	}
	s.logger.Debug("patch applied", "ops", len(p), "pipeline calls", len(tx.steps))
	return nil
}

func (s *Sequence) lengthOf(id ClipID) int { return s.arena[id].Length() }

func (tx *Tx) lengthOf(id ClipID) int { return tx.clipRef(id).Length() }

func (s *Sequence) mirror(steps []step) error {
	for n, st := range steps {
		err := s.exec(st)
		if err == nil {
			continue
		}
		for k := n - 1; k >= 0; k-- {
			if rerr := s.exec(steps[k].inverse()); rerr != nil {
				derr := &DivergenceError{Track: steps[k].track, Reason: fmt.Sprintf("rollback of %v failed after %v", steps[k], err), Err: rerr}
				s.logger.Error("pipeline rollback failed", "err", derr)
				return derr
			}
		}
		var derr *DivergenceError
		if errors.As(err, &derr) {
			s.logger.Error("pipeline does not mirror the sequence", "err", derr)
			return err
		}
		s.logger.Warn("pipeline rejected edit, rolled back", "call", st.String(), "err", err)
		return fmt.Errorf("pipeline rejected %v: %w", st, err)
	}
	return nil
}

func (s *Sequence) exec(st step) error {
	p := s.playlists[st.track]
	if st.insert {
		return p.Insert(st.index, st.entry)
	}
	e, err := p.Entry(st.index)
	if err != nil {
		return &DivergenceError{Track: st.track, Reason: fmt.Sprintf("no entry %d to remove", st.index), Err: err}
	}
	if e != st.entry {
		return &DivergenceError{Track: st.track, Reason: fmt.Sprintf("entry %d is %v, expected %v", st.index, e, st.entry)}
	}
	return p.Remove(st.index)
}

func (s *Sequence) commit(tx *Tx) {
	for i, t := range tx.tracks {
		*s.tracks[i] = *t
	}
	for id := range tx.dropped {
		delete(s.arena, id)
	}
	for id, c := range tx.clips {
		if old, ok := s.arena[id]; ok {
			*old = *c
		} else {
			s.arena[id] = c
		}
	}
	for id, t := range tx.where {
		if t < 0 {
			delete(s.where, id)
		} else {
			s.where[id] = t
		}
	}
	s.nextID = max(s.nextID, tx.nextID)
}
