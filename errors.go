package flowcut

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchTrack   = errors.New("no such track")
	ErrNoSuchClip    = errors.New("no such clip")
	ErrPatchMismatch = errors.New("patch does not match the sequence")
)

type (
	// TrackLockedError is returned when an edit touches a track whose mode
	// does not allow it.
	TrackLockedError struct {
		Track    int
		Mode     TrackMode
		Reserved bool
	}

	// DivergenceError means the pipeline playlist of a track no longer
	// mirrors the track. It is fatal for the sequence.
	DivergenceError struct {
		Track  int
		Reason string
		Err    error
	}
)

func (e *TrackLockedError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("track %d is reserved", e.Track)
	}
	if e.Mode == SyncLocked {
		return fmt.Sprintf("track %d is sync-locked and the edit would move later clips", e.Track)
	}
	return fmt.Sprintf("track %d is %v", e.Track, e.Mode)
}

func (e *DivergenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline diverged on track %d: %s: %v", e.Track, e.Reason, e.Err)
	}
	return fmt.Sprintf("pipeline diverged on track %d: %s", e.Track, e.Reason)
}

func (e *DivergenceError) Unwrap() error { return e.Err }
