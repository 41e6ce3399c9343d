// Package flowcut contains the timeline model of the editor: a Sequence of
// Tracks, each an ordered and gapless list of Clips, mirrored entry by entry
// onto a media pipeline graph.
//
// Clips live in an arena owned by the Sequence and are referred to by stable
// ClipIDs; tracks only hold IDs. All mutation goes through Patches of
// primitive Ops. A Patch is first staged on a Tx, then mirrored onto the
// pipeline and only after both succeed committed into the model, so the model
// and the pipeline never diverge after a completed Apply. The inverse of a
// Patch restores the exact previous state, clip identities included.
package flowcut

import "fmt"

type (
	// ClipID identifies a clip for its whole lifetime, across undo and redo.
	// The zero value is never assigned.
	ClipID uint64

	// MediaType tells what kind of producer a clip cuts from.
	MediaType int

	// TrackMode governs which edits are legal on a track. Free tracks accept
	// everything; SyncLocked tracks only accept edits that keep the positions
	// of the clips after the edit; Locked tracks accept no edits at all.
	TrackMode int

	// TrackKind is the media kind a track carries.
	TrackKind int

	// TrackHeight is the display height class of a track.
	TrackHeight int

	// SyncState is the state of a sync child relative to its parent.
	SyncState int

	// Mute holds per clip mute flags.
	Mute int
)

const NoClip ClipID = 0

const (
	Blank MediaType = iota
	Video
	Audio
	Image
	Pattern
)

const (
	Free TrackMode = iota
	SyncLocked
	Locked
)

const (
	VideoTrack TrackKind = iota
	AudioTrack
)

const (
	HeightNormal TrackHeight = iota
	HeightSmall
	HeightLarge
)

const (
	SyncNone SyncState = iota
	SyncCorrect
	SyncOff
	SyncParentGone
)

const (
	MuteVideo Mute = 1 << iota
	MuteAudio
)

var mediaTypeNames = [...]string{"blank", "video", "audio", "image", "pattern"}

func (t MediaType) String() string {
	if t < 0 || int(t) >= len(mediaTypeNames) {
		return fmt.Sprintf("MediaType(%d)", int(t))
	}
	return mediaTypeNames[t]
}

// ParseMediaType is the inverse of MediaType.String.
func ParseMediaType(s string) (MediaType, bool) {
	for i, n := range mediaTypeNames {
		if n == s {
			return MediaType(i), true
		}
	}
	return Blank, false
}

func (m TrackMode) String() string {
	switch m {
	case Free:
		return "free"
	case SyncLocked:
		return "sync-locked"
	case Locked:
		return "locked"
	}
	return fmt.Sprintf("TrackMode(%d)", int(m))
}

func ParseTrackMode(s string) (TrackMode, bool) {
	for _, m := range []TrackMode{Free, SyncLocked, Locked} {
		if m.String() == s {
			return m, true
		}
	}
	return Free, false
}

func (k TrackKind) String() string {
	if k == AudioTrack {
		return "audio"
	}
	return "video"
}

func (s SyncState) String() string {
	switch s {
	case SyncNone:
		return "none"
	case SyncCorrect:
		return "correct"
	case SyncOff:
		return "off"
	case SyncParentGone:
		return "parent-gone"
	}
	return fmt.Sprintf("SyncState(%d)", int(s))
}
