package animator

import (
	"errors"
)

// Malformed-asset errors reported when a track or clip is constructed.
var (
	ErrEmptyChannel          = errors.New("keyframe channel has no keys")
	ErrUnsortedKeys          = errors.New("keyframes are not sorted by time")
	ErrZeroDuration          = errors.New("clip duration must be positive")
	ErrInvalidTicksPerSecond = errors.New("ticks per second must be finite and non-negative")
	ErrMissingRoot           = errors.New("clip has no root hierarchy node")
	ErrNilRegistry           = errors.New("clip has no bone registry")
	ErrDuplicateTrack        = errors.New("more than one track animates the same bone")
	ErrAnimationNotFound     = errors.New("animation not found")
	ErrNilModel              = errors.New("model is nil")
)

// Playback errors.
var (
	ErrNoClip          = errors.New("animator has no clip")
	ErrNilAnimator     = errors.New("animator is nil")
	ErrDuplicateID     = errors.New("animator id already in pool")
	ErrAnimatorUnknown = errors.New("animator id not in pool")
)
