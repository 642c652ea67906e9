package animator

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithClip is an option builder that binds the initial clip, starting at time 0.
//
// Parameters:
//   - clip: the clip to play
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the clip option to an animator
func WithClip(clip *AnimationClip) AnimatorBuilderOption {
	return func(a *animator) {
		a.clip = clip
	}
}

// WithMaxBones is an option builder that sets the length of the final bone matrix array.
// It must match the bone array size of the skinning shader.
//
// Parameters:
//   - maxBones: the matrix array length, non-positive values select the default
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the max bones option to an animator
func WithMaxBones(maxBones int) AnimatorBuilderOption {
	return func(a *animator) {
		a.maxBones = maxBones
	}
}

// WithLogger is an option builder that sets the logger per-frame warnings are written to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the logger option to an animator
func WithLogger(logger *log.Logger) AnimatorBuilderOption {
	return func(a *animator) {
		a.logger = logger
	}
}

// WithID is an option builder that fixes the animator ID instead of generating one.
//
// Parameters:
//   - id: the ID to use
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the ID option to an animator
func WithID(id uuid.UUID) AnimatorBuilderOption {
	return func(a *animator) {
		a.id = id
	}
}
