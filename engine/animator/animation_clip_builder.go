package animator

import (
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
)

// clipSettings holds construction settings that are not part of the clip itself.
type clipSettings struct {
	defaultTicksPerSecond float32
}

// AnimationClipBuilderOption is a functional option for NewAnimationClip and ExtractClip.
type AnimationClipBuilderOption func(*clipSettings)

// WithDefaultTicksPerSecond sets the tick rate that replaces a zero ticksPerSecond.
// Non-positive values are ignored.
//
// Parameters:
//   - tps: the fallback tick rate
//
// Returns:
//   - AnimationClipBuilderOption: a function that applies the fallback tick rate
func WithDefaultTicksPerSecond(tps float32) AnimationClipBuilderOption {
	return func(s *clipSettings) {
		if tps > 0 {
			s.defaultTicksPerSecond = tps
		}
	}
}

// WithClipConfig applies the clip settings of cfg.
func WithClipConfig(cfg config.Config) AnimationClipBuilderOption {
	return WithDefaultTicksPerSecond(cfg.DefaultTicksPerSecond)
}

func newClipSettings(options []AnimationClipBuilderOption) clipSettings {
	s := clipSettings{defaultTicksPerSecond: config.DefaultTicksPerSecond}
	for _, opt := range options {
		opt(&s)
	}
	return s
}
