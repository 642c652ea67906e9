package animator

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
)

// AnimationClip is one named animation bound to a skeleton.
// A clip is immutable once built and may be shared by any number of animators.
type AnimationClip struct {
	// Name identifies the clip within its model.
	Name string

	// Duration is the clip length in ticks.
	Duration float32

	// TicksPerSecond converts elapsed seconds into ticks.
	TicksPerSecond float32

	// Root is the hierarchy the clip is applied to.
	Root *model.HierarchyNode

	tracks   map[string]*KeyframeTrack
	registry model.BoneRegistry
}

// NewAnimationClip validates and builds a clip.
// A ticksPerSecond of zero is replaced by config.DefaultTicksPerSecond, or by the rate
// given with WithDefaultTicksPerSecond.
//
// Parameters:
//   - name: the clip name
//   - duration: the clip length in ticks, must be positive
//   - ticksPerSecond: the playback rate, zero selects the default
//   - root: the hierarchy root the clip animates
//   - tracks: one track per animated bone
//   - registry: the bone registry snapshot the clip resolves indices against
//   - options: optional clip settings
//
// Returns:
//   - *AnimationClip: the clip
//   - error: a wrapped sentinel describing the first defect found
func NewAnimationClip(name string, duration, ticksPerSecond float32, root *model.HierarchyNode, tracks []*KeyframeTrack, registry model.BoneRegistry, options ...AnimationClipBuilderOption) (*AnimationClip, error) {
	if !common.IsFinite(duration) || duration <= 0 {
		return nil, fmt.Errorf("clip %q duration %v: %w", name, duration, ErrZeroDuration)
	}
	if !common.IsFinite(ticksPerSecond) || ticksPerSecond < 0 {
		return nil, fmt.Errorf("clip %q ticks per second %v: %w", name, ticksPerSecond, ErrInvalidTicksPerSecond)
	}
	if ticksPerSecond == 0 {
		ticksPerSecond = newClipSettings(options).defaultTicksPerSecond
	}
	if root == nil {
		return nil, fmt.Errorf("clip %q: %w", name, ErrMissingRoot)
	}
	if registry == nil {
		return nil, fmt.Errorf("clip %q: %w", name, ErrNilRegistry)
	}

	byBone := make(map[string]*KeyframeTrack, len(tracks))
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, dup := byBone[t.BoneName]; dup {
			return nil, fmt.Errorf("clip %q bone %q: %w", name, t.BoneName, ErrDuplicateTrack)
		}
		byBone[t.BoneName] = t
	}

	return &AnimationClip{
		Name:           name,
		Duration:       duration,
		TicksPerSecond: ticksPerSecond,
		Root:           root,
		tracks:         byBone,
		registry:       registry,
	}, nil
}

// Track returns the track animating boneName, or nil if the bone is not animated.
func (c *AnimationClip) Track(boneName string) *KeyframeTrack {
	return c.tracks[boneName]
}

// Tracks returns every track ordered by bone name.
func (c *AnimationClip) Tracks() []*KeyframeTrack {
	names := make([]string, 0, len(c.tracks))
	for n := range c.tracks {
		names = append(names, n)
	}
	slices.Sort(names)

	out := make([]*KeyframeTrack, len(names))
	for i, n := range names {
		out[i] = c.tracks[n]
	}
	return out
}

// TrackCount returns the number of animated bones.
func (c *AnimationClip) TrackCount() int {
	return len(c.tracks)
}

// Registry returns the registry snapshot this clip was built against.
func (c *AnimationClip) Registry() model.BoneRegistry {
	return c.registry
}

// ExtractClip builds the named animation of m into a clip.
//
// Channels that drive nodes the model registry has not seen yet are registered with
// an identity offset, so every animated node owns a bone slot. The clip then keeps a
// snapshot of the registry; later registrations on the model do not reach it.
//
// Parameters:
//   - m: the model holding the imported animation
//   - name: the animation name
//   - options: optional clip settings
//
// Returns:
//   - *AnimationClip: the clip
//   - error: ErrAnimationNotFound, or a track or clip construction error
func ExtractClip(m model.Model, name string, options ...AnimationClipBuilderOption) (*AnimationClip, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	idx := m.GetAnimationIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("model %q animation %q: %w", m.Name(), name, ErrAnimationNotFound)
	}
	src := m.Animations()[idx]

	tracks := make([]*KeyframeTrack, 0, len(src.Channels))
	for _, ch := range src.Channels {
		t, err := NewKeyframeTrack(ch.NodeName, ch.PositionKeys, ch.RotationKeys, ch.ScaleKeys)
		if err != nil {
			return nil, fmt.Errorf("model %q animation %q: %w", m.Name(), name, err)
		}
		tracks = append(tracks, t)
	}

	registry := m.Registry()
	if registry == nil {
		return nil, fmt.Errorf("model %q animation %q: %w", m.Name(), name, ErrNilRegistry)
	}
	for _, t := range tracks {
		registry.RegisterOrGet(t.BoneName, common.Identity4())
	}

	clip, err := NewAnimationClip(src.Name, src.Duration, src.TicksPerSecond, m.Hierarchy(), tracks, registry.Snapshot(), options...)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name(), err)
	}
	return clip, nil
}
