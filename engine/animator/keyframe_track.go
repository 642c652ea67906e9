package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
)

// VectorKey is a timestamped position or scale sample. Time is in ticks.
type VectorKey = model.VectorKeyframe

// QuatKey is a timestamped rotation sample (x, y, z, w). Time is in ticks.
type QuatKey = model.QuaternionKeyframe

// KeyframeTrack holds the keyframes that animate one named bone.
// Each channel holds at least one key, sorted ascending by time.
//
// Sampling methods are pure and safe to call from several animators at once.
// Update and LocalTransform share a cached matrix and are meant for a single owner.
type KeyframeTrack struct {
	// BoneName is the hierarchy node this track drives.
	BoneName string

	PositionKeys []VectorKey
	RotationKeys []QuatKey
	ScaleKeys    []VectorKey

	localTransform [16]float32
}

// NewKeyframeTrack validates and builds a track.
//
// Parameters:
//   - boneName: the node the track animates
//   - positions: position keys, sorted by time
//   - rotations: rotation keys, sorted by time
//   - scales: scale keys, sorted by time
//
// Returns:
//   - *KeyframeTrack: the track
//   - error: ErrEmptyChannel or ErrUnsortedKeys if a channel is malformed
func NewKeyframeTrack(boneName string, positions []VectorKey, rotations []QuatKey, scales []VectorKey) (*KeyframeTrack, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("track %q position channel: %w", boneName, ErrEmptyChannel)
	}
	if len(rotations) == 0 {
		return nil, fmt.Errorf("track %q rotation channel: %w", boneName, ErrEmptyChannel)
	}
	if len(scales) == 0 {
		return nil, fmt.Errorf("track %q scale channel: %w", boneName, ErrEmptyChannel)
	}

	if err := checkSorted(len(positions), func(i int) float32 { return positions[i].Time }); err != nil {
		return nil, fmt.Errorf("track %q position channel: %w", boneName, err)
	}
	if err := checkSorted(len(rotations), func(i int) float32 { return rotations[i].Time }); err != nil {
		return nil, fmt.Errorf("track %q rotation channel: %w", boneName, err)
	}
	if err := checkSorted(len(scales), func(i int) float32 { return scales[i].Time }); err != nil {
		return nil, fmt.Errorf("track %q scale channel: %w", boneName, err)
	}

	return &KeyframeTrack{
		BoneName:       boneName,
		PositionKeys:   positions,
		RotationKeys:   rotations,
		ScaleKeys:      scales,
		localTransform: common.Identity4(),
	}, nil
}

// Sample interpolates all three channels at time.
// Time is expected to lie within the keyed range; values outside it clamp to the nearest key.
//
// Parameters:
//   - time: the playback time in ticks
//
// Returns:
//   - [3]float32: the interpolated position
//   - [4]float32: the interpolated unit rotation
//   - [3]float32: the interpolated scale
func (k *KeyframeTrack) Sample(time float32) ([3]float32, [4]float32, [3]float32) {
	return k.SamplePosition(time), k.SampleRotation(time), k.SampleScale(time)
}

// SamplePosition interpolates the position channel at time.
func (k *KeyframeTrack) SamplePosition(time float32) [3]float32 {
	return sampleVector(k.PositionKeys, time)
}

// SampleScale interpolates the scale channel at time.
func (k *KeyframeTrack) SampleScale(time float32) [3]float32 {
	return sampleVector(k.ScaleKeys, time)
}

// SampleRotation slerps the rotation channel at time and renormalizes the result.
func (k *KeyframeTrack) SampleRotation(time float32) [4]float32 {
	keys := k.RotationKeys
	if len(keys) == 1 {
		return common.QuatNormalize(keys[0].Value)
	}
	i := keyIndex(len(keys), func(j int) float32 { return keys[j].Time }, time)
	t := progress(keys[i].Time, keys[i+1].Time, time)
	return common.QuatNormalize(common.QuatSlerp(common.QuatNormalize(keys[i].Value), common.QuatNormalize(keys[i+1].Value), t))
}

// Transform returns translation * rotation * scale sampled at time.
//
// Parameters:
//   - time: the playback time in ticks
//
// Returns:
//   - [16]float32: the local transform
func (k *KeyframeTrack) Transform(time float32) [16]float32 {
	p, r, s := k.Sample(time)
	return common.ComposeTRS(p, r, s)
}

// Update samples the track at time and caches the result for LocalTransform.
//
// Parameters:
//   - time: the playback time in ticks
func (k *KeyframeTrack) Update(time float32) {
	k.localTransform = k.Transform(time)
}

// LocalTransform returns the transform computed by the most recent Update.
// Before the first Update it is the identity.
func (k *KeyframeTrack) LocalTransform() [16]float32 {
	return k.localTransform
}

// --- Helper Functions ---

func sampleVector(keys []VectorKey, time float32) [3]float32 {
	if len(keys) == 1 {
		return keys[0].Value
	}
	i := keyIndex(len(keys), func(j int) float32 { return keys[j].Time }, time)
	t := progress(keys[i].Time, keys[i+1].Time, time)
	return common.Lerp3(keys[i].Value, keys[i+1].Value, t)
}

// keyIndex finds i with keys[i].Time <= time < keys[i+1].Time by scanning from the start.
// The result never exceeds n-2, so times past the last key use the final interval.
func keyIndex(n int, timeAt func(int) float32, time float32) int {
	for i := 0; i < n-2; i++ {
		if time < timeAt(i+1) {
			return i
		}
	}
	return n - 2
}

// progress maps time into [0, 1] over the interval [t0, t1].
func progress(t0, t1, time float32) float32 {
	span := t1 - t0
	if span <= 0 {
		return 0
	}
	return min(max((time-t0)/span, 0), 1)
}

func checkSorted(n int, timeAt func(int) float32) error {
	for i := 0; i < n; i++ {
		ti := timeAt(i)
		if !common.IsFinite(ti) {
			return fmt.Errorf("key %d has non-finite time: %w", i, ErrUnsortedKeys)
		}
		if i > 0 && ti < timeAt(i-1) {
			return fmt.Errorf("key %d at %v precedes key %d at %v: %w", i, ti, i-1, timeAt(i-1), ErrUnsortedKeys)
		}
	}
	return nil
}
