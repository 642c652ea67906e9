package animator

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constTrack(t *testing.T, name string, pos [3]float32, rot [4]float32, scale [3]float32) *KeyframeTrack {
	t.Helper()
	track, err := NewKeyframeTrack(name,
		[]VectorKey{{Time: 0, Value: pos}},
		[]QuatKey{{Time: 0, Value: rot}},
		[]VectorKey{{Time: 0, Value: scale}},
	)
	require.NoError(t, err)
	return track
}

func TestNewKeyframeTrackErrors(t *testing.T) {
	one := []VectorKey{{Time: 0, Value: [3]float32{}}}
	rot := []QuatKey{{Time: 0, Value: common.QuatIdentity()}}

	tests := []struct {
		name      string
		positions []VectorKey
		rotations []QuatKey
		scales    []VectorKey
		want      error
	}{
		{"empty positions", nil, rot, one, ErrEmptyChannel},
		{"empty rotations", one, nil, one, ErrEmptyChannel},
		{"empty scales", one, rot, nil, ErrEmptyChannel},
		{
			"unsorted positions",
			[]VectorKey{{Time: 1}, {Time: 0}},
			rot, one, ErrUnsortedKeys,
		},
		{
			"unsorted rotations",
			one,
			[]QuatKey{{Time: 2, Value: common.QuatIdentity()}, {Time: 1, Value: common.QuatIdentity()}},
			one, ErrUnsortedKeys,
		},
		{
			"nan time",
			[]VectorKey{{Time: math32.NaN()}},
			rot, one, ErrUnsortedKeys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKeyframeTrack("bone", tt.positions, tt.rotations, tt.scales)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSingleKeyInvariance(t *testing.T) {
	pos := [3]float32{1, 2, 3}
	scale := [3]float32{2, 2, 2}
	track := constTrack(t, "bone", pos, [4]float32{0, 0, 0, 2}, scale)

	for _, tm := range []float32{-10, 0, 0.5, 1000} {
		p, r, s := track.Sample(tm)
		assert.Equal(t, pos, p)
		assert.Equal(t, scale, s)
		// a single rotation key is normalized
		assert.Equal(t, common.QuatIdentity(), r)
	}
}

func TestSampleIntervalBoundaries(t *testing.T) {
	track, err := NewKeyframeTrack("bone",
		[]VectorKey{
			{Time: 0, Value: [3]float32{0, 0, 0}},
			{Time: 1, Value: [3]float32{10, 0, 0}},
			{Time: 3, Value: [3]float32{10, 20, 0}},
		},
		[]QuatKey{{Time: 0, Value: common.QuatIdentity()}},
		[]VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
	)
	require.NoError(t, err)

	tests := []struct {
		time float32
		want [3]float32
	}{
		{0, [3]float32{0, 0, 0}},
		{0.5, [3]float32{5, 0, 0}},
		{1, [3]float32{10, 0, 0}},
		{2, [3]float32{10, 10, 0}},
		{3, [3]float32{10, 20, 0}},
		// out of range clamps to the end keys
		{-1, [3]float32{0, 0, 0}},
		{9, [3]float32{10, 20, 0}},
	}
	for _, tt := range tests {
		got := track.SamplePosition(tt.time)
		for i := range got {
			assert.InDelta(t, tt.want[i], got[i], 1e-5, "time %v axis %d", tt.time, i)
		}
	}
}

func TestZeroLengthIntervalUsesFirstKey(t *testing.T) {
	track, err := NewKeyframeTrack("bone",
		[]VectorKey{
			{Time: 1, Value: [3]float32{1, 0, 0}},
			{Time: 1, Value: [3]float32{2, 0, 0}},
		},
		[]QuatKey{{Time: 0, Value: common.QuatIdentity()}},
		[]VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
	)
	require.NoError(t, err)

	assert.Equal(t, [3]float32{1, 0, 0}, track.SamplePosition(1))
}

func TestSampledRotationIsUnitLength(t *testing.T) {
	track, err := NewKeyframeTrack("bone",
		[]VectorKey{{Time: 0}},
		[]QuatKey{
			{Time: 0, Value: [4]float32{0, 0, 0, 3}},
			{Time: 2, Value: [4]float32{0, 0, 5, 5}},
			{Time: 4, Value: [4]float32{1, 1, 0, 0}},
		},
		[]VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
	)
	require.NoError(t, err)

	for tm := float32(-1); tm <= 5; tm += 0.25 {
		assert.InDelta(t, 1, common.QuatLength(track.SampleRotation(tm)), 1e-5, "time %v", tm)
	}
}

func TestTransformComposesTRS(t *testing.T) {
	q := common.QuatFromAxisAngle([3]float32{0, 0, 1}, math32.Pi/2)
	track := constTrack(t, "bone", [3]float32{1, 0, 0}, q, [3]float32{2, 2, 2})

	m := track.Transform(0)
	// scale, then rotate +X onto +Y, then translate
	got := common.TransformPoint(m, [3]float32{1, 0, 0})
	assert.InDelta(t, 1, got[0], 1e-5)
	assert.InDelta(t, 2, got[1], 1e-5)
	assert.InDelta(t, 0, got[2], 1e-5)
}

func TestUpdateCachesLocalTransform(t *testing.T) {
	track := constTrack(t, "bone", [3]float32{0, 4, 0}, common.QuatIdentity(), [3]float32{1, 1, 1})

	assert.Equal(t, common.Identity4(), track.LocalTransform())
	track.Update(0)
	assert.Equal(t, common.Translate4([3]float32{0, 4, 0}), track.LocalTransform())
	assert.Equal(t, track.Transform(0), track.LocalTransform())
}
