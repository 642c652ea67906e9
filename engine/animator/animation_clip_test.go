package animator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnimationClipErrors(t *testing.T) {
	root := model.NewHierarchyNode("root", common.Identity4())
	reg := model.NewBoneRegistry()
	track := constTrack(t, "root", [3]float32{}, common.QuatIdentity(), [3]float32{1, 1, 1})
	dup := constTrack(t, "root", [3]float32{1, 0, 0}, common.QuatIdentity(), [3]float32{1, 1, 1})

	tests := []struct {
		name     string
		duration float32
		tps      float32
		root     *model.HierarchyNode
		tracks   []*KeyframeTrack
		registry model.BoneRegistry
		want     error
	}{
		{"zero duration", 0, 1, root, nil, reg, ErrZeroDuration},
		{"negative duration", -2, 1, root, nil, reg, ErrZeroDuration},
		{"infinite duration", math32.Inf(1), 1, root, nil, reg, ErrZeroDuration},
		{"negative tps", 1, -1, root, nil, reg, ErrInvalidTicksPerSecond},
		{"nan tps", 1, math32.NaN(), root, nil, reg, ErrInvalidTicksPerSecond},
		{"missing root", 1, 1, nil, nil, reg, ErrMissingRoot},
		{"nil registry", 1, 1, root, nil, nil, ErrNilRegistry},
		{"duplicate track", 1, 1, root, []*KeyframeTrack{track, dup}, reg, ErrDuplicateTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnimationClip("clip", tt.duration, tt.tps, tt.root, tt.tracks, tt.registry)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewAnimationClipDefaultsTicksPerSecond(t *testing.T) {
	clip, err := NewAnimationClip("clip", 10, 0, model.NewHierarchyNode("root", common.Identity4()), nil, model.NewBoneRegistry())
	require.NoError(t, err)
	assert.Equal(t, float32(25), clip.TicksPerSecond)
}

func TestConfiguredDefaultTicksPerSecond(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader(`default_ticks_per_second = 50.0`))
	require.NoError(t, err)

	root := model.NewHierarchyNode("root", common.Identity4())
	clip, err := NewAnimationClip("clip", 10, 0, root, nil, model.NewBoneRegistry(), WithClipConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, float32(50), clip.TicksPerSecond)

	declared, err := NewAnimationClip("clip", 10, 5, root, nil, model.NewBoneRegistry(), WithClipConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, float32(5), declared.TicksPerSecond)

	ignored, err := NewAnimationClip("clip", 10, 0, root, nil, model.NewBoneRegistry(), WithDefaultTicksPerSecond(-1))
	require.NoError(t, err)
	assert.Equal(t, float32(25), ignored.TicksPerSecond)
}

func TestClipTrackAccessors(t *testing.T) {
	root := model.NewHierarchyNode("root", common.Identity4())
	b := constTrack(t, "b", [3]float32{}, common.QuatIdentity(), [3]float32{1, 1, 1})
	a := constTrack(t, "a", [3]float32{}, common.QuatIdentity(), [3]float32{1, 1, 1})

	clip, err := NewAnimationClip("clip", 1, 1, root, []*KeyframeTrack{b, nil, a}, model.NewBoneRegistry())
	require.NoError(t, err)

	assert.Equal(t, 2, clip.TrackCount())
	assert.Same(t, a, clip.Track("a"))
	assert.Nil(t, clip.Track("c"))
	assert.Equal(t, []*KeyframeTrack{a, b}, clip.Tracks())
}

func riggedModel() model.Model {
	reg := model.NewBoneRegistry()
	reg.RegisterOrGet("hips", common.Identity4())

	keys := func(node string) model.ImportedChannel {
		return model.ImportedChannel{
			NodeName:     node,
			PositionKeys: []model.VectorKeyframe{{Time: 0}},
			RotationKeys: []model.QuaternionKeyframe{{Time: 0, Value: common.QuatIdentity()}},
			ScaleKeys:    []model.VectorKeyframe{{Time: 0, Value: [3]float32{1, 1, 1}}},
		}
	}

	return model.NewModel(
		model.WithName("rig"),
		model.WithRegistry(reg),
		model.WithHierarchy(model.NewHierarchyNode("hips", common.Identity4(),
			model.NewHierarchyNode("tail", common.Identity4()),
		)),
		model.WithAnimations([]model.ImportedAnimation{
			{Name: "wag", Duration: 12, TicksPerSecond: 24, Channels: []model.ImportedChannel{keys("hips"), keys("tail")}},
			{Name: "broken", Duration: 1, TicksPerSecond: 1, Channels: []model.ImportedChannel{{NodeName: "hips"}}},
		}),
	)
}

func TestExtractClip(t *testing.T) {
	m := riggedModel()

	clip, err := ExtractClip(m, "wag")
	require.NoError(t, err)

	assert.Equal(t, "wag", clip.Name)
	assert.Equal(t, float32(12), clip.Duration)
	assert.Equal(t, float32(24), clip.TicksPerSecond)
	assert.Equal(t, 2, clip.TrackCount())
	assert.Same(t, m.Hierarchy(), clip.Root)

	// the animated but unskinned node gets the next bone slot
	tail, ok := clip.Registry().Lookup("tail")
	require.True(t, ok)
	assert.Equal(t, 1, tail.Index)
	assert.Equal(t, common.Identity4(), tail.Offset)
	_, ok = m.Registry().Lookup("tail")
	assert.True(t, ok)

	// later model registrations do not leak into the clip snapshot
	m.Registry().RegisterOrGet("ear", common.Identity4())
	_, ok = clip.Registry().Lookup("ear")
	assert.False(t, ok)
}

func TestExtractClipErrors(t *testing.T) {
	m := riggedModel()

	_, err := ExtractClip(m, "run")
	assert.True(t, errors.Is(err, ErrAnimationNotFound))

	_, err = ExtractClip(m, "broken")
	assert.True(t, errors.Is(err, ErrEmptyChannel))

	_, err = ExtractClip(nil, "wag")
	assert.True(t, errors.Is(err, ErrNilModel))

	_, err = ExtractClip(model.NewModel(
		model.WithAnimations([]model.ImportedAnimation{{Name: "idle", Duration: 1}}),
	), "idle")
	assert.True(t, errors.Is(err, ErrMissingRoot))
}
