package skinning

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/animator"
	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	offset uint64
	size   int
}

type fakeWriter struct {
	size     uint64
	writes   []write
	released bool
}

func (f *fakeWriter) WriteBuffer(offset uint64, data []byte) error {
	if f.released {
		return ErrReleased
	}
	if offset+uint64(len(data)) > f.size {
		return ErrWriteOutOfRange
	}
	f.writes = append(f.writes, write{offset: offset, size: len(data)})
	return nil
}

func (f *fakeWriter) Size() uint64 { return f.size }
func (f *fakeWriter) Release()     { f.released = true }

func spinningAnimator(t *testing.T, maxBones int) animator.Animator {
	t.Helper()
	root := model.NewHierarchyNode("root", common.Identity4())
	reg := model.NewBoneRegistry()
	reg.RegisterOrGet("root", common.Identity4())

	track, err := animator.NewKeyframeTrack("root",
		[]animator.VectorKey{{Time: 0}, {Time: 1, Value: [3]float32{1, 0, 0}}},
		[]animator.QuatKey{{Time: 0, Value: common.QuatIdentity()}},
		[]animator.VectorKey{{Time: 0, Value: [3]float32{1, 1, 1}}},
	)
	require.NoError(t, err)
	clip, err := animator.NewAnimationClip("slide", 2, 1, root, []*animator.KeyframeTrack{track}, reg)
	require.NoError(t, err)

	return animator.NewAnimator(
		animator.WithClip(clip),
		animator.WithMaxBones(maxBones),
		animator.WithLogger(core.DiscardLogger()),
	)
}

func TestUploadSkipsUnchangedGeneration(t *testing.T) {
	w := &fakeWriter{size: uint64(SlotStride(4) * 2)}
	u, err := NewUploader(w, 4, WithLogger(core.DiscardLogger()))
	require.NoError(t, err)

	a := spinningAnimator(t, 4)

	// the bind pose is written once even before the first update
	wrote, err := u.Upload(a)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = u.Upload(a)
	require.NoError(t, err)
	assert.False(t, wrote)

	a.Update(0.5)
	wrote, err = u.Upload(a)
	require.NoError(t, err)
	assert.True(t, wrote)

	require.Len(t, w.writes, 2)
	assert.Equal(t, write{offset: 0, size: 256}, w.writes[1])
}

func TestUploadAssignsSlots(t *testing.T) {
	w := &fakeWriter{size: uint64(SlotStride(4) * 2)}
	u, err := NewUploader(w, 4, WithLogger(core.DiscardLogger()))
	require.NoError(t, err)

	a, b, c := spinningAnimator(t, 4), spinningAnimator(t, 4), spinningAnimator(t, 4)

	_, err = u.Upload(a)
	require.NoError(t, err)
	_, err = u.Upload(b)
	require.NoError(t, err)

	off, ok := u.Offset(b.ID())
	require.True(t, ok)
	assert.Equal(t, uint64(256), off)

	_, err = u.Upload(c)
	assert.True(t, errors.Is(err, ErrNoFreeSlot))

	// a freed slot is reused
	u.Forget(a.ID())
	_, ok = u.Offset(a.ID())
	assert.False(t, ok)

	_, err = u.Upload(c)
	require.NoError(t, err)
	off, _ = u.Offset(c.ID())
	assert.Equal(t, uint64(0), off)
}

func TestUploadRejectsMismatchedBoneCount(t *testing.T) {
	w := &fakeWriter{size: uint64(SlotStride(4))}
	u, err := NewUploader(w, 4, WithLogger(core.DiscardLogger()))
	require.NoError(t, err)

	_, err = u.Upload(spinningAnimator(t, 8))
	assert.True(t, errors.Is(err, ErrSizeMismatch))
	assert.Empty(t, w.writes)
}

func TestSlotOffsetsAreAligned(t *testing.T) {
	assert.Equal(t, 64, SlotSize(1))
	assert.Equal(t, 256, SlotStride(1))
	assert.Equal(t, 256, SlotStride(4))
	assert.Equal(t, 512, SlotStride(5))

	w := &fakeWriter{size: uint64(SlotStride(3) * 2)}
	u, err := NewUploader(w, 3, WithLogger(core.DiscardLogger()))
	require.NoError(t, err)

	a, b := spinningAnimator(t, 3), spinningAnimator(t, 3)
	_, err = u.Upload(a)
	require.NoError(t, err)
	_, err = u.Upload(b)
	require.NoError(t, err)

	off, ok := u.Offset(b.ID())
	require.True(t, ok)
	assert.Equal(t, uint64(256), off)
	assert.Equal(t, write{offset: 256, size: 192}, w.writes[1])
}

func TestNewUploaderCapacity(t *testing.T) {
	_, err := NewUploader(&fakeWriter{size: 10}, 4)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))

	_, err = NewUploader(nil, 4)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
}

func TestReleaseReleasesWriter(t *testing.T) {
	w := &fakeWriter{size: uint64(SlotStride(1))}
	u, err := NewUploader(w, 1)
	require.NoError(t, err)

	u.Release()
	assert.True(t, w.released)
	_, ok := u.Offset(uuid.New())
	assert.False(t, ok)
}

func TestNewGPUBufferWriterRequiresDevice(t *testing.T) {
	_, err := NewGPUBufferWriter(nil, nil, "test", 4, 1)
	assert.True(t, errors.Is(err, ErrNoDevice))
}
