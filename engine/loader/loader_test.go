package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/animator"
	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLoader(options ...LoaderBuilderOption) Loader {
	return NewLoader(BackendTypeGLTF, append([]LoaderBuilderOption{WithLogger(core.DiscardLogger())}, options...)...)
}

func writeRigged(t *testing.T, dir, name string) string {
	t.Helper()
	f, doc := riggedDocument()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, f.document(t, doc, true), 0o644))
	return path
}

func TestLoadCachesByCleanPath(t *testing.T) {
	dir := t.TempDir()
	path := writeRigged(t, dir, "leg.gltf")
	l := quietLoader()

	first, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "leg", first.Name())
	assert.True(t, first.Skinned())

	second, err := l.Load(filepath.Join(dir, ".", "leg.gltf"))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Same(t, first, l.Get(filepath.Clean(path)))
	assert.Len(t, l.Models(), 1)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := quietLoader().Load("model.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := quietLoader().Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

func TestLoadReaderAndEvict(t *testing.T) {
	f, doc := riggedDocument()
	l := quietLoader()

	m, err := l.LoadReader("leg", bytes.NewReader(f.glb(t, doc)), true)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Registry().Len())

	models := l.Models()
	delete(models, "leg")
	assert.NotNil(t, l.Get("leg"), "Models returns a copy")

	assert.True(t, l.Evict("leg"))
	assert.Nil(t, l.Get("leg"))
	assert.False(t, l.Evict("leg"))
}

func TestWithModelPrepopulatesCache(t *testing.T) {
	m := model.NewModel(model.WithName("procedural"))
	l := quietLoader(WithModel("procedural", m))
	assert.Same(t, m, l.Get("procedural"))
}

func TestLoadedClipPlaysBack(t *testing.T) {
	f, doc := riggedDocument()
	m, err := quietLoader().LoadReader("leg", bytes.NewReader(f.document(t, doc, true)), false)
	require.NoError(t, err)
	require.Equal(t, []string{"bend", "animation_1"}, m.AnimationNames())

	clip, err := animator.ExtractClip(m, "bend")
	require.NoError(t, err)
	assert.Equal(t, 2, clip.TrackCount())

	a := animator.NewAnimator(animator.WithClip(clip), animator.WithLogger(core.DiscardLogger()))
	a.Update(1)

	// At t=1 the hip has moved to (0,2,0) and the knee has turned 45 degrees about Z.
	knee := a.FinalBoneMatrices()[1]
	got := common.TransformPoint(knee, [3]float32{0, 2, 0})
	h := math32.Sqrt(2) / 2
	assert.InDelta(t, -h, got[0], 1e-4)
	assert.InDelta(t, 3+h, got[1], 1e-4)
	assert.InDelta(t, 0, got[2], 1e-4)
}

func TestWatchReloadsChangedModel(t *testing.T) {
	dir := t.TempDir()
	path := writeRigged(t, dir, "leg.gltf")
	l := quietLoader()

	original, err := l.Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan model.Model, 8)
	require.NoError(t, l.Watch(ctx, dir, func(key string, m model.Model, err error) {
		if err == nil && m != nil && key == filepath.Clean(path) {
			reloaded <- m
		}
	}))

	writeRigged(t, dir, "leg.gltf")

	select {
	case m := <-reloaded:
		assert.NotSame(t, original, m)
		assert.Same(t, m, l.Get(filepath.Clean(path)))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchEvictsRemovedModel(t *testing.T) {
	dir := t.TempDir()
	path := writeRigged(t, dir, "leg.gltf")
	l := quietLoader()

	_, err := l.Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	evicted := make(chan string, 8)
	require.NoError(t, l.Watch(ctx, dir, func(key string, m model.Model, err error) {
		if m == nil && err == nil {
			evicted <- key
		}
	}))

	require.NoError(t, os.Remove(path))

	select {
	case key := <-evicted:
		assert.Equal(t, filepath.Clean(path), key)
		assert.Nil(t, l.Get(key))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for eviction")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := quietLoader().Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}
