package model

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOrGetAssignsSequentialIndices(t *testing.T) {
	r := NewBoneRegistry()

	hips := r.RegisterOrGet("hips", common.Identity4())
	spine := r.RegisterOrGet("spine", common.Translate4([3]float32{0, -1, 0}))

	assert.Equal(t, 0, hips.Index)
	assert.Equal(t, 1, spine.Index)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"hips", "spine"}, r.Names())
}

func TestRegisterOrGetFirstWriterWins(t *testing.T) {
	r := NewBoneRegistry()
	first := common.Translate4([3]float32{0, -1, 0})

	r.RegisterOrGet("spine", first)
	again := r.RegisterOrGet("spine", common.Translate4([3]float32{9, 9, 9}))

	assert.Equal(t, 0, again.Index)
	assert.Equal(t, first, again.Offset)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryIndexDensityAcrossMeshes(t *testing.T) {
	// three meshes that share some bones
	meshes := [][]string{
		{"hips", "spine", "chest"},
		{"chest", "neck", "head"},
		{"hips", "thigh.L", "thigh.R", "spine"},
	}

	r := NewBoneRegistry()
	distinct := map[string]struct{}{}
	for _, bones := range meshes {
		for _, b := range bones {
			r.RegisterOrGet(b, common.Identity4())
			distinct[b] = struct{}{}
		}
	}

	require.Equal(t, len(distinct), r.Len())
	indices := make([]int, 0, r.Len())
	for _, e := range r.Entries() {
		indices = append(indices, e.Index)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		assert.Equal(t, i, idx)
	}
}

func TestLookup(t *testing.T) {
	r := NewBoneRegistry()
	r.RegisterOrGet("root", common.Identity4())

	entry, ok := r.Lookup("root")
	assert.True(t, ok)
	assert.Equal(t, "root", entry.Name)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := NewBoneRegistry()
	r.RegisterOrGet("a", common.Identity4())
	r.RegisterOrGet("b", common.Identity4())

	snap := r.Snapshot()
	r.RegisterOrGet("c", common.Identity4())
	snap.RegisterOrGet("z", common.Identity4())

	assert.Equal(t, []string{"a", "b", "c"}, r.Names())
	assert.Equal(t, []string{"a", "b", "z"}, snap.Names())

	z, _ := snap.Lookup("z")
	assert.Equal(t, 2, z.Index)
	_, ok := r.Lookup("z")
	assert.False(t, ok)
}

func TestRegisterOrGetConcurrent(t *testing.T) {
	r := NewBoneRegistry()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.RegisterOrGet(fmt.Sprintf("bone_%d", i), common.Identity4())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
	seen := map[int]bool{}
	for _, e := range r.Entries() {
		assert.False(t, seen[e.Index])
		seen[e.Index] = true
	}
}
