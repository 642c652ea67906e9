package model

import (
	"sync"

	"github.com/jinzhu/copier"
)

// BoneEntry binds a skeleton node name to a slot in the final bone matrix array.
type BoneEntry struct {
	// Name is the skeleton node identifier, unique within a model.
	Name string

	// Index is the position in the final bone matrix array.
	Index int

	// Offset transforms a vertex from model (bind-pose) space into this bone's local space.
	Offset [16]float32
}

// boneRegistry is the implementation of the BoneRegistry interface.
type boneRegistry struct {
	mu      sync.RWMutex
	entries []BoneEntry
	byName  map[string]int
}

// BoneRegistry maps skeleton node names to stable, dense bone indices.
// Indices are assigned in first-seen order and never change or get removed,
// so a registry with N bones always holds exactly the indices 0..N-1.
type BoneRegistry interface {
	// RegisterOrGet returns the entry for name, creating it with the next free index
	// and the given offset if the name is unseen. An existing entry is returned unchanged;
	// its offset is never overwritten.
	//
	// Parameters:
	//   - name: the skeleton node name
	//   - offset: the model-space to bone-space matrix used if the entry is created
	//
	// Returns:
	//   - BoneEntry: the new or existing entry
	RegisterOrGet(name string, offset [16]float32) BoneEntry

	// Lookup finds the entry for a node name.
	//
	// Parameters:
	//   - name: the skeleton node name
	//
	// Returns:
	//   - BoneEntry: the entry, zero if absent
	//   - bool: true if the name is registered
	Lookup(name string) (BoneEntry, bool)

	// Len returns the number of registered bones.
	//
	// Returns:
	//   - int: the bone count
	Len() int

	// Names returns the registered names ordered by bone index.
	//
	// Returns:
	//   - []string: the bone names
	Names() []string

	// Entries returns a copy of all entries ordered by bone index.
	//
	// Returns:
	//   - []BoneEntry: the entries
	Entries() []BoneEntry

	// Snapshot returns an independent copy. Registrations made on either registry
	// afterwards are not visible to the other.
	//
	// Returns:
	//   - BoneRegistry: the copy
	Snapshot() BoneRegistry
}

var _ BoneRegistry = &boneRegistry{}

// NewBoneRegistry creates an empty BoneRegistry.
//
// Returns:
//   - BoneRegistry: the empty registry
func NewBoneRegistry() BoneRegistry {
	return &boneRegistry{byName: make(map[string]int)}
}

func (r *boneRegistry) RegisterOrGet(name string, offset [16]float32) BoneEntry {
	r.mu.RLock()
	if idx, ok := r.byName[name]; ok {
		entry := r.entries[idx]
		r.mu.RUnlock()
		return entry
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another writer may have registered the name between the two locks.
	if idx, ok := r.byName[name]; ok {
		return r.entries[idx]
	}

	entry := BoneEntry{Name: name, Index: len(r.entries), Offset: offset}
	r.entries = append(r.entries, entry)
	r.byName[name] = entry.Index
	return entry
}

func (r *boneRegistry) Lookup(name string) (BoneEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byName[name]
	if !ok {
		return BoneEntry{}, false
	}
	return r.entries[idx], true
}

func (r *boneRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *boneRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

func (r *boneRegistry) Entries() []BoneEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BoneEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *boneRegistry) Snapshot() BoneRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &boneRegistry{byName: make(map[string]int, len(r.byName))}
	if err := copier.CopyWithOption(&snap.entries, &r.entries, copier.Option{DeepCopy: true}); err != nil {
		// unreachable for identical slice types
		snap.entries = append([]BoneEntry(nil), r.entries...)
	}
	for i, e := range snap.entries {
		snap.byName[e.Name] = i
	}
	return snap
}
