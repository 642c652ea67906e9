package model

// VectorKeyframe is a timestamped 3D value read from an asset.
type VectorKeyframe struct {
	Time  float32
	Value [3]float32
}

// QuaternionKeyframe is a timestamped rotation (x, y, z, w) read from an asset.
type QuaternionKeyframe struct {
	Time  float32
	Value [4]float32
}

// ImportedChannel holds the raw keyframes that animate one named node.
// Channels are resolved to bones by name, never by index.
type ImportedChannel struct {
	// NodeName is the hierarchy node this channel animates.
	NodeName string

	PositionKeys []VectorKeyframe
	RotationKeys []QuaternionKeyframe
	ScaleKeys    []VectorKeyframe
}

// ImportedAnimation is an animation as it was read from the asset, before validation.
type ImportedAnimation struct {
	// Name is the animation identifier.
	Name string

	// Duration is the clip length in ticks.
	Duration float32

	// TicksPerSecond converts seconds to ticks. Zero means the asset did not declare one.
	TicksPerSecond float32

	// Channels are the per-node keyframe sets.
	Channels []ImportedChannel
}

// ImportedMesh is one mesh primitive with its skinning data.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Vertices carry positions and bone influences already mapped to registry indices.
	Vertices []SkinnedVertex

	// Indices are triangle list indices into Vertices.
	Indices []uint32

	// BoundingMin is the minimum corner of the mesh bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the mesh bounding box.
	BoundingMax [3]float32
}

// ImportedModel is everything a model file contributes to the animation core.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes are the skinned mesh primitives.
	Meshes []ImportedMesh

	// Registry maps bone names to indices across all meshes.
	Registry BoneRegistry

	// Hierarchy is the root of the node tree.
	Hierarchy *HierarchyNode

	// GlobalInverseTransform is the inverse of the root node's transform.
	GlobalInverseTransform [16]float32

	// Animations are the unvalidated animations found in the file.
	Animations []ImportedAnimation
}
