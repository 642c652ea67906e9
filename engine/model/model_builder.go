package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithRegistry is an option builder that sets the bone registry of the Model.
//
// Parameters:
//   - registry: the registry shared by the model's meshes and clips
//
// Returns:
//   - ModelBuilderOption: a function that applies the registry option to a model
func WithRegistry(registry BoneRegistry) ModelBuilderOption {
	return func(m *model) {
		m.registry = registry
	}
}

// WithHierarchy is an option builder that sets the root of the node hierarchy.
//
// Parameters:
//   - root: the hierarchy root
//
// Returns:
//   - ModelBuilderOption: a function that applies the hierarchy option to a model
func WithHierarchy(root *HierarchyNode) ModelBuilderOption {
	return func(m *model) {
		m.hierarchy = root
	}
}

// WithMeshes is an option builder that sets the skinned meshes of the Model.
//
// Parameters:
//   - meshes: the meshes to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes []ImportedMesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}

// WithAnimations is an option builder that sets the raw animations of the Model.
//
// Parameters:
//   - animations: the imported animations
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []ImportedAnimation) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithGlobalInverseTransform is an option builder that sets the inverse root transform.
//
// Parameters:
//   - mat: the inverse of the root node transform
//
// Returns:
//   - ModelBuilderOption: a function that applies the transform option to a model
func WithGlobalInverseTransform(mat [16]float32) ModelBuilderOption {
	return func(m *model) {
		m.globalInverseTransform = mat
	}
}

// WithBoundingRadius is an option builder that overrides the computed bounding radius.
//
// Parameters:
//   - radius: the bounding radius to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
