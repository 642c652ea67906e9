package model

import (
	"github.com/Carmen-Shannon/oxy-rig/common"
)

// model is the implementation of the Model interface.
type model struct {
	name                   string
	registry               BoneRegistry
	hierarchy              *HierarchyNode
	meshes                 []ImportedMesh
	animations             []ImportedAnimation
	globalInverseTransform [16]float32
	boundingRadius         float32
}

// Model defines the interface for a loaded, skinnable 3D model.
// A Model owns the bone registry shared by all its meshes and clips, the node hierarchy
// animation is applied to, and the raw animations clips are built from.
// It is produced by the Loader after importing a model file.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Skinned reports whether any mesh of this model is bound to bones.
	//
	// Returns:
	//   - bool: true if the registry holds at least one bone
	Skinned() bool

	// Registry retrieves the model's bone registry. Clips built later may still add
	// bones to it; each clip keeps its own snapshot.
	//
	// Returns:
	//   - BoneRegistry: the registry
	Registry() BoneRegistry

	// Hierarchy retrieves the root of the node hierarchy.
	//
	// Returns:
	//   - *HierarchyNode: the root node, or nil for a model without one
	Hierarchy() *HierarchyNode

	// Meshes retrieves the skinned mesh data.
	//
	// Returns:
	//   - []ImportedMesh: the meshes
	Meshes() []ImportedMesh

	// Animations retrieves the raw imported animations.
	//
	// Returns:
	//   - []ImportedAnimation: the animations
	Animations() []ImportedAnimation

	// AnimationCount returns the number of available animations.
	//
	// Returns:
	//   - int: the animation count
	AnimationCount() int

	// AnimationNames returns the names of all animations.
	//
	// Returns:
	//   - []string: the animation names
	AnimationNames() []string

	// GetAnimationIndex returns the index of an animation by name, or -1 if not found.
	//
	// Parameters:
	//   - name: the animation name to search for
	//
	// Returns:
	//   - int: the animation index, or -1 if not found
	GetAnimationIndex(name string) int

	// GlobalInverseTransform returns the inverse of the root node transform.
	//
	// Returns:
	//   - [16]float32: the matrix
	GlobalInverseTransform() [16]float32

	// BoundingRadius returns the bind-pose bounding sphere radius across all meshes.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// A model built without a registry gets an empty one, and the global inverse
// transform defaults to identity. The bounding radius is computed from the
// meshes unless WithBoundingRadius sets it.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		globalInverseTransform: common.Identity4(),
		boundingRadius:         -1,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewBoneRegistry()
	}
	if m.boundingRadius < 0 {
		m.boundingRadius = 0
		for _, mesh := range m.meshes {
			m.boundingRadius = max(m.boundingRadius, ComputeBoundingRadius(mesh.Vertices))
		}
	}
	return m
}

// NewModelFromImported wraps an ImportedModel as a Model.
//
// Parameters:
//   - imported: the import result
//
// Returns:
//   - Model: the model
func NewModelFromImported(imported *ImportedModel) Model {
	return NewModel(
		WithName(imported.Name),
		WithRegistry(imported.Registry),
		WithHierarchy(imported.Hierarchy),
		WithMeshes(imported.Meshes),
		WithAnimations(imported.Animations),
		WithGlobalInverseTransform(imported.GlobalInverseTransform),
	)
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Skinned() bool {
	return m.registry.Len() > 0
}

func (m *model) Registry() BoneRegistry {
	return m.registry
}

func (m *model) Hierarchy() *HierarchyNode {
	return m.hierarchy
}

func (m *model) Meshes() []ImportedMesh {
	return m.meshes
}

func (m *model) Animations() []ImportedAnimation {
	return m.animations
}

func (m *model) AnimationCount() int {
	return len(m.animations)
}

func (m *model) AnimationNames() []string {
	names := make([]string, len(m.animations))
	for i, anim := range m.animations {
		names[i] = anim.Name
	}
	return names
}

func (m *model) GetAnimationIndex(name string) int {
	for i, anim := range m.animations {
		if anim.Name == name {
			return i
		}
	}
	return -1
}

func (m *model) GlobalInverseTransform() [16]float32 {
	return m.globalInverseTransform
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}
