package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
)

// gltfSceneRootName names the synthetic root created when a scene has several root nodes.
const gltfSceneRootName = "__scene_root__"

// gltfHierarchyExtractorImpl is the implementation of the gltfHierarchyExtractor interface.
type gltfHierarchyExtractorImpl struct {
	parser gltfParser
	names  []string
}

// gltfHierarchyExtractor builds the node tree animation is applied to.
type gltfHierarchyExtractor interface {
	// NodeNames returns a unique name for every node, indexed by node.
	// Unnamed nodes become "node_<i>"; a repeated name gets "_<i>" appended.
	//
	// Returns:
	//   - []string: the node names
	NodeNames() []string

	// ExtractHierarchy builds the tree of the default scene, or of the first scene if none
	// is marked default, or of every parentless node if the document has no scenes.
	//
	// Returns:
	//   - *model.HierarchyNode: the root, synthetic if the scene has several roots
	//   - error: error if the node graph is malformed
	ExtractHierarchy() (*model.HierarchyNode, error)
}

var _ gltfHierarchyExtractor = &gltfHierarchyExtractorImpl{}

// newGLTFHierarchyExtractor creates a hierarchy extractor for a parsed document.
func newGLTFHierarchyExtractor(parser gltfParser) gltfHierarchyExtractor {
	return &gltfHierarchyExtractorImpl{parser: parser}
}

func (e *gltfHierarchyExtractorImpl) NodeNames() []string {
	if e.names != nil {
		return e.names
	}
	doc := e.parser.Document()
	if doc == nil {
		return nil
	}

	names := make([]string, len(doc.Nodes))
	seen := make(map[string]bool, len(doc.Nodes))
	for i, n := range doc.Nodes {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		for base, k := name, i; seen[name]; k++ {
			name = fmt.Sprintf("%s_%d", base, k)
		}
		seen[name] = true
		names[i] = name
	}
	e.names = names
	return names
}

func (e *gltfHierarchyExtractorImpl) ExtractHierarchy() (*model.HierarchyNode, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if len(doc.Nodes) == 0 {
		return nil, nil
	}

	roots, err := gltfSceneRoots(doc)
	if err != nil {
		return nil, err
	}

	names := e.NodeNames()
	visited := make([]bool, len(doc.Nodes))
	var build func(idx int) (*model.HierarchyNode, error)
	build = func(idx int) (*model.HierarchyNode, error) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return nil, fmt.Errorf("node %d is reachable twice, the node graph is not a tree", idx)
		}
		visited[idx] = true

		n := &doc.Nodes[idx]
		out := model.NewHierarchyNode(names[idx], gltfNodeLocalTransform(n))
		for _, c := range n.Children {
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, child)
		}
		return out, nil
	}

	built := make([]*model.HierarchyNode, 0, len(roots))
	for _, r := range roots {
		node, err := build(r)
		if err != nil {
			return nil, err
		}
		built = append(built, node)
	}

	if len(built) == 1 {
		return built[0], nil
	}
	return model.NewHierarchyNode(gltfSceneRootName, common.Identity4(), built...), nil
}

// --- Helper Functions ---

// gltfSceneRoots picks the root node list of the scene to import.
func gltfSceneRoots(doc *gltfDocument) ([]int, error) {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil {
			scene = *doc.Scene
		}
		if scene < 0 || scene >= len(doc.Scenes) {
			return nil, fmt.Errorf("default scene %d out of range", scene)
		}
		if len(doc.Scenes[scene].Nodes) > 0 {
			return doc.Scenes[scene].Nodes, nil
		}
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i, p := range hasParent {
		if !p {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// gltfNodeLocalTransform returns the node matrix, or T*R*S built from its components.
func gltfNodeLocalTransform(n *gltfNode) [16]float32 {
	if n.Matrix != nil {
		return *n.Matrix
	}

	t := [3]float32{0, 0, 0}
	r := common.QuatIdentity()
	s := [3]float32{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		r = common.QuatNormalize(*n.Rotation)
	}
	if n.Scale != nil {
		s = *n.Scale
	}
	return common.ComposeTRS(t, r, s)
}
