package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/charmbracelet/log"
	"github.com/chewxy/math32"
)

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
	logger *log.Logger
}

// gltfMeshExtractor converts glTF primitives into skinned meshes.
type gltfMeshExtractor interface {
	// ExtractMesh extracts every triangle primitive of a mesh, one ImportedMesh per primitive.
	// JOINTS_0 values are skin joint slots; jointMap translates them to registry indices.
	// Non-triangle primitives are skipped with a warning.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//   - name: the base name for the resulting meshes
	//   - jointMap: registry index per joint slot, nil for an unskinned mesh
	//
	// Returns:
	//   - []model.ImportedMesh: one ImportedMesh per triangle primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int, name string, jointMap []int32) ([]model.ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
func newGLTFMeshExtractor(parser gltfParser, logger *log.Logger) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, logger: logger}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int, name string, jointMap []int32) ([]model.ImportedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	var result []model.ImportedMesh
	for primIdx := range mesh.Primitives {
		prim := &mesh.Primitives[primIdx]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			e.logger.Warn("skipping non-triangle primitive", "mesh", name, "primitive", primIdx, "mode", *prim.Mode)
			continue
		}

		primName := name
		if primIdx > 0 {
			primName = fmt.Sprintf("%s_prim%d", name, primIdx)
		}
		imported, err := e.extractPrimitive(prim, primName, jointMap)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		result = append(result, *imported)
	}
	return result, nil
}

func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, name string, jointMap []int32) (*model.ImportedMesh, error) {
	posAccessor, ok := prim.Attributes[gltfAttrPosition]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	vertexCount := len(positions) / 3
	vertices := make([]model.SkinnedVertex, vertexCount)
	for i := range vertices {
		vertices[i] = model.NewSkinnedVertex([3]float32{positions[i*3], positions[i*3+1], positions[i*3+2]})
	}

	hasNormals := false
	if acc, ok := prim.Attributes[gltfAttrNormal]; ok {
		normals, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec3)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		for i := 0; i < vertexCount && i*3+2 < len(normals); i++ {
			vertices[i].Normal = [3]float32{normals[i*3], normals[i*3+1], normals[i*3+2]}
		}
		hasNormals = true
	}

	if acc, ok := prim.Attributes[gltfAttrTexCoord]; ok {
		uvs, err := e.parser.ReadFloats(acc, gltfAccessorTypeVec2)
		if err != nil {
			return nil, fmt.Errorf("failed to read texcoords: %w", err)
		}
		for i := 0; i < vertexCount && i*2+1 < len(uvs); i++ {
			vertices[i].TexCoord = [2]float32{uvs[i*2], uvs[i*2+1]}
		}
	}

	if err := e.applyInfluences(prim, vertices, jointMap); err != nil {
		return nil, err
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = e.parser.ReadUints(*prim.Indices, gltfAccessorTypeScalar)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= vertexCount {
				return nil, fmt.Errorf("index %d out of range for %d vertices", idx, vertexCount)
			}
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if !hasNormals && len(indices) >= 3 {
		generateNormals(vertices, indices)
	}

	bmin, bmax := gltfCalculateBoundingBox(vertices)
	return &model.ImportedMesh{
		Name:        name,
		Vertices:    vertices,
		Indices:     indices,
		BoundingMin: bmin,
		BoundingMax: bmax,
	}, nil
}

// applyInfluences fills each vertex's bone slots from JOINTS_0/WEIGHTS_0.
// Zero weights leave their slot unused.
func (e *gltfMeshExtractorImpl) applyInfluences(prim *gltfPrimitive, vertices []model.SkinnedVertex, jointMap []int32) error {
	jointsAcc, hasJoints := prim.Attributes[gltfAttrJoints]
	weightsAcc, hasWeights := prim.Attributes[gltfAttrWeights]
	if !hasJoints || !hasWeights {
		return nil
	}
	if jointMap == nil {
		e.logger.Warn("primitive has joints but its node has no skin, ignoring influences")
		return nil
	}

	joints, err := e.parser.ReadUints(jointsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return fmt.Errorf("failed to read joints: %w", err)
	}
	weights, err := e.parser.ReadFloats(weightsAcc, gltfAccessorTypeVec4)
	if err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}

	for i := range vertices {
		if i*4+3 >= len(joints) || i*4+3 >= len(weights) {
			break
		}
		for k := 0; k < model.MaxBoneInfluences; k++ {
			w := weights[i*4+k]
			if w == 0 {
				continue
			}
			slot := int(joints[i*4+k])
			if slot >= len(jointMap) {
				return fmt.Errorf("vertex %d references joint slot %d, skin has %d", i, slot, len(jointMap))
			}
			vertices[i].AddBoneInfluence(jointMap[slot], w)
		}
		vertices[i].NormalizeWeights()
	}
	return nil
}

// --- Helper Functions ---

// gltfCalculateBoundingBox computes the axis-aligned bounding box of the vertex positions.
func gltfCalculateBoundingBox(vertices []model.SkinnedVertex) ([3]float32, [3]float32) {
	if len(vertices) == 0 {
		return [3]float32{}, [3]float32{}
	}

	bmin := [3]float32{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	bmax := [3]float32{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32}
	for _, v := range vertices {
		for j := 0; j < 3; j++ {
			bmin[j] = min(bmin[j], v.Position[j])
			bmax[j] = max(bmax[j], v.Position[j])
		}
	}
	return bmin, bmax
}

// generateNormals computes smooth vertex normals by accumulating area-weighted face normals.
// Vertices that touch no valid triangle get +Y.
func generateNormals(vertices []model.SkinnedVertex, indices []uint32) {
	n := len(vertices)
	accum := make([][3]float32, n)

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}

		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		for _, idx := range [3]uint32{i0, i1, i2} {
			accum[idx][0] += face[0]
			accum[idx][1] += face[1]
			accum[idx][2] += face[2]
		}
	}

	for i := range n {
		length := math32.Sqrt(accum[i][0]*accum[i][0] + accum[i][1]*accum[i][1] + accum[i][2]*accum[i][2])
		if length < 1e-6 {
			vertices[i].Normal = [3]float32{0, 1, 0}
			continue
		}
		vertices[i].Normal = [3]float32{accum[i][0] / length, accum[i][1] / length, accum[i][2] / length}
	}
}
