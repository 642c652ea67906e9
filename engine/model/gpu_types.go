package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

const (
	// MaxBoneInfluences is the number of bone slots stored per vertex.
	MaxBoneInfluences = 4

	// NoBone marks an unused influence slot.
	NoBone int32 = -1

	// SkinnedVertexStride is the byte size of a marshalled SkinnedVertex.
	SkinnedVertexStride = 64
)

// SkinnedVertex is a mesh vertex with up to MaxBoneInfluences bone influences.
// Unused influence slots hold NoBone with a zero weight.
type SkinnedVertex struct {
	Position    [3]float32                 // offset  0: position in model (bind-pose) space
	Normal      [3]float32                 // offset 12: vertex normal
	TexCoord    [2]float32                 // offset 24: UV coordinate
	BoneIndices [MaxBoneInfluences]int32   // offset 32: influencing bone indices, NoBone when unused
	BoneWeights [MaxBoneInfluences]float32 // offset 48: blend weights, 0 when unused
}

// NewSkinnedVertex returns a vertex at position with every influence slot unused.
//
// Parameters:
//   - position: the vertex position
//
// Returns:
//   - SkinnedVertex: the vertex
func NewSkinnedVertex(position [3]float32) SkinnedVertex {
	v := SkinnedVertex{Position: position}
	for i := range v.BoneIndices {
		v.BoneIndices[i] = NoBone
	}
	return v
}

// AddBoneInfluence stores (boneIndex, weight) in the first unused slot.
// Zero weights are ignored since they cannot affect the skinned position.
//
// Parameters:
//   - boneIndex: the bone registry index
//   - weight: the blend weight
//
// Returns:
//   - bool: false if every slot is already used
func (v *SkinnedVertex) AddBoneInfluence(boneIndex int32, weight float32) bool {
	if weight == 0 {
		return true
	}
	for i := range v.BoneIndices {
		if v.BoneIndices[i] == NoBone {
			v.BoneIndices[i] = boneIndex
			v.BoneWeights[i] = weight
			return true
		}
	}
	return false
}

// InfluenceCount returns the number of used slots.
func (v *SkinnedVertex) InfluenceCount() int {
	n := 0
	for _, idx := range v.BoneIndices {
		if idx != NoBone {
			n++
		}
	}
	return n
}

// NormalizeWeights rescales the used weights to sum to 1. A vertex without influences is left alone.
func (v *SkinnedVertex) NormalizeWeights() {
	var sum float32
	for i, idx := range v.BoneIndices {
		if idx != NoBone {
			sum += v.BoneWeights[i]
		}
	}
	if sum == 0 {
		return
	}
	for i, idx := range v.BoneIndices {
		if idx != NoBone {
			v.BoneWeights[i] /= sum
		}
	}
}

// Size returns the in-memory size of the SkinnedVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *SkinnedVertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the vertex for GPU upload. Unused slots are written as bone 0
// with weight 0 so the shader never indexes outside the bone matrix array.
//
// Returns:
//   - []byte: SkinnedVertexStride bytes, little-endian
func (v *SkinnedVertex) Marshal() []byte {
	buf := make([]byte, SkinnedVertexStride)
	put := func(off int, f float32) {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
	}

	for i, f := range v.Position {
		put(i*4, f)
	}
	for i, f := range v.Normal {
		put(12+i*4, f)
	}
	for i, f := range v.TexCoord {
		put(24+i*4, f)
	}
	for i := range MaxBoneInfluences {
		idx, w := v.BoneIndices[i], v.BoneWeights[i]
		if idx == NoBone {
			idx, w = 0, 0
		}
		binary.LittleEndian.PutUint32(buf[32+i*4:36+i*4], uint32(idx))
		put(48+i*4, w)
	}
	return buf
}

// MarshalMatrices packs column-major 4x4 matrices into a little-endian byte slice.
//
// Parameters:
//   - mats: the matrices to pack
//
// Returns:
//   - []byte: 64 bytes per matrix
func MarshalMatrices(mats [][16]float32) []byte {
	buf := make([]byte, len(mats)*64)
	for m, mat := range mats {
		base := m * 64
		for i, f := range mat {
			binary.LittleEndian.PutUint32(buf[base+i*4:base+i*4+4], math.Float32bits(f))
		}
	}
	return buf
}

// ComputeBoundingRadius returns the largest distance from the origin across vertices.
//
// Parameters:
//   - vertices: the vertex data to measure
//
// Returns:
//   - float32: the bounding sphere radius
func ComputeBoundingRadius(vertices []SkinnedVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		if d := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]; d > maxDistSq {
			maxDistSq = d
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
