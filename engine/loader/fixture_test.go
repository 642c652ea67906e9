package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// gltfFixture assembles a minimal glTF document with a single embedded buffer.
type gltfFixture struct {
	buf       bytes.Buffer
	views     []map[string]any
	accessors []map[string]any
}

func (f *gltfFixture) align() {
	for f.buf.Len()%4 != 0 {
		f.buf.WriteByte(0)
	}
}

func (f *gltfFixture) addAccessor(raw []byte, componentType int, typ string, count int, normalized bool) int {
	f.align()
	f.views = append(f.views, map[string]any{
		"buffer":     0,
		"byteOffset": f.buf.Len(),
		"byteLength": len(raw),
	})
	f.buf.Write(raw)

	acc := map[string]any{
		"bufferView":    len(f.views) - 1,
		"componentType": componentType,
		"count":         count,
		"type":          typ,
	}
	if normalized {
		acc["normalized"] = true
	}
	f.accessors = append(f.accessors, acc)
	return len(f.accessors) - 1
}

func (f *gltfFixture) floats(typ string, vals ...float32) int {
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return f.addAccessor(raw, gltfComponentTypeFloat, typ, len(vals)/gltfAccessorTypeComponentCount(typ), false)
}

func (f *gltfFixture) ubytes(typ string, normalized bool, vals ...uint8) int {
	return f.addAccessor(vals, gltfComponentTypeUnsignedByte, typ, len(vals)/gltfAccessorTypeComponentCount(typ), normalized)
}

func (f *gltfFixture) shorts(typ string, vals ...uint16) int {
	raw := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	return f.addAccessor(raw, gltfComponentTypeUnsignedShort, typ, len(vals)/gltfAccessorTypeComponentCount(typ), false)
}

// document merges the buffer tables into doc and encodes it as glTF JSON.
func (f *gltfFixture) document(t *testing.T, doc map[string]any, embed bool) []byte {
	t.Helper()
	f.align()
	buffer := map[string]any{"byteLength": f.buf.Len()}
	if embed {
		buffer["uri"] = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(f.buf.Bytes())
	}
	doc["asset"] = map[string]any{"version": "2.0"}
	doc["buffers"] = []any{buffer}
	doc["bufferViews"] = f.views
	doc["accessors"] = f.accessors

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// glb wraps doc and the buffer in a GLB container.
func (f *gltfFixture) glb(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	jsonChunk := f.document(t, doc, false)
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	bin := f.buf.Bytes()

	var out bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(bin)
	for _, v := range []uint32{gltfGLBMagic, gltfGLBVersion, uint32(total), uint32(len(jsonChunk)), gltfGLBChunkJSON} {
		require.NoError(t, binary.Write(&out, binary.LittleEndian, v))
	}
	out.Write(jsonChunk)
	for _, v := range []uint32{uint32(len(bin)), gltfGLBChunkBIN} {
		require.NoError(t, binary.Write(&out, binary.LittleEndian, v))
	}
	out.Write(bin)
	return out.Bytes()
}

// riggedDocument builds a two-joint leg skinning a single triangle:
//
//	root
//	  hip (joint 0)
//	    knee (joint 1, translation 0,1,0)
//	  body (mesh 0, skin 0)
//
// Animation "bend" rotates the knee (LINEAR) and moves the hip (CUBICSPLINE).
// The second, unnamed animation scales the knee with STEP interpolation.
func riggedDocument() (*gltfFixture, map[string]any) {
	f := &gltfFixture{}

	positions := f.floats(gltfAccessorTypeVec3, 0, 0, 0, 1, 0, 0, 0, 1, 0)
	indices := f.shorts(gltfAccessorTypeScalar, 0, 1, 2)
	joints := f.ubytes(gltfAccessorTypeVec4, false,
		0, 0, 0, 0,
		1, 0, 0, 0,
		0, 1, 0, 0,
	)
	weights := f.floats(gltfAccessorTypeVec4,
		1, 0, 0, 0,
		1, 0, 0, 0,
		0.5, 0.5, 0, 0,
	)
	ibm := f.floats(gltfAccessorTypeMat4,
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, -1, 0, 1,
	)

	bendTimes := f.floats(gltfAccessorTypeScalar, 0, 2)
	bendRot := f.floats(gltfAccessorTypeVec4, 0, 0, 0, 1, 0, 0, 0.70710677, 0.70710677)
	hipTimes := f.floats(gltfAccessorTypeScalar, 0, 1)
	hipCubic := f.floats(gltfAccessorTypeVec3,
		9, 9, 9, 0, 0, 0, 9, 9, 9,
		9, 9, 9, 0, 2, 0, 9, 9, 9,
	)
	stepTimes := f.floats(gltfAccessorTypeScalar, 0, 1)
	stepScale := f.floats(gltfAccessorTypeVec3, 1, 1, 1, 2, 2, 2)

	doc := map[string]any{
		"scene":  0,
		"scenes": []any{map[string]any{"name": "leg", "nodes": []int{0}}},
		"nodes": []any{
			map[string]any{"name": "root", "children": []int{1, 3}},
			map[string]any{"name": "hip", "children": []int{2}},
			map[string]any{"name": "knee", "translation": []float32{0, 1, 0}},
			map[string]any{"name": "body", "mesh": 0, "skin": 0},
		},
		"meshes": []any{map[string]any{
			"name": "body",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{
					gltfAttrPosition: positions,
					gltfAttrJoints:   joints,
					gltfAttrWeights:  weights,
				},
				"indices": indices,
			}},
		}},
		"skins": []any{map[string]any{"joints": []int{1, 2}, "inverseBindMatrices": ibm}},
		"animations": []any{
			map[string]any{
				"name": "bend",
				"channels": []any{
					map[string]any{"sampler": 0, "target": map[string]any{"node": 2, "path": "rotation"}},
					map[string]any{"sampler": 1, "target": map[string]any{"node": 1, "path": "translation"}},
				},
				"samplers": []any{
					map[string]any{"input": bendTimes, "output": bendRot},
					map[string]any{"input": hipTimes, "output": hipCubic, "interpolation": "CUBICSPLINE"},
				},
			},
			map[string]any{
				"channels": []any{
					map[string]any{"sampler": 0, "target": map[string]any{"node": 2, "path": "scale"}},
				},
				"samplers": []any{
					map[string]any{"input": stepTimes, "output": stepScale, "interpolation": "STEP"},
				},
			},
		},
	}
	return f, doc
}
