package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
)

// gltfSkinExtractorImpl is the implementation of the gltfSkinExtractor interface.
type gltfSkinExtractorImpl struct {
	parser gltfParser
	names  []string
}

// gltfSkinExtractor registers skin joints as bones.
type gltfSkinExtractor interface {
	// RegisterSkin adds every joint of a skin to registry, in joint order, using the skin's
	// inverse bind matrix as the bone offset. Joints already registered keep their entry.
	//
	// Parameters:
	//   - skinIndex: the skin to register
	//   - registry: the model-wide bone registry
	//
	// Returns:
	//   - []int32: registry bone index for each joint slot of the skin
	//   - error: error if the skin or its matrices are malformed
	RegisterSkin(skinIndex int, registry model.BoneRegistry) ([]int32, error)
}

var _ gltfSkinExtractor = &gltfSkinExtractorImpl{}

// newGLTFSkinExtractor creates a skin extractor. names maps node index to node name.
func newGLTFSkinExtractor(parser gltfParser, names []string) gltfSkinExtractor {
	return &gltfSkinExtractorImpl{parser: parser, names: names}
}

func (e *gltfSkinExtractorImpl) RegisterSkin(skinIndex int, registry model.BoneRegistry) ([]int32, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("skin index %d out of range", skinIndex)
	}
	skin := &doc.Skins[skinIndex]

	var ibm []float32
	if skin.InverseBindMatrices != nil {
		var err error
		ibm, err = e.parser.ReadFloats(*skin.InverseBindMatrices, gltfAccessorTypeMat4)
		if err != nil {
			return nil, fmt.Errorf("skin %d inverse bind matrices: %w", skinIndex, err)
		}
		if len(ibm) < len(skin.Joints)*16 {
			return nil, fmt.Errorf("skin %d has %d joints but %d inverse bind matrices", skinIndex, len(skin.Joints), len(ibm)/16)
		}
	}

	out := make([]int32, len(skin.Joints))
	for slot, nodeIdx := range skin.Joints {
		if nodeIdx < 0 || nodeIdx >= len(e.names) {
			return nil, fmt.Errorf("skin %d joint %d references node %d out of range", skinIndex, slot, nodeIdx)
		}
		offset := common.Identity4()
		if ibm != nil {
			copy(offset[:], ibm[slot*16:slot*16+16])
		}
		out[slot] = int32(registry.RegisterOrGet(e.names[nodeIdx], offset).Index)
	}
	return out, nil
}
