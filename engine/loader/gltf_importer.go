package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/charmbracelet/log"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	logger *log.Logger
}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and all extractors to produce a complete ImportedModel.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts all data into an ImportedModel.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader and extracts all data.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Parameters:
//   - logger: receives import warnings
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(logger *log.Logger) gltfImporter {
	return &gltfImporterImpl{logger: logger}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, "")
}

// importFromParser performs a full import from a parser that has already loaded a document.
// Mesh nodes are visited in document order, so bones register in first-seen order across
// every skinned mesh.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string) (*model.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	hierarchyExtractor := newGLTFHierarchyExtractor(parser)
	names := hierarchyExtractor.NodeNames()
	skinExtractor := newGLTFSkinExtractor(parser, names)
	meshExtractor := newGLTFMeshExtractor(parser, imp.logger)
	animationExtractor := newGLTFAnimationExtractor(parser, names, imp.logger)

	hierarchy, err := hierarchyExtractor.ExtractHierarchy()
	if err != nil {
		return nil, fmt.Errorf("hierarchy extraction failed: %w", err)
	}

	registry := model.NewBoneRegistry()
	jointMaps := make(map[int][]int32, len(doc.Skins))
	var meshes []model.ImportedMesh

	for nodeIdx := range doc.Nodes {
		node := &doc.Nodes[nodeIdx]
		if node.Mesh == nil {
			continue
		}

		var jointMap []int32
		if node.Skin != nil {
			var ok bool
			if jointMap, ok = jointMaps[*node.Skin]; !ok {
				jointMap, err = skinExtractor.RegisterSkin(*node.Skin, registry)
				if err != nil {
					return nil, fmt.Errorf("skin extraction failed: %w", err)
				}
				jointMaps[*node.Skin] = jointMap
			}
		}

		meshName := names[nodeIdx]
		if *node.Mesh >= 0 && *node.Mesh < len(doc.Meshes) && doc.Meshes[*node.Mesh].Name != "" {
			meshName = doc.Meshes[*node.Mesh].Name
		}
		extracted, err := meshExtractor.ExtractMesh(*node.Mesh, meshName, jointMap)
		if err != nil {
			return nil, fmt.Errorf("mesh extraction failed: %w", err)
		}
		meshes = append(meshes, extracted...)
	}

	animations, err := animationExtractor.ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	globalInverse := common.Identity4()
	if hierarchy != nil {
		if inv, ok := common.Invert4(hierarchy.LocalTransform); ok {
			globalInverse = inv
		} else {
			imp.logger.Warn("root transform is singular, using identity global inverse", "root", hierarchy.Name)
		}
	}

	name := gltfExtractModelName(doc, fallbackPath)
	imp.logger.Debug("imported model", "name", name, "meshes", len(meshes), "bones", registry.Len(), "animations", len(animations))

	return &model.ImportedModel{
		Name:                   name,
		Meshes:                 meshes,
		Registry:               registry,
		Hierarchy:              hierarchy,
		GlobalInverseTransform: globalInverse,
		Animations:             animations,
	}, nil
}

// --- Helper Functions ---

// gltfExtractModelName derives a model name from the default scene or a file path fallback.
func gltfExtractModelName(doc *gltfDocument, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	return "unnamed_model"
}
