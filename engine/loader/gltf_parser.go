package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errGLBTooSmall        = errors.New("GLB file too small")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errNoDocument         = errors.New("no document loaded")
	errAccessorRange      = errors.New("accessor out of range")
	errSparseAccessor     = errors.New("sparse accessors are not supported")
	errAccessorType       = errors.New("unexpected accessor type")
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser defines the interface for loading and parsing glTF/GLB files.
// It handles file I/O, JSON deserialization, buffer loading, and typed accessor reads.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// GLB is detected by extension or by magic number.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader.
	// External buffer URIs resolve against the working directory.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed glTF document, or nil before a successful parse.
	Document() *gltfDocument

	// ReadFloats reads every component of an accessor as float32. Normalized integer
	// components are mapped to [0, 1] or [-1, 1].
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required element type (SCALAR, VEC3, ...)
	//
	// Returns:
	//   - []float32: the components, Count * component-count long
	//   - error: error if the accessor is invalid or of another type
	ReadFloats(accessorIndex int, accessorType string) ([]float32, error)

	// ReadUints reads every component of an unsigned integer accessor.
	// Used for indices and joint indices.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//   - accessorType: the required element type
	//
	// Returns:
	//   - []uint32: the components
	//   - error: error if the accessor is invalid or not unsigned integer
	ReadUints(accessorIndex int, accessorType string) ([]uint32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseJSON(data)
}

func (p *gltfParserImpl) parseJSON(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// parseGLB splits a GLB container into its JSON and BIN chunks.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errGLBTooSmall
	}

	r := bytes.NewReader(data)
	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = body
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = body
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}
	return p.parseJSON(jsonData)
}

// loadBuffers resolves every buffer from a data URI, an external file or the GLB BIN chunk.
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			data, err := os.ReadFile(filepath.Join(p.baseDir, buf.URI))
			if err != nil {
				return fmt.Errorf("buffer %d: failed to load %q: %w", i, buf.URI, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// --- Accessor Data Reading ---

// accessorLayout resolves where an accessor's elements live.
type accessorLayout struct {
	acc           *gltfAccessor
	data          []byte
	offset        int
	stride        int
	componentSize int
	components    int
}

func (p *gltfParserImpl) layout(accessorIndex int, accessorType string) (*accessorLayout, error) {
	if p.document == nil {
		return nil, errNoDocument
	}
	doc := p.document
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errAccessorRange)
	}

	acc := &doc.Accessors[accessorIndex]
	if acc.Type != accessorType {
		return nil, fmt.Errorf("accessor %d is %s, want %s: %w", accessorIndex, acc.Type, accessorType, errAccessorType)
	}
	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errSparseAccessor)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("accessor %d has no valid bufferView: %w", accessorIndex, errAccessorRange)
	}

	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("bufferView %d: %w", *acc.BufferView, errAccessorRange)
	}

	l := &accessorLayout{
		acc:           acc,
		data:          doc.Buffers[bv.Buffer].Data,
		offset:        bv.ByteOffset + acc.ByteOffset,
		componentSize: gltfComponentTypeSize(acc.ComponentType),
		components:    gltfAccessorTypeComponentCount(acc.Type),
	}
	if l.componentSize == 0 || l.components == 0 {
		return nil, fmt.Errorf("accessor %d component type %d: %w", accessorIndex, acc.ComponentType, errAccessorType)
	}

	l.stride = l.componentSize * l.components
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		l.stride = *bv.ByteStride
	}

	if acc.Count > 0 {
		end := l.offset + (acc.Count-1)*l.stride + l.componentSize*l.components
		if end > len(l.data) || end > bv.ByteOffset+bv.ByteLength {
			return nil, fmt.Errorf("accessor %d reads past its bufferView: %w", accessorIndex, errAccessorRange)
		}
	}
	return l, nil
}

// component returns the raw little-endian bytes of component c of element i.
func (l *accessorLayout) component(i, c int) []byte {
	at := l.offset + i*l.stride + c*l.componentSize
	return l.data[at : at+l.componentSize]
}

func (p *gltfParserImpl) ReadFloats(accessorIndex int, accessorType string) ([]float32, error) {
	l, err := p.layout(accessorIndex, accessorType)
	if err != nil {
		return nil, err
	}
	if l.acc.ComponentType != gltfComponentTypeFloat && !l.acc.Normalized {
		return nil, fmt.Errorf("accessor %d is neither float nor normalized: %w", accessorIndex, errAccessorType)
	}

	out := make([]float32, 0, l.acc.Count*l.components)
	for i := 0; i < l.acc.Count; i++ {
		for c := 0; c < l.components; c++ {
			out = append(out, decodeFloat(l.acc.ComponentType, l.component(i, c)))
		}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadUints(accessorIndex int, accessorType string) ([]uint32, error) {
	l, err := p.layout(accessorIndex, accessorType)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, 0, l.acc.Count*l.components)
	for i := 0; i < l.acc.Count; i++ {
		for c := 0; c < l.components; c++ {
			raw := l.component(i, c)
			switch l.acc.ComponentType {
			case gltfComponentTypeUnsignedByte:
				out = append(out, uint32(raw[0]))
			case gltfComponentTypeUnsignedShort:
				out = append(out, uint32(binary.LittleEndian.Uint16(raw)))
			case gltfComponentTypeUnsignedInt:
				out = append(out, binary.LittleEndian.Uint32(raw))
			default:
				return nil, fmt.Errorf("accessor %d component type %d is not unsigned: %w", accessorIndex, l.acc.ComponentType, errAccessorType)
			}
		}
	}
	return out, nil
}

// --- Helper Functions ---

// decodeDataURI decodes a base64 data URI of the form data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding %q: %w", header, errInvalidBufferURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// decodeFloat converts one component to float32, applying glTF normalization rules to integers.
func decodeFloat(componentType int, raw []byte) float32 {
	switch componentType {
	case gltfComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(raw))
	case gltfComponentTypeUnsignedByte:
		return float32(raw[0]) / 255
	case gltfComponentTypeUnsignedShort:
		return float32(binary.LittleEndian.Uint16(raw)) / 65535
	case gltfComponentTypeByte:
		return max(float32(int8(raw[0]))/127, -1)
	case gltfComponentTypeShort:
		return max(float32(int16(binary.LittleEndian.Uint16(raw)))/32767, -1)
	default:
		return 0
	}
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
