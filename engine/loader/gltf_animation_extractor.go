package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/charmbracelet/log"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
	names  []string
	logger *log.Logger
}

// gltfAnimationExtractor converts glTF animations into ImportedAnimations keyed by node name.
//
// Channels targeting the same node are merged into one ImportedChannel. A node animated on
// only some paths gets a single bind-pose key for the others, so every channel carries all
// three key sets.
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - model.ImportedAnimation: the animation, in seconds (TicksPerSecond 1)
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int) (model.ImportedAnimation, error)

	// ExtractAllAnimations extracts every animation from the document, in document order.
	//
	// Returns:
	//   - []model.ImportedAnimation: all extracted animations
	//   - error: error if extraction fails
	ExtractAllAnimations() ([]model.ImportedAnimation, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//   - names: node names indexed by node
//   - logger: receives warnings about unsupported interpolation
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser, names []string, logger *log.Logger) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser, names: names, logger: logger}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (model.ImportedAnimation, error) {
	doc := e.parser.Document()
	if doc == nil {
		return model.ImportedAnimation{}, errNoDocument
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return model.ImportedAnimation{}, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]
	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	channelMap := make(map[int]*model.ImportedChannel)
	var order []int
	var maxTime float32

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Morph target weights and channels without a node are not skeletal.
		if ch.Target.Node == nil || ch.Target.Path == "weights" {
			continue
		}
		nodeIndex := *ch.Target.Node
		if nodeIndex < 0 || nodeIndex >= len(e.names) {
			return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: node %d out of range", name, i, nodeIndex)
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		switch sampler.Interpolation {
		case "", gltfInterpolationLinear, gltfInterpolationCubicSpline:
		case gltfInterpolationStep:
			e.logger.Warn("STEP interpolation loaded as linear", "animation", name, "node", e.names[nodeIndex])
		default:
			return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: unknown interpolation %q", name, i, sampler.Interpolation)
		}

		times, err := e.parser.ReadFloats(sampler.Input, gltfAccessorTypeScalar)
		if err != nil {
			return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		if len(times) > 0 {
			maxTime = max(maxTime, times[len(times)-1])
		}

		animCh, ok := channelMap[nodeIndex]
		if !ok {
			animCh = &model.ImportedChannel{NodeName: e.names[nodeIndex]}
			channelMap[nodeIndex] = animCh
			order = append(order, nodeIndex)
		}

		cubic := sampler.Interpolation == gltfInterpolationCubicSpline
		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			values, err := e.readOutput(sampler.Output, gltfAccessorTypeVec3, len(times), cubic)
			if err != nil {
				return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: %w", name, i, err)
			}
			keys := make([]model.VectorKeyframe, len(times))
			for j := range keys {
				keys[j] = model.VectorKeyframe{Time: times[j], Value: [3]float32{values[j*3], values[j*3+1], values[j*3+2]}}
			}
			if ch.Target.Path == gltfAnimPathTranslation {
				animCh.PositionKeys = keys
			} else {
				animCh.ScaleKeys = keys
			}

		case gltfAnimPathRotation:
			values, err := e.readOutput(sampler.Output, gltfAccessorTypeVec4, len(times), cubic)
			if err != nil {
				return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: %w", name, i, err)
			}
			keys := make([]model.QuaternionKeyframe, len(times))
			for j := range keys {
				keys[j] = model.QuaternionKeyframe{Time: times[j], Value: [4]float32{values[j*4], values[j*4+1], values[j*4+2], values[j*4+3]}}
			}
			animCh.RotationKeys = keys

		default:
			return model.ImportedAnimation{}, fmt.Errorf("animation %q channel %d: unknown target path %q", name, i, ch.Target.Path)
		}
	}

	channels := make([]model.ImportedChannel, 0, len(order))
	for _, nodeIndex := range order {
		ch := channelMap[nodeIndex]
		e.fillBindPose(ch, &doc.Nodes[nodeIndex])
		channels = append(channels, *ch)
	}

	return model.ImportedAnimation{
		Name:           name,
		Duration:       maxTime,
		TicksPerSecond: 1,
		Channels:       channels,
	}, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]model.ImportedAnimation, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	anims := make([]model.ImportedAnimation, len(doc.Animations))
	for i := range doc.Animations {
		anim, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		anims[i] = anim
	}
	return anims, nil
}

// readOutput reads a sampler output with count elements. CUBICSPLINE outputs store
// (in-tangent, value, out-tangent) triples; only the value is kept.
func (e *gltfAnimationExtractorImpl) readOutput(accessor int, accessorType string, count int, cubic bool) ([]float32, error) {
	values, err := e.parser.ReadFloats(accessor, accessorType)
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	width := gltfAccessorTypeComponentCount(accessorType)
	if !cubic {
		if len(values) < count*width {
			return nil, fmt.Errorf("%d keyframe times but %d values", count, len(values)/width)
		}
		return values, nil
	}

	if len(values) < count*3*width {
		return nil, fmt.Errorf("%d cubic spline keyframe times but %d elements", count, len(values)/width)
	}
	out := make([]float32, count*width)
	for j := range count {
		copy(out[j*width:(j+1)*width], values[(3*j+1)*width:(3*j+2)*width])
	}
	return out, nil
}

// fillBindPose gives every empty key set of ch a single key holding the node's bind pose.
func (e *gltfAnimationExtractorImpl) fillBindPose(ch *model.ImportedChannel, node *gltfNode) {
	if len(ch.PositionKeys) > 0 && len(ch.RotationKeys) > 0 && len(ch.ScaleKeys) > 0 {
		return
	}

	t, r, s := common.DecomposeTRS(gltfNodeLocalTransform(node))
	if len(ch.PositionKeys) == 0 {
		ch.PositionKeys = []model.VectorKeyframe{{Time: 0, Value: t}}
	}
	if len(ch.RotationKeys) == 0 {
		ch.RotationKeys = []model.QuaternionKeyframe{{Time: 0, Value: r}}
	}
	if len(ch.ScaleKeys) == 0 {
		ch.ScaleKeys = []model.VectorKeyframe{{Time: 0, Value: s}}
	}
}
