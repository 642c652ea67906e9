package animator

import (
	"io"
	"sync"

	"github.com/Carmen-Shannon/oxy-rig/common"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/Carmen-Shannon/oxy-rig/engine/model"
	"github.com/charmbracelet/log"
	"github.com/chewxy/math32"
	"github.com/google/uuid"
)

// animator is the implementation of the Animator interface.
type animator struct {
	mu sync.RWMutex

	id                uuid.UUID
	clip              *AnimationClip
	currentTime       float32
	maxBones          int
	finalBoneMatrices [][16]float32
	generation        uint64
	logger            *log.Logger

	// bones whose out-of-range index was already reported, so a bad asset warns once
	warned map[string]struct{}
}

// Animator plays one AnimationClip and produces the final bone matrices for a skinned mesh.
//
// Each Update advances playback, walks the clip's hierarchy from the root and writes
// parentWorld * local * offset into the slot of every node the clip's registry knows.
// Slots the walk does not reach keep their previous value, starting at identity, so a
// mesh without a clip renders in its bind pose.
//
// An Animator is safe for concurrent use. Distinct animators may share one clip.
type Animator interface {
	// ID returns the identifier assigned at construction.
	//
	// Returns:
	//   - uuid.UUID: the animator ID
	ID() uuid.UUID

	// Update advances playback by elapsed seconds and recomputes the final bone matrices.
	// The time advances by clip.TicksPerSecond * elapsed and wraps at clip.Duration.
	// No-op without a clip. Negative or non-finite elapsed values are ignored.
	//
	// Parameters:
	//   - elapsed: seconds since the previous update
	Update(elapsed float32)

	// SetClip binds a clip and rewinds playback to 0. A nil clip unbinds the current one;
	// the bone matrices keep their last values.
	//
	// Parameters:
	//   - clip: the clip to play, or nil
	SetClip(clip *AnimationClip)

	// Clip returns the bound clip.
	//
	// Returns:
	//   - *AnimationClip: the clip, or nil
	Clip() *AnimationClip

	// CurrentTime returns the playback position in ticks, in [0, Duration).
	//
	// Returns:
	//   - float32: the playback time
	CurrentTime() float32

	// SetCurrentTime seeks to t ticks, wrapped into [0, Duration). The bone matrices are
	// not recomputed until the next Update.
	//
	// Parameters:
	//   - t: the playback time in ticks
	SetCurrentTime(t float32)

	// FinalBoneMatrices returns a copy of the bone matrix array. Its length is always MaxBones.
	//
	// Returns:
	//   - [][16]float32: the bone matrices, indexed by registry bone index
	FinalBoneMatrices() [][16]float32

	// FinalBoneMatricesBytes returns the bone matrices packed for a GPU uniform buffer.
	//
	// Returns:
	//   - []byte: MaxBones column-major matrices, 64 bytes each
	FinalBoneMatricesBytes() []byte

	// MaxBones returns the bone matrix array length.
	//
	// Returns:
	//   - int: the capacity
	MaxBones() int

	// Generation returns a counter incremented by every Update that recomputed the matrices.
	// Consumers compare it with the value they last saw to skip redundant uploads.
	//
	// Returns:
	//   - uint64: the generation
	Generation() uint64

	// DumpHierarchy writes the bound clip's rig hierarchy to w, marking registered bones.
	//
	// Parameters:
	//   - w: the destination
	//
	// Returns:
	//   - error: ErrNoClip if no clip is bound, or a write error
	DumpHierarchy(w io.Writer) error
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the specified options applied.
// Without WithMaxBones the matrix array holds config.DefaultMaxBones entries, all identity.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: a new instance of Animator configured with the provided options
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		maxBones: config.DefaultMaxBones,
		warned:   make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(a)
	}
	if a.id == uuid.Nil {
		a.id = uuid.New()
	}
	if a.logger == nil {
		a.logger = core.Logger()
	}
	if a.maxBones <= 0 {
		a.maxBones = config.DefaultMaxBones
	}

	a.finalBoneMatrices = make([][16]float32, a.maxBones)
	for i := range a.finalBoneMatrices {
		a.finalBoneMatrices[i] = common.Identity4()
	}

	if a.clip != nil && a.clip.Registry().Len() > a.maxBones {
		a.logger.Warn("clip has more bones than the matrix array holds",
			"clip", a.clip.Name, "bones", a.clip.Registry().Len(), "max_bones", a.maxBones)
	}
	return a
}

func (a *animator) ID() uuid.UUID {
	return a.id
}

func (a *animator) Update(elapsed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.clip == nil {
		return
	}
	if !common.IsFinite(elapsed) || elapsed < 0 {
		a.logger.Debug("ignoring invalid elapsed time", "animator", a.id, "elapsed", elapsed)
		return
	}

	a.currentTime = wrapTime(a.currentTime+a.clip.TicksPerSecond*elapsed, a.clip.Duration)
	a.propagate(a.clip.Root, common.Identity4())
	a.generation++
}

// propagate walks node and its descendants, composing world transforms from parent.
func (a *animator) propagate(node *model.HierarchyNode, parent [16]float32) {
	local := node.LocalTransform
	if track := a.clip.Track(node.Name); track != nil {
		local = track.Transform(a.currentTime)
	}
	world := common.Mul4(parent, local)

	if entry, ok := a.clip.Registry().Lookup(node.Name); ok {
		if entry.Index >= 0 && entry.Index < len(a.finalBoneMatrices) {
			a.finalBoneMatrices[entry.Index] = common.Mul4(world, entry.Offset)
		} else if _, seen := a.warned[node.Name]; !seen {
			a.warned[node.Name] = struct{}{}
			a.logger.Warn("bone index out of range, skipping",
				"animator", a.id, "bone", node.Name, "index", entry.Index, "max_bones", len(a.finalBoneMatrices))
		}
	}

	for _, child := range node.Children {
		a.propagate(child, world)
	}
}

func (a *animator) SetClip(clip *AnimationClip) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clip = clip
	a.currentTime = 0
	clear(a.warned)
	if clip != nil && clip.Registry().Len() > a.maxBones {
		a.logger.Warn("clip has more bones than the matrix array holds",
			"clip", clip.Name, "bones", clip.Registry().Len(), "max_bones", a.maxBones)
	}
}

func (a *animator) Clip() *AnimationClip {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.clip
}

func (a *animator) CurrentTime() float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentTime
}

func (a *animator) SetCurrentTime(t float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !common.IsFinite(t) {
		return
	}
	if a.clip == nil {
		a.currentTime = max(t, 0)
		return
	}
	a.currentTime = wrapTime(t, a.clip.Duration)
}

func (a *animator) FinalBoneMatrices() [][16]float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([][16]float32, len(a.finalBoneMatrices))
	copy(out, a.finalBoneMatrices)
	return out
}

func (a *animator) FinalBoneMatricesBytes() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return model.MarshalMatrices(a.finalBoneMatrices)
}

func (a *animator) MaxBones() int {
	return a.maxBones
}

func (a *animator) Generation() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.generation
}

func (a *animator) DumpHierarchy(w io.Writer) error {
	a.mu.RLock()
	clip := a.clip
	a.mu.RUnlock()

	if clip == nil {
		return ErrNoClip
	}
	return clip.Root.Dump(w, clip.Registry())
}

// --- Helper Functions ---

// wrapTime folds t into [0, duration). A non-positive duration pins time to 0.
func wrapTime(t, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = math32.Mod(t, duration)
	if t < 0 {
		t += duration
	}
	if t >= duration {
		return 0
	}
	return t
}
