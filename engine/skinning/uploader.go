// Package skinning moves animator output into GPU memory for the skinning vertex shader.
package skinning

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	// matrixSize is the byte size of one column-major 4x4 float32 matrix.
	matrixSize = 64
	// SlotAlignment is the WebGPU default minUniformBufferOffsetAlignment.
	SlotAlignment = 256
)

var (
	ErrNoDevice        = errors.New("wgpu device and queue are required")
	ErrInvalidCapacity = errors.New("bone and slot counts must be positive")
	ErrWriteOutOfRange = errors.New("write exceeds buffer size")
	ErrReleased        = errors.New("buffer has been released")
	ErrNoFreeSlot      = errors.New("no free slot in bone matrix buffer")
	ErrSizeMismatch    = errors.New("matrix data does not match slot size")
)

// Source is anything that produces versioned bone matrices. animator.Animator satisfies it.
type Source interface {
	ID() uuid.UUID
	Generation() uint64
	FinalBoneMatricesBytes() []byte
}

// SlotSize returns the byte size of one animator's matrix array.
func SlotSize(maxBones int) int {
	return maxBones * matrixSize
}

// SlotStride returns the distance between two slots, SlotSize rounded up to SlotAlignment
// so every slot offset is usable as a dynamic uniform buffer offset.
func SlotStride(maxBones int) int {
	return (SlotSize(maxBones) + SlotAlignment - 1) / SlotAlignment * SlotAlignment
}

type slot struct {
	index      int
	generation uint64
	uploaded   bool
}

// uploader is the implementation of the Uploader interface.
type uploader struct {
	mu       sync.Mutex
	writer   BufferWriter
	maxBones int
	slots    map[uuid.UUID]*slot
	free     []int
	next     int
	capacity int
	logger   *log.Logger
}

// Uploader copies bone matrices into a shared buffer, one fixed-size slot per animator.
//
// Each animator is assigned a slot the first time it is uploaded. A write only happens
// when the animator's generation differs from the one last written for it, so idle or
// paused animators cost nothing per frame.
type Uploader interface {
	// Upload writes src's matrices if they changed since its last upload.
	//
	// Parameters:
	//   - src: the animator to upload
	//
	// Returns:
	//   - bool: true if a write was issued
	//   - error: ErrNoFreeSlot, ErrSizeMismatch, or a writer error
	Upload(src Source) (bool, error)

	// Offset returns the byte offset of an animator's slot, for dynamic bind group offsets.
	//
	// Parameters:
	//   - id: the animator ID
	//
	// Returns:
	//   - uint64: the byte offset
	//   - bool: true if the animator has a slot
	Offset(id uuid.UUID) (uint64, bool)

	// Forget frees an animator's slot for reuse.
	//
	// Parameters:
	//   - id: the animator ID
	Forget(id uuid.UUID)

	// Release releases the underlying writer.
	Release()
}

var _ Uploader = &uploader{}

// NewUploader creates an Uploader over writer. The writer's size determines how many slots
// of maxBones matrices fit.
//
// Parameters:
//   - writer: the destination buffer
//   - maxBones: the matrix count per animator, matching Animator.MaxBones
//   - options: a variadic list of UploaderBuilderOption functions
//
// Returns:
//   - Uploader: the uploader
//   - error: ErrInvalidCapacity if the writer cannot hold a single slot
func NewUploader(writer BufferWriter, maxBones int, options ...UploaderBuilderOption) (Uploader, error) {
	if writer == nil || maxBones <= 0 {
		return nil, ErrInvalidCapacity
	}
	capacity := int(writer.Size() / uint64(SlotStride(maxBones)))
	if capacity == 0 {
		return nil, fmt.Errorf("buffer of %d bytes for %d bones: %w", writer.Size(), maxBones, ErrInvalidCapacity)
	}

	u := &uploader{
		writer:   writer,
		maxBones: maxBones,
		slots:    make(map[uuid.UUID]*slot),
		capacity: capacity,
	}
	for _, opt := range options {
		opt(u)
	}
	if u.logger == nil {
		u.logger = core.Logger()
	}
	return u, nil
}

func (u *uploader) Upload(src Source) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	id := src.ID()
	gen := src.Generation()

	s, ok := u.slots[id]
	if ok && s.uploaded && s.generation == gen {
		return false, nil
	}

	data := src.FinalBoneMatricesBytes()
	if len(data) != SlotSize(u.maxBones) {
		return false, fmt.Errorf("animator %s sent %d bytes, slot holds %d: %w", id, len(data), SlotSize(u.maxBones), ErrSizeMismatch)
	}

	if !ok {
		idx, err := u.allocate()
		if err != nil {
			return false, fmt.Errorf("animator %s: %w", id, err)
		}
		s = &slot{index: idx}
		u.slots[id] = s
		u.logger.Debug("assigned bone matrix slot", "animator", id, "slot", idx)
	}

	if err := u.writer.WriteBuffer(u.offset(s.index), data); err != nil {
		return false, err
	}
	s.generation = gen
	s.uploaded = true
	return true, nil
}

func (u *uploader) Offset(id uuid.UUID) (uint64, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	s, ok := u.slots[id]
	if !ok {
		return 0, false
	}
	return u.offset(s.index), true
}

func (u *uploader) Forget(id uuid.UUID) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if s, ok := u.slots[id]; ok {
		delete(u.slots, id)
		u.free = append(u.free, s.index)
	}
}

func (u *uploader) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.writer.Release()
	clear(u.slots)
	u.free = nil
	u.next = 0
}

// --- Helper Functions ---

func (u *uploader) allocate() (int, error) {
	if n := len(u.free); n > 0 {
		idx := u.free[n-1]
		u.free = u.free[:n-1]
		return idx, nil
	}
	if u.next >= u.capacity {
		return 0, ErrNoFreeSlot
	}
	idx := u.next
	u.next++
	return idx, nil
}

func (u *uploader) offset(index int) uint64 {
	return uint64(index) * uint64(SlotStride(u.maxBones))
}
