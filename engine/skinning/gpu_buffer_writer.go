package skinning

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWriter is the destination of bone matrix uploads.
type BufferWriter interface {
	// WriteBuffer copies data into the buffer at offset.
	//
	// Parameters:
	//   - offset: the byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrWriteOutOfRange if the write does not fit, or ErrReleased
	WriteBuffer(offset uint64, data []byte) error

	// Size returns the buffer capacity in bytes.
	//
	// Returns:
	//   - uint64: the capacity
	Size() uint64

	// Release frees the underlying resources. Further writes fail with ErrReleased.
	Release()
}

// gpuBufferWriter is the implementation of the GPUBufferWriter interface.
type gpuBufferWriter struct {
	mu     sync.Mutex
	queue  *wgpu.Queue
	buffer *wgpu.Buffer
	size   uint64
}

// GPUBufferWriter is a BufferWriter backed by a wgpu uniform buffer.
type GPUBufferWriter interface {
	BufferWriter

	// Buffer returns the wgpu buffer for binding into a bind group.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, nil after Release
	Buffer() *wgpu.Buffer
}

var _ GPUBufferWriter = &gpuBufferWriter{}

// NewGPUBufferWriter creates a uniform buffer large enough for slots animators with maxBones
// matrices each.
//
// Parameters:
//   - device: the wgpu device used to create the buffer
//   - queue: the queue buffer writes are submitted to
//   - label: the debug label of the buffer
//   - maxBones: the bone matrix count per animator
//   - slots: the number of animators the buffer holds
//
// Returns:
//   - GPUBufferWriter: the writer
//   - error: an error if the buffer could not be created
func NewGPUBufferWriter(device *wgpu.Device, queue *wgpu.Queue, label string, maxBones, slots int) (GPUBufferWriter, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if maxBones <= 0 || slots <= 0 {
		return nil, fmt.Errorf("max bones %d, slots %d: %w", maxBones, slots, ErrInvalidCapacity)
	}

	size := uint64(SlotStride(maxBones)) * uint64(slots)
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Bone Matrix Buffer",
		Size:             size,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("create bone matrix buffer: %w", err)
	}

	return &gpuBufferWriter{queue: queue, buffer: buf, size: size}, nil
}

func (w *gpuBufferWriter) WriteBuffer(offset uint64, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buffer == nil {
		return ErrReleased
	}
	if offset+uint64(len(data)) > w.size {
		return fmt.Errorf("write of %d bytes at %d into %d: %w", len(data), offset, w.size, ErrWriteOutOfRange)
	}
	w.queue.WriteBuffer(w.buffer, offset, data)
	return nil
}

func (w *gpuBufferWriter) Size() uint64 {
	return w.size
}

func (w *gpuBufferWriter) Buffer() *wgpu.Buffer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

func (w *gpuBufferWriter) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buffer != nil {
		w.buffer.Release()
		w.buffer = nil
	}
}
