package skinning

import (
	"fmt"
	"sync"
)

// BufferWrite describes a single pending buffer write at a given byte offset.
type BufferWrite struct {
	Offset uint64
	Data   []byte
}

// stagingBufferWriter is the implementation of the StagingBufferWriter interface.
type stagingBufferWriter struct {
	mu       sync.Mutex
	mirror   []byte
	pending  []BufferWrite
	released bool
}

// StagingBufferWriter is a CPU-side BufferWriter. It keeps a mirror of the buffer contents
// and queues every write until Flush replays them into another writer, typically a
// GPUBufferWriter owned by the render thread.
type StagingBufferWriter interface {
	BufferWriter

	// Bytes returns a copy of the mirrored buffer contents.
	//
	// Returns:
	//   - []byte: Size() bytes
	Bytes() []byte

	// Pending returns the number of queued writes.
	Pending() int

	// Flush replays the queued writes into dst in submission order and clears the queue.
	// Writes that fail stay queued.
	//
	// Parameters:
	//   - dst: the destination writer
	//
	// Returns:
	//   - int: the number of writes replayed
	//   - error: the first error returned by dst
	Flush(dst BufferWriter) (int, error)
}

var _ StagingBufferWriter = &stagingBufferWriter{}

// NewStagingBufferWriter creates a staging buffer for slots animators with maxBones matrices each.
//
// Parameters:
//   - maxBones: the bone matrix count per animator
//   - slots: the number of animators the buffer holds
//
// Returns:
//   - StagingBufferWriter: the writer
//   - error: ErrInvalidCapacity if either count is not positive
func NewStagingBufferWriter(maxBones, slots int) (StagingBufferWriter, error) {
	if maxBones <= 0 || slots <= 0 {
		return nil, fmt.Errorf("max bones %d, slots %d: %w", maxBones, slots, ErrInvalidCapacity)
	}
	return &stagingBufferWriter{mirror: make([]byte, SlotStride(maxBones)*slots)}, nil
}

func (w *stagingBufferWriter) WriteBuffer(offset uint64, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return ErrReleased
	}
	if offset+uint64(len(data)) > uint64(len(w.mirror)) {
		return fmt.Errorf("write of %d bytes at %d into %d: %w", len(data), offset, len(w.mirror), ErrWriteOutOfRange)
	}

	copy(w.mirror[offset:], data)
	w.pending = append(w.pending, BufferWrite{Offset: offset, Data: append([]byte(nil), data...)})
	return nil
}

func (w *stagingBufferWriter) Size() uint64 {
	return uint64(len(w.mirror))
}

func (w *stagingBufferWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.mirror...)
}

func (w *stagingBufferWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *stagingBufferWriter) Flush(dst BufferWriter) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, bw := range w.pending {
		if err := dst.WriteBuffer(bw.Offset, bw.Data); err != nil {
			w.pending = w.pending[i:]
			return i, err
		}
	}
	n := len(w.pending)
	w.pending = nil
	return n, nil
}

func (w *stagingBufferWriter) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.released = true
	w.pending = nil
}
