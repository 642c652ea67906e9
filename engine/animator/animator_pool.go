package animator

import (
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// animatorPool is the implementation of the AnimatorPool interface.
type animatorPool struct {
	// running is read-held for a whole UpdateAll so Stop waits for in-flight frames.
	running sync.RWMutex

	mu        sync.RWMutex
	animators map[uuid.UUID]Animator
	order     []uuid.UUID
	stopped   bool

	// workers manages a bounded set of reusable goroutines for the per-frame updates.
	workers    worker.DynamicWorkerPool
	numWorkers int
	queueSize  int

	profiler *profiler.Profiler
	logger   *log.Logger
}

// AnimatorPool updates many animators in parallel once per frame.
//
// Animators never share mutable state (clips are read-only), so each update runs as an
// independent task on a fixed worker pool. UpdateAll returns once every task has finished.
type AnimatorPool interface {
	// Add registers an animator under its ID.
	//
	// Parameters:
	//   - a: the animator to add
	//
	// Returns:
	//   - error: ErrNilAnimator, or ErrDuplicateID if the ID is already registered
	Add(a Animator) error

	// Remove unregisters an animator.
	//
	// Parameters:
	//   - id: the animator ID
	//
	// Returns:
	//   - bool: true if the animator was registered
	Remove(id uuid.UUID) bool

	// Get returns a registered animator.
	//
	// Parameters:
	//   - id: the animator ID
	//
	// Returns:
	//   - Animator: the animator, or nil
	//   - bool: true if found
	Get(id uuid.UUID) (Animator, bool)

	// Len returns the number of registered animators.
	//
	// Returns:
	//   - int: the animator count
	Len() int

	// UpdateAll advances every registered animator by elapsed seconds and blocks until all
	// of them are done. Animators are submitted in registration order.
	//
	// Parameters:
	//   - elapsed: seconds since the previous frame
	//
	// Returns:
	//   - int: the number of animators updated
	UpdateAll(elapsed float32) int

	// Stop waits for any in-flight UpdateAll to finish, then shuts the worker pool down.
	// UpdateAll is a no-op afterwards.
	Stop()
}

var _ AnimatorPool = &animatorPool{}

// NewAnimatorPool creates a new AnimatorPool with the specified options applied.
// Workers default to runtime.NumCPU()-1 (at least 1) and the task queue to config.DefaultQueueSize.
//
// Parameters:
//   - options: a variadic list of AnimatorPoolBuilderOption functions to configure the pool
//
// Returns:
//   - AnimatorPool: the running pool
func NewAnimatorPool(options ...AnimatorPoolBuilderOption) AnimatorPool {
	p := &animatorPool{
		animators:  make(map[uuid.UUID]Animator),
		numWorkers: max(runtime.NumCPU()-1, 1),
		queueSize:  config.DefaultQueueSize,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = core.Logger()
	}
	p.numWorkers = max(p.numWorkers, 1)
	p.queueSize = max(p.queueSize, 1)

	p.workers = worker.NewDynamicWorkerPool(p.numWorkers, p.queueSize, time.Second)
	return p
}

func (p *animatorPool) Add(a Animator) error {
	if a == nil {
		return ErrNilAnimator
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := a.ID()
	if _, ok := p.animators[id]; ok {
		return fmt.Errorf("animator %s: %w", id, ErrDuplicateID)
	}
	p.animators[id] = a
	p.order = append(p.order, id)
	return nil
}

func (p *animatorPool) Remove(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.animators[id]; !ok {
		return false
	}
	delete(p.animators, id)
	p.order = slices.DeleteFunc(p.order, func(o uuid.UUID) bool { return o == id })
	return true
}

func (p *animatorPool) Get(id uuid.UUID) (Animator, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.animators[id]
	return a, ok
}

func (p *animatorPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.animators)
}

func (p *animatorPool) UpdateAll(elapsed float32) int {
	p.running.RLock()
	defer p.running.RUnlock()

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return 0
	}
	batch := make([]Animator, 0, len(p.order))
	for _, id := range p.order {
		batch = append(batch, p.animators[id])
	}
	p.mu.RUnlock()

	start := time.Now()

	// per-frame barrier; workers stay alive between frames so pool.Wait() would not return
	var wg sync.WaitGroup
	for i, a := range batch {
		wg.Add(1)
		aCap := a
		p.workers.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				aCap.Update(elapsed)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if p.profiler != nil {
		p.profiler.Tick(len(batch), time.Since(start))
	}
	return len(batch)
}

func (p *animatorPool) Stop() {
	p.running.Lock()
	defer p.running.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.workers.Stop()
	p.logger.Debug("animator pool stopped", "animators", p.Len())
}
