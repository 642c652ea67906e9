package animator

import (
	"github.com/Carmen-Shannon/oxy-rig/engine/config"
	"github.com/Carmen-Shannon/oxy-rig/engine/profiler"
	"github.com/charmbracelet/log"
)

// AnimatorPoolBuilderOption is a functional option for configuring an AnimatorPool via NewAnimatorPool.
type AnimatorPoolBuilderOption func(*animatorPool)

// WithPoolWorkers sets the number of worker goroutines used by UpdateAll.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - AnimatorPoolBuilderOption: a function that applies the workers option to a pool
func WithPoolWorkers(n int) AnimatorPoolBuilderOption {
	return func(p *animatorPool) {
		p.numWorkers = n
	}
}

// WithPoolQueueSize sets the task queue depth.
//
// Parameters:
//   - n: the queue depth (minimum 1)
//
// Returns:
//   - AnimatorPoolBuilderOption: a function that applies the queue size option to a pool
func WithPoolQueueSize(n int) AnimatorPoolBuilderOption {
	return func(p *animatorPool) {
		p.queueSize = n
	}
}

// WithPoolConfig applies the worker and queue settings of cfg.
//
// Parameters:
//   - cfg: the engine configuration
//
// Returns:
//   - AnimatorPoolBuilderOption: a function that applies the config option to a pool
func WithPoolConfig(cfg config.Config) AnimatorPoolBuilderOption {
	return func(p *animatorPool) {
		p.numWorkers = cfg.Workers
		p.queueSize = cfg.QueueSize
	}
}

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger *log.Logger) AnimatorPoolBuilderOption {
	return func(p *animatorPool) {
		p.logger = logger
	}
}

// WithPoolProfiler attaches a profiler that is ticked after every UpdateAll.
func WithPoolProfiler(prof *profiler.Profiler) AnimatorPoolBuilderOption {
	return func(p *animatorPool) {
		p.profiler = prof
	}
}
