package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-rig/engine/core"
	"github.com/charmbracelet/log"
)

// Profiler tracks animation update throughput and memory statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu             sync.Mutex
	logger         *log.Logger
	now            func() time.Time
	frameCount     int
	updated        int
	spent          time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are logged.
//
// Parameters:
//   - d: the logging interval, ignored if not positive
//
// Returns:
//   - ProfilerOption: a function that applies the interval option to a profiler
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source. Tests use it to step time deterministically.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerOption: a function that applies the clock option to a profiler
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a new Profiler writing to logger.
// Update interval defaults to 1 second.
//
// Parameters:
//   - logger: the destination for statistics lines
//   - options: a variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *log.Logger, options ...ProfilerOption) *Profiler {
	if logger == nil {
		logger = core.Logger()
	}
	p := &Profiler{
		logger:         logger.WithPrefix("profiler"),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame after the animators have been updated.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: frame rate, animators updated per second, average update time,
// heap usage, allocation rate and GC count/pause times.
//
// Parameters:
//   - updated: the number of animators updated this frame
//   - spent: the wall time the frame's updates took
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(updated int, spent time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	p.updated += updated
	p.spent += spent

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	updatesPerSec := float64(p.updated) / elapsed.Seconds()
	avgFrame := p.spent / time.Duration(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("frame stats",
		"fps", fps,
		"updates_per_sec", updatesPerSec,
		"avg_update", avgFrame,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.updated = 0
	p.spent = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
