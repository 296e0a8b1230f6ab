package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// StatsFunc returns extra fields to log with each report, such as instance and light counts.
type StatsFunc func() []zap.Field

// Profiler tracks frame rate, frame time and memory statistics and logs them at a fixed interval.
type Profiler struct {
	logger         *zap.Logger
	stats          StatsFunc
	frameCount     int
	slowest        time.Duration
	lastFrame      time.Time
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerBuilderOption configures a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger reports are written to.
func WithLogger(logger *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithInterval sets how often a report is logged.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithStats adds fields from fn to every report.
func WithStats(fn StatsFunc) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.stats = fn
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	now := time.Now()
	p := &Profiler{
		logger:         zap.NewNop(),
		lastTime:       now,
		lastFrame:      now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick should be called once per presented frame. It logs FPS, the slowest frame, heap usage, allocation
// rate, GC count and pause times once the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	return p.tick(time.Now())
}

func (p *Profiler) tick(now time.Time) bool {
	p.frameCount++
	if d := now.Sub(p.lastFrame); d > p.slowest {
		p.slowest = d
	}
	p.lastFrame = now

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	fields := []zap.Field{
		zap.Float64("fps", fps),
		zap.Duration("avg_frame", elapsed/time.Duration(p.frameCount)),
		zap.Duration("slowest_frame", p.slowest),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Duration("gc_last_pause", lastPause),
		zap.Duration("gc_max_pause", maxPause),
		zap.Float64("sys_mb", sysMB),
	}
	if p.stats != nil {
		fields = append(fields, p.stats()...)
	}
	p.logger.Info("profiler", fields...)

	p.frameCount = 0
	p.slowest = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
