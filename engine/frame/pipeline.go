package frame

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"go.uber.org/zap"
)

// DefaultSlots is the number of frames allocated up front: one being written and the two the render side
// blends between.
const DefaultSlots = 3

// Pipeline hands completed frames from the simulation goroutine to the render goroutine.
//
// The simulation side never blocks. It writes into a frame taken from the free list and publishes it, which
// retires the older of the two frames the render side blends between. If the render side has pinned every
// spare frame, Acquire allocates a new one and the pool grows. Growth is bounded: at most two frames are
// published, two more are pinned by a Present still running, and one is being written, so the pool never
// exceeds five frames or the preallocated count, whichever is larger. A published frame the render side never saw as its newest is counted as dropped.
type Pipeline struct {
	mu     sync.Mutex
	clock  timing.Clock
	logger *zap.Logger

	slots int
	free  []*Frame
	all   []*Frame

	older, newer *Frame
	newerSeen    bool
	seq          uint64
}

// PipelineBuilderOption configures a Pipeline.
type PipelineBuilderOption func(*Pipeline)

// WithSlots sets the number of frames allocated up front. Values below DefaultSlots are raised to it.
func WithSlots(n int) PipelineBuilderOption {
	return func(p *Pipeline) {
		if n > DefaultSlots {
			p.slots = n
		}
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(logger *zap.Logger) PipelineBuilderOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline with its frames preallocated.
//
// Parameters:
//   - clock: stamps published frames; nil uses the wall clock
//   - opts: builder options
//
// Returns:
//   - *Pipeline: the pipeline
func NewPipeline(clock timing.Clock, opts ...PipelineBuilderOption) *Pipeline {
	if clock == nil {
		clock = timing.RealClock{}
	}
	p := &Pipeline{
		clock:  clock,
		logger: zap.NewNop(),
		slots:  DefaultSlots,
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < p.slots; i++ {
		p.free = append(p.free, p.allocate())
	}
	return p
}

func (p *Pipeline) allocate() *Frame {
	f := &Frame{pooled: true}
	p.all = append(p.all, f)
	f.Reset()
	return f
}

// Acquire returns an empty frame for the simulation side to record into.
func (p *Pipeline) Acquire() *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	var f *Frame
	if n := len(p.free); n > 0 {
		f = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		f = p.allocate()
		p.logger.Warn("frame pool grown", zap.Int("frames", len(p.all)), zap.Int("preallocated", p.slots))
	}
	f.pooled = false
	f.Reset()
	return f
}

// Publish makes f the newest frame and stamps it with the current time. f must come from Acquire and must
// not be touched by the caller afterwards.
func (p *Pipeline) Publish(f *Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	f.Seq = p.seq
	f.PublishedAt = p.clock.Now()

	if p.newer != nil && !p.newerSeen {
		metrics.Frames.WithLabelValues("dropped").Inc()
	}
	metrics.Frames.WithLabelValues("published").Inc()

	retired := p.older
	p.older, p.newer = p.newer, f
	p.newerSeen = false
	p.recycleLocked(retired)
}

// Latest pins and returns the two most recent frames. older is nil until two frames have been published and
// both are nil before the first. The frames stay valid until release is called.
func (p *Pipeline) Latest() (older, newer *Frame, release func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	older, newer = p.older, p.newer
	if newer != nil && !p.newerSeen {
		p.newerSeen = true
		metrics.Frames.WithLabelValues("consumed").Inc()
	}
	for _, f := range []*Frame{older, newer} {
		if f != nil {
			f.pins++
		}
	}

	var once sync.Once
	release = func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for _, f := range []*Frame{older, newer} {
				if f != nil {
					f.pins--
					p.recycleLocked(f)
				}
			}
		})
	}
	return older, newer, release
}

// recycleLocked returns f to the free list once nothing references it.
func (p *Pipeline) recycleLocked(f *Frame) {
	if f == nil || f.pooled || f.pins > 0 || f == p.older || f == p.newer {
		return
	}
	f.pooled = true
	p.free = append(p.free, f)
}

// Frames returns the number of frames the pipeline has allocated.
func (p *Pipeline) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all)
}

// OldestLiveSeq returns the sequence of the oldest published frame the render side may still read: the two
// latest frames and any frame a Present has pinned. ok is false before the first publish.
func (p *Pipeline) OldestLiveSeq() (seq uint64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.all {
		if f.Seq == 0 || (f.pins == 0 && f != p.older && f != p.newer) {
			continue
		}
		if !ok || f.Seq < seq {
			seq, ok = f.Seq, true
		}
	}
	return seq, ok
}

// Discard forgets the published frames, as happens at shutdown or when the scene is torn down.
func (p *Pipeline) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	older, newer := p.older, p.newer
	p.older, p.newer = nil, nil
	p.newerSeen = false
	p.recycleLocked(older)
	p.recycleLocked(newer)
}
