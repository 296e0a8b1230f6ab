package frame

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/light"
	"go.uber.org/zap"
)

const (
	// DefaultWorkers is the number of interpolation workers.
	DefaultWorkers = 4

	// minParallelInstances is the instance count below which blending runs on the calling goroutine.
	minParallelInstances = 256
)

// Factor returns how far the render clock has moved past the newest frame, in ticks, clamped to [0, 1].
//
// Parameters:
//   - newer: the most recent frame
//   - now: the render time
//   - tick: the simulation tick duration
//
// Returns:
//   - float32: 0 draws the older frame, 1 draws the newer one
func Factor(newer *Frame, now time.Time, tick time.Duration) float32 {
	if newer == nil || tick <= 0 {
		return 1
	}
	return common.Clamp01(float32(now.Sub(newer.PublishedAt)) / float32(tick))
}

// BlendInstance interpolates the transform, scissor and viewport of an instance between two frames. Every
// other field comes from next.
func BlendInstance(prev, next Instance, t float32) Instance {
	out := next
	out.Desc.Transform = common.LerpMat4(prev.Desc.Transform, next.Desc.Transform, t)
	out.Desc.Scissor = prev.Desc.Scissor.Lerp(next.Desc.Scissor, t)
	out.Desc.Viewport = prev.Desc.Viewport.Lerp(next.Desc.Viewport, t)
	return out
}

// Result is a blended frame ready for submission.
type Result struct {
	Seq       uint64
	Factor    float32
	Camera    Camera
	Instances []Instance
	Lights    []light.Light
}

// Interpolator blends pairs of frames. Instances are matched by Key; instances only present in the newer
// frame, or opted out in either frame, are drawn as recorded. Display lists are blended in parallel on a
// worker pool when the frame is large enough.
//
// An Interpolator belongs to the render goroutine; the Result it returns is reused by the next Blend.
type Interpolator struct {
	pool    worker.DynamicWorkerPool
	workers int
	logger  *zap.Logger

	index  map[Key]int
	groups map[uint32][]int
	order  []uint32
	out    []Instance
	taskID int
}

// InterpolatorBuilderOption configures an Interpolator.
type InterpolatorBuilderOption func(*Interpolator)

// WithWorkers sets the number of pooled interpolation workers.
func WithWorkers(n int) InterpolatorBuilderOption {
	return func(ip *Interpolator) {
		if n > 0 {
			ip.workers = n
		}
	}
}

// WithInterpolatorLogger sets the interpolator's logger.
func WithInterpolatorLogger(logger *zap.Logger) InterpolatorBuilderOption {
	return func(ip *Interpolator) {
		ip.logger = logger
	}
}

// NewInterpolator creates an interpolator and its worker pool.
func NewInterpolator(opts ...InterpolatorBuilderOption) *Interpolator {
	ip := &Interpolator{
		workers: DefaultWorkers,
		logger:  zap.NewNop(),
		index:   make(map[Key]int),
		groups:  make(map[uint32][]int),
	}
	for _, opt := range opts {
		opt(ip)
	}
	ip.pool = worker.NewDynamicWorkerPool(ip.workers, 256, 1*time.Second)
	return ip
}

// Blend produces the frame to draw at factor t between older and newer. older may be nil, in which case
// newer is drawn as recorded.
//
// Parameters:
//   - older: the previous frame, or nil
//   - newer: the most recent frame
//   - t: the interpolation factor from Factor
//
// Returns:
//   - Result: the blended frame, valid until the next call
func (ip *Interpolator) Blend(older, newer *Frame, t float32) Result {
	ip.out = append(ip.out[:0], newer.Instances...)
	res := Result{
		Seq:       newer.Seq,
		Factor:    t,
		Camera:    newer.Camera,
		Instances: ip.out,
		Lights:    newer.Lights,
	}
	if older == nil {
		res.Factor = 1
		return res
	}
	res.Camera = older.Camera.Lerp(newer.Camera, t)

	clear(ip.index)
	for i := range older.Instances {
		ip.index[older.Instances[i].Key] = i
	}

	if len(newer.Instances) < minParallelInstances {
		for i := range ip.out {
			ip.blendOne(older, i, t)
		}
		return res
	}

	for k, v := range ip.groups {
		ip.groups[k] = v[:0]
	}
	ip.order = ip.order[:0]
	for i := range newer.Instances {
		dl := newer.Instances[i].Key.DisplayList
		if len(ip.groups[dl]) == 0 {
			ip.order = append(ip.order, dl)
		}
		ip.groups[dl] = append(ip.groups[dl], i)
	}

	// Each task writes a disjoint set of indices of ip.out and only reads the index map.
	var wg sync.WaitGroup
	for _, dl := range ip.order {
		indices := ip.groups[dl]
		wg.Add(1)
		id := ip.taskID
		ip.taskID++
		ip.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for _, i := range indices {
					ip.blendOne(older, i, t)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return res
}

func (ip *Interpolator) blendOne(older *Frame, i int, t float32) {
	next := ip.out[i]
	if !next.Interpolate {
		return
	}
	j, ok := ip.index[next.Key]
	if !ok {
		return
	}
	prev := older.Instances[j]
	if !prev.Interpolate {
		return
	}
	ip.out[i] = BlendInstance(prev, next, t)
}
