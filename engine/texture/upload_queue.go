package texture

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-rt/common"
)

// Upload is pixel data waiting to become the backend texture of a table entry.
type Upload struct {
	ID   uint32
	Data common.TextureStagingData
}

// UploadQueue hands uploads from the simulation side to the render side under its own lock.
type UploadQueue struct {
	mu      sync.Mutex
	pending []Upload
}

// Push queues an upload. The pixels are copied so the caller may reuse its buffer.
func (q *UploadQueue) Push(id uint32, rgba []byte, width, height uint32) {
	pixels := make([]byte, len(rgba))
	copy(pixels, rgba)
	q.mu.Lock()
	q.pending = append(q.pending, Upload{
		ID:   id,
		Data: common.TextureStagingData{Pixels: pixels, Width: width, Height: height},
	})
	q.mu.Unlock()
}

// Drain removes and returns every queued upload in submission order.
func (q *UploadQueue) Drain() []Upload {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of queued uploads.
func (q *UploadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
