package delivery

import (
	"sync"

	"github.com/telhawk-systems/telhawk-fim/internal/metrics"
	"github.com/telhawk-systems/telhawk-fim/internal/models"
)

// Queue is a bounded FIFO of pending collector payloads, shared between the
// poll loop (producer) and the sender goroutine (consumer).
//
// Enqueue never blocks: at capacity the oldest payload is evicted before
// the new one is inserted. Bounded staleness is preferred over unbounded
// memory growth or stalling the poll loop.
type Queue struct {
	mu       sync.Mutex
	items    []models.CollectorEvent
	capacity int
}

// NewQueue creates a queue with the given maximum size. Size must be at
// least 1.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	metrics.QueueCapacity.Set(float64(capacity))
	return &Queue{
		items:    make([]models.CollectorEvent, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue inserts a payload, evicting the oldest one first when the queue
// is full. It returns the evicted payload and whether an eviction happened.
func (q *Queue) Enqueue(evt models.CollectorEvent) (models.CollectorEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dropped models.CollectorEvent
	var didDrop bool
	if len(q.items) >= q.capacity {
		dropped = q.items[0]
		q.items = q.items[1:]
		didDrop = true
		metrics.QueueDropped.Inc()
	}
	q.items = append(q.items, evt)
	metrics.QueueDepth.Set(float64(len(q.items)))
	return dropped, didDrop
}

// DrainBatch removes and returns up to max payloads in FIFO order.
func (q *Queue) DrainBatch(max int) []models.CollectorEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := max
	if n > len(q.items) {
		n = len(q.items)
	}
	if n <= 0 {
		return nil
	}

	batch := make([]models.CollectorEvent, n)
	copy(batch, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	metrics.QueueDepth.Set(float64(len(q.items)))
	return batch
}

// Len returns the number of queued payloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
