// Package queue holds pending plan re-analysis requests.
//
// Requests are coalesced per player: while a request for a player is
// pending, further requests for the same player are accepted without
// taking another slot.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/swingiq/pkg/metrics"
)

const defaultQueueCapacity = 256

// AnalysisRequest asks a worker to regenerate one player's plan.
type AnalysisRequest struct {
	PlayerID    string
	RequestedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. It returns false if the request was rejected.
	Enqueue(ctx context.Context, r AnalysisRequest) bool

	// TryEnqueue is Enqueue with the rejection reason. Coalesced reports
	// whether the request merged into one already pending.
	TryEnqueue(ctx context.Context, r AnalysisRequest) (coalesced bool, err error)

	// Dequeue returns a channel that receives requests as they become available.
	Dequeue(ctx context.Context) <-chan AnalysisRequest

	// Done clears the pending mark for a player once its plan is replaced.
	Done(playerID string)

	// Pending reports whether a request for playerID is queued or running.
	Pending(playerID string) bool

	// Len returns the number of queued requests.
	Len(ctx context.Context) int

	// Close stops accepting requests, drops buffered ones and closes the
	// dequeue channels.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel and a pending set.
type InMemoryQueue struct {
	requests chan AnalysisRequest
	stop     chan struct{}
	capacity int

	mu      sync.RWMutex
	closed  bool
	pending map[string]struct{}
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		stop:     make(chan struct{}),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan AnalysisRequest, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r AnalysisRequest) bool {
	_, err := q.TryEnqueue(ctx, r)
	return err == nil
}

// TryEnqueue adds a request to the queue, reporting why it was rejected.
func (q *InMemoryQueue) TryEnqueue(ctx context.Context, r AnalysisRequest) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return false, ErrClosed
	}
	if _, ok := q.pending[r.PlayerID]; ok {
		metrics.RecordQueueCoalesced()
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("cancelled")
		return false, err
	}

	select {
	case q.requests <- r:
		q.pending[r.PlayerID] = struct{}{}
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.requests))
		return false, nil
	default:
		metrics.RecordQueueRejected("full")
		return false, ErrFull
	}
}

// Dequeue returns a channel that receives requests as they become available.
// The channel is closed when ctx ends or the queue is closed. A request
// taken off the buffer but never handed out has its pending mark cleared.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan AnalysisRequest {
	out := make(chan AnalysisRequest)
	go func() {
		defer close(out)
		for {
			var r AnalysisRequest
			select {
			case <-ctx.Done():
				return
			case <-q.stop:
				return
			case next, ok := <-q.requests:
				if !ok {
					return
				}
				r = next
			}

			select {
			case out <- r:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.requests))
			case <-ctx.Done():
				q.Done(r.PlayerID)
				return
			case <-q.stop:
				q.Done(r.PlayerID)
				return
			}
		}
	}()
	return out
}

// Done clears the pending mark for playerID.
func (q *InMemoryQueue) Done(playerID string) {
	q.mu.Lock()
	delete(q.pending, playerID)
	q.mu.Unlock()
}

// Pending reports whether a request for playerID is outstanding.
func (q *InMemoryQueue) Pending(playerID string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.pending[playerID]
	return ok
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.requests)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Requests still buffered are dropped and their
// pending marks cleared; Dequeue channels are closed.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.stop)
	close(q.requests)
	for r := range q.requests {
		delete(q.pending, r.PlayerID)
	}
	metrics.UpdateQueueSize(0)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
