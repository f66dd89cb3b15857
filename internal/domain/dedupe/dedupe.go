// Package dedupe tracks idempotency keys for note submissions.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen keys to ensure at-most-once handling.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a failed submission can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps keys in a map. With maxSize > 0 the oldest key is
// evicted once the bound is reached; with maxSize <= 0 it grows unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, may hold unrecorded ids
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	// The id stays in order; evictOldest skips entries no longer in seen.
	delete(d.seen, id)
	d.compact()
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// evictOldest drops the oldest live key. Caller holds d.mu.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		id := d.order[0]
		d.order = d.order[1:]
		if _, ok := d.seen[id]; ok {
			delete(d.seen, id)
			return
		}
	}
}

// compact rebuilds order once stale entries outnumber live ones, so a
// stream of unrecorded keys cannot grow it without bound. Caller holds d.mu.
func (d *inMemoryDeduper) compact() {
	if len(d.order) <= 2*len(d.seen)+compactSlack {
		return
	}
	live := make([]string, 0, len(d.seen))
	for _, id := range d.order {
		if _, ok := d.seen[id]; ok {
			live = append(live, id)
		}
	}
	d.order = live
}
