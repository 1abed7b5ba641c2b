// Package dedupe tracks event natural keys so retried ingest batches skip
// the storage round-trip for events already seen.
//
// The cache is an optimization in front of the event store's unique index,
// not the source of truth: an eviction only costs one conflicting insert.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 500_000
)

// Deduper records seen event keys to short-circuit duplicate ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing it to be retried. Use when an event
	// was marked seen but failed to persist.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of keys in
// insertion order. When the cache is full the oldest key is evicted; older
// events are the ones most likely already covered by the store's unique
// index anyway.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int // next eviction slot
	maxSize int // 0 or negative = unbounded
	size    atomic.Int64
}

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the cache. Non-positive values mean unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// NewInMemoryDeduper creates an in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, 0, d.maxSize)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.ring) < d.maxSize {
			d.ring = append(d.ring, key)
		} else {
			// Full: evict the oldest key and reuse its slot.
			evicted := d.ring[d.head]
			if evicted != "" {
				delete(d.seen, evicted)
				d.size.Add(-1)
			}
			d.ring[d.head] = key
			d.head = (d.head + 1) % d.maxSize
		}
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord implements Deduper. The ring slot is left behind as a tombstone;
// eviction skips it via the map check.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; !exists {
		return
	}
	delete(d.seen, key)
	d.size.Add(-1)
	for i := range d.ring {
		if d.ring[i] == key {
			d.ring[i] = ""
			break
		}
	}
}

// Size returns the current number of tracked keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
