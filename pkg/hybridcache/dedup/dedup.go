// Package dedup collapses concurrent equivalent fetches for the same key
// into a single in-flight call, built on golang.org/x/sync/singleflight.
package dedup

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Stats reports the counters spec.md §4.5 requires: singleflight itself
// exposes none of these, so Deduplicator tracks them alongside the group.
type Stats struct {
	Total             uint64
	Deduplicated      uint64
	InFlight          int64
	DeduplicationRate float64
}

// Deduplicator ensures at most one factory invocation is in flight per key
// at any instant; concurrent callers for the same key all observe the same
// outcome, success or failure.
type Deduplicator struct {
	group singleflight.Group

	mu           sync.Mutex
	total        uint64
	deduplicated uint64
	inFlight     map[string]struct{}
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{inFlight: make(map[string]struct{})}
}

// Dedupe runs factory for key, or joins an already-running call for the
// same key. All concurrent callers for key receive the same value or
// error. The in-flight entry is removed on settle regardless of outcome.
func Dedupe[T any](d *Deduplicator, key string, factory func() (T, error)) (T, error) {
	d.mu.Lock()
	d.total++
	_, joining := d.inFlight[key]
	if !joining {
		d.inFlight[key] = struct{}{}
	} else {
		d.deduplicated++
	}
	d.mu.Unlock()

	v, err, _ := d.group.Do(key, func() (any, error) {
		defer func() {
			d.mu.Lock()
			delete(d.inFlight, key)
			d.mu.Unlock()
		}()
		return factory()
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Stats returns a snapshot of the deduplicator's counters.
func (d *Deduplicator) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	rate := 0.0
	if d.total > 0 {
		rate = float64(d.deduplicated) / float64(d.total)
	}

	return Stats{
		Total:             d.total,
		Deduplicated:      d.deduplicated,
		InFlight:          int64(len(d.inFlight)),
		DeduplicationRate: rate,
	}
}

// InFlightCount reports how many factories are currently executing. Used by
// tests to confirm no stale in-flight entry survives settle.
func (d *Deduplicator) InFlightCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inFlight)
}
