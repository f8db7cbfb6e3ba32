// Package memory implements the engine's hot, bounded, in-process tier.
package memory

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
)

// EvictionPolicy selects which entry memory.Tier evicts first once the tier
// is over capacity.
type EvictionPolicy string

const (
	PolicyLRU  EvictionPolicy = "lru"
	PolicyLFU  EvictionPolicy = "lfu"
	PolicyFIFO EvictionPolicy = "fifo"
)

const maxKeyBytes = 255

type record struct {
	key       cachekey.Key
	entry     hybridcache.Entry
	listElem  *list.Element // LRU/FIFO order, or unused for LFU
	frequency uint64        // LFU counter
}

// Tier is a bounded, TTL-aware in-process cache. It is safe for concurrent
// use; all state is protected by a single mutex, matching the teacher's
// per-entry locking discipline scaled down to a single small critical
// section since entries here are whole cache records, not block buffers.
type Tier struct {
	mu       sync.Mutex
	policy   EvictionPolicy
	capacity int64 // bytes; 0 means unbounded
	used     int64

	records map[cachekey.Key]*record
	order   *list.List // front = most-recently-used / most-recently-inserted

	disposed bool
}

// New returns an empty Tier bounded by capacityBytes (0 = unbounded) using
// the given eviction policy.
func New(capacityBytes int64, policy EvictionPolicy) *Tier {
	if policy == "" {
		policy = PolicyLRU
	}
	return &Tier{
		policy:   policy,
		capacity: capacityBytes,
		records:  make(map[cachekey.Key]*record),
		order:    list.New(),
	}
}

func (t *Tier) Name() hybridcache.TierName { return hybridcache.TierMemory }

func (t *Tier) IsWritable() bool { return true }

func (t *Tier) Get(ctx context.Context, key cachekey.Key) (hybridcache.Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return hybridcache.Entry{}, hybridcache.NewDisposedError(key)
	}

	r, ok := t.records[key]
	if !ok {
		return hybridcache.Entry{}, hybridcache.NewNotFoundError(key)
	}

	// An expired record is still returned: the fallback chain decides
	// whether a stale hit is acceptable, not this tier. Only Cleanup and
	// Has evict an expired record here.
	r.entry.Meta.AccessedAt = time.Now()
	r.entry.Meta.AccessCount++
	r.frequency++
	if t.policy == PolicyLRU {
		t.order.MoveToFront(r.listElem)
	}

	return r.entry.Clone(), nil
}

func (t *Tier) Set(ctx context.Context, key cachekey.Key, entry hybridcache.Entry) error {
	if len(key) == 0 || len(key) > maxKeyBytes {
		return hybridcache.NewMalformedKeyError(key, nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return hybridcache.NewDisposedError(key)
	}

	if t.capacity > 0 && entry.Meta.SizeBytes > t.capacity {
		return hybridcache.NewCapacityExceededError(key, string(hybridcache.TierMemory))
	}

	if existing, ok := t.records[key]; ok {
		t.used -= existing.entry.Meta.SizeBytes
		if existing.listElem != nil {
			t.order.Remove(existing.listElem)
		}
		delete(t.records, key)
	}

	t.evictToFitLocked(entry.Meta.SizeBytes)

	entry.Meta.SourceTier = string(hybridcache.TierMemory)
	r := &record{key: key, entry: entry.Clone()}
	if t.policy != PolicyLFU {
		r.listElem = t.order.PushFront(key)
	}
	t.records[key] = r
	t.used += entry.Meta.SizeBytes

	return nil
}

func (t *Tier) Delete(ctx context.Context, key cachekey.Key) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return hybridcache.NewDisposedError(key)
	}
	t.removeLocked(key)
	return nil
}

func (t *Tier) Has(ctx context.Context, key cachekey.Key) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return false, hybridcache.NewDisposedError(key)
	}
	r, ok := t.records[key]
	if !ok {
		return false, nil
	}
	if r.entry.Meta.IsExpired(time.Now()) {
		t.removeLocked(key)
		return false, nil
	}
	return true, nil
}

func (t *Tier) Keys(ctx context.Context, pattern string) ([]cachekey.Key, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return nil, hybridcache.NewDisposedError("")
	}

	now := time.Now()
	var out []cachekey.Key
	for k, r := range t.records {
		if r.entry.Meta.IsExpired(now) {
			continue
		}
		if pattern == "" {
			out = append(out, k)
			continue
		}
		if matched, err := path.Match(pattern, string(k)); err == nil && matched {
			out = append(out, k)
		}
	}
	return out, nil
}

func (t *Tier) MGet(ctx context.Context, keys []cachekey.Key) (map[cachekey.Key]hybridcache.Entry, error) {
	out := make(map[cachekey.Key]hybridcache.Entry, len(keys))
	for _, k := range keys {
		e, err := t.Get(ctx, k)
		if err == nil {
			out[k] = e
		}
	}
	return out, nil
}

func (t *Tier) MSet(ctx context.Context, entries map[cachekey.Key]hybridcache.Entry) error {
	for k, e := range entries {
		if err := t.Set(ctx, k, e); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tier) Metadata(ctx context.Context, key cachekey.Key) (hybridcache.Meta, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return hybridcache.Meta{}, hybridcache.NewDisposedError(key)
	}
	r, ok := t.records[key]
	if !ok {
		return hybridcache.Meta{}, hybridcache.NewNotFoundError(key)
	}
	return r.entry.Meta, nil
}

func (t *Tier) Size(ctx context.Context) (used, capacity int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used, t.capacity, nil
}

// Cleanup walks every record and evicts expired ones. A periodic caller
// (the engine's background sweep) invokes this; Has also evicts lazily,
// while Get returns an expired record without evicting it.
func (t *Tier) Cleanup(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return hybridcache.NewDisposedError("")
	}

	now := time.Now()
	for k, r := range t.records {
		if r.entry.Meta.IsExpired(now) {
			t.removeLocked(k)
		}
	}
	return nil
}

func (t *Tier) Dispose(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposed = true
	t.records = nil
	t.order = nil
	t.used = 0
	return nil
}

func (t *Tier) removeLocked(key cachekey.Key) {
	r, ok := t.records[key]
	if !ok {
		return
	}
	t.used -= r.entry.Meta.SizeBytes
	if r.listElem != nil {
		t.order.Remove(r.listElem)
	}
	delete(t.records, key)
}

// evictToFitLocked evicts entries per policy until adding incomingBytes
// would not exceed capacity. Caller holds t.mu.
func (t *Tier) evictToFitLocked(incomingBytes int64) {
	if t.capacity <= 0 {
		return
	}
	for t.used+incomingBytes > t.capacity && len(t.records) > 0 {
		victim := t.pickVictimLocked()
		if victim == "" {
			return
		}
		t.removeLocked(victim)
	}
}

func (t *Tier) pickVictimLocked() cachekey.Key {
	switch t.policy {
	case PolicyLFU:
		var victim cachekey.Key
		var lowest uint64
		first := true
		for k, r := range t.records {
			if first || r.frequency < lowest {
				victim, lowest, first = k, r.frequency, false
			}
		}
		return victim
	default: // LRU and FIFO both evict from the back of the order list
		back := t.order.Back()
		if back == nil {
			return ""
		}
		return back.Value.(cachekey.Key)
	}
}
