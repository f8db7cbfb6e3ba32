package hybridcache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/telemetry"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/audit"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/breaker"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/dedup"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/metrics"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/notify"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/partial"
)

// WriteStrategy selects how Set propagates a write across tiers.
type WriteStrategy int

const (
	WriteThrough WriteStrategy = iota
	WriteBehind
	ReadThrough
	CacheAside
)

// Fetcher recovers a value from outside the cache (typically the origin
// adapter) when every tier misses. Get calls it at most once per key per
// call, deduplicated against concurrent callers of the same key.
type Fetcher func(ctx context.Context) (Value, error)

// EngineOptions configures a new Engine.
type EngineOptions struct {
	Tiers    []Tier
	Breakers []*breaker.Breaker // parallel to Tiers, fastest first
	Strategy WriteStrategy

	QueueSize     int
	FlushInterval time.Duration
	DrainTimeout  time.Duration

	TTLDefault time.Duration
	Partial    *partial.Handler
	Notifier   *notify.Notifier
	Metrics    *metrics.Registry

	// Audit, if non-nil, receives a durable copy of every degradation event
	// the notifier emits, for history beyond the notifier's in-memory ring.
	Audit *audit.Store
}

// pendingWrite is one entry on the write-behind queue: a write to every
// tier below the hottest one.
type pendingWrite struct {
	key   cachekey.Key
	entry Entry
}

// Engine is the top-level facade: a fallback chain over a set of tiers,
// deduplicated fetches, a partial-response repairer, and a degradation
// notifier, wired together behind the four write strategies.
type Engine struct {
	mu sync.RWMutex

	tiers    []Tier
	breakers []*breaker.Breaker
	chain    *Handler
	dedup    *dedup.Deduplicator
	partial  *partial.Handler
	notifier *notify.Notifier
	metrics  *metrics.Registry
	audit    *audit.Store

	strategy   WriteStrategy
	ttlDefault time.Duration

	queue        chan pendingWrite
	queueMu      sync.Mutex
	flushWG      sync.WaitGroup
	stopFlush    chan struct{}
	flushPeriod  time.Duration
	drainTimeout time.Duration

	initialized bool
	disposed    bool
}

// New builds an Engine from already-constructed tiers; it does not open
// storage itself (see Initialize for that). Tiers and Breakers must be
// the same length and given fastest-first.
func New(opts EngineOptions) *Engine {
	if opts.Notifier == nil {
		opts.Notifier = notify.New()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}

	e := &Engine{
		tiers:        opts.Tiers,
		breakers:     opts.Breakers,
		chain:        newFallbackHandler(opts.Tiers, opts.Breakers, opts.Notifier, opts.Metrics, opts.Partial),
		dedup:        dedup.New(),
		partial:      opts.Partial,
		notifier:     opts.Notifier,
		metrics:      opts.Metrics,
		audit:        opts.Audit,
		strategy:     opts.Strategy,
		ttlDefault:   opts.TTLDefault,
		queue:        make(chan pendingWrite, opts.QueueSize),
		stopFlush:    make(chan struct{}),
		flushPeriod:  opts.FlushInterval,
		drainTimeout: opts.DrainTimeout,
	}
	e.notifier.Subscribe(func(evt notify.Event) {
		e.metrics.ObserveDegradedEvent(string(evt.Type))
	})
	if e.audit != nil {
		e.notifier.Subscribe(func(evt notify.Event) {
			if err := e.audit.Record(context.Background(), evt); err != nil {
				logger.Warn("failed to persist degradation event to audit log", "error", err)
			}
		})
	}
	return e
}

// Initialize starts background processing (the write-behind drain loop).
// Per-tier construction happens before New is called; Initialize only
// starts the engine's own goroutines, idempotently.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	e.initialized = true

	if e.strategy == WriteBehind {
		e.flushWG.Add(1)
		go e.drainLoop()
	}
	return nil
}

// Dispose flushes any pending write-behind queue (bounded by drainTimeout),
// then disposes every tier in order.
func (e *Engine) Dispose(ctx context.Context) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil
	}
	e.disposed = true
	e.mu.Unlock()

	if e.strategy == WriteBehind {
		close(e.stopFlush)
		done := make(chan struct{})
		go func() {
			e.flushWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(e.drainTimeout):
			e.notifier.Notify(notify.Event{
				Type:      notify.EventStorageFailure,
				Severity:  notify.SeverityCritical,
				Message:   "write-behind queue drain exceeded grace timeout, remaining writes discarded",
				Timestamp: time.Now(),
			})
		}
	}

	var firstErr error
	for _, t := range e.tiers {
		if err := t.Dispose(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.audit != nil {
		if err := e.audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Get is the canonical read path: dedupe, walk the fallback chain, and on
// a total miss invoke fetcher (if supplied) under the same dedup key,
// writing its result back per the configured strategy. The returned Result
// reports which tier served the value and whether it is stale or partial;
// a zero-value GetOptions request is treated the same as DefaultGetOptions.
func (e *Engine) Get(ctx context.Context, key cachekey.Key, fetcher Fetcher, opts GetOptions) (Result, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanEngineGet)
	defer span.End()
	telemetry.SetAttributes(ctx, attribute.String(telemetry.AttrCacheKey, string(key)))

	if e.isDisposed() {
		err := NewDisposedError(key)
		telemetry.RecordError(ctx, err)
		return Result{}, err
	}

	entry, err := e.chain.Get(ctx, key, opts)
	if err == nil {
		telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrCacheHit, true))
		return resultFromEntry(entry, time.Now()), nil
	}
	if !IsNotFound(err) && !IsAllTiersFailed(err) {
		telemetry.RecordError(ctx, err)
		return Result{}, err
	}
	if fetcher == nil {
		return Result{}, err
	}

	telemetry.SetAttributes(ctx, attribute.Bool(telemetry.AttrCacheHit, false))
	fetched, ferr := dedup.Dedupe(e.dedup, string(key), func() (Value, error) {
		return fetcher(ctx)
	})
	if ferr != nil {
		telemetry.RecordError(ctx, ferr)
		return Result{}, ferr
	}

	fetched = e.repair(ctx, fetched, opts.RequiredFields)
	if err := e.Set(ctx, key, fetched, e.ttlDefault); err != nil {
		e.notifier.Notify(notify.Event{
			Type:      notify.EventStorageFailure,
			Severity:  notify.SeverityWarning,
			Message:   "failed to populate cache after fetcher success: " + err.Error(),
			Timestamp: time.Now(),
		})
	}
	return Result{
		Value:         fetched,
		IsPartial:     fetched.Partial,
		MissingFields: fetched.MissingFields,
	}, nil
}

func (e *Engine) repair(ctx context.Context, v Value, required []string) Value {
	if e.partial == nil {
		return v
	}
	if !v.Partial {
		return v
	}
	repaired := e.partial.Repair(ctx, v, required)
	outcome := "repaired"
	if repaired.Partial {
		outcome = "still-partial"
	}
	e.metrics.ObservePartialRepair(v.Kind.String(), outcome)
	return repaired
}

// GetMany answers a batch of keys via each tier's MGet in fallback order,
// then fills every residual key through the normal Get path (dedup,
// fallback chain, fetcher).
func (e *Engine) GetMany(ctx context.Context, keys []cachekey.Key, fetcher func(cachekey.Key) Fetcher) (map[cachekey.Key]Value, error) {
	out := make(map[cachekey.Key]Value, len(keys))
	remaining := keys

	for _, t := range e.tiers {
		if len(remaining) == 0 {
			break
		}
		hits, err := t.MGet(ctx, remaining)
		if err != nil {
			continue
		}
		next := make([]cachekey.Key, 0, len(remaining))
		for _, k := range remaining {
			if entry, ok := hits[k]; ok && !entry.Meta.IsExpired(time.Now()) {
				out[k] = e.repair(ctx, entry.Value, nil)
			} else {
				next = append(next, k)
			}
		}
		remaining = next
	}

	for _, k := range remaining {
		var f Fetcher
		if fetcher != nil {
			f = fetcher(k)
		}
		res, err := e.Get(ctx, k, f, DefaultGetOptions())
		if err == nil {
			out[k] = res.Value
		}
	}
	return out, nil
}

// Set writes value under key using the engine's configured write strategy.
func (e *Engine) Set(ctx context.Context, key cachekey.Key, value Value, ttl time.Duration) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanEngineSet)
	defer span.End()
	telemetry.SetAttributes(ctx, attribute.String(telemetry.AttrCacheKey, string(key)))

	if e.isDisposed() {
		err := NewDisposedError(key)
		telemetry.RecordError(ctx, err)
		return err
	}

	entry := Entry{
		Value: value,
		Meta: Meta{
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
			AccessedAt:  time.Now(),
			AccessCount: 1,
			TTLSeconds:  int64(ttl.Seconds()),
		},
	}

	switch e.strategy {
	case WriteThrough, ReadThrough, CacheAside:
		return e.writeAllSync(ctx, key, entry)
	case WriteBehind:
		return e.writeBehind(ctx, key, entry)
	default:
		return e.writeAllSync(ctx, key, entry)
	}
}

func (e *Engine) writeAllSync(ctx context.Context, key cachekey.Key, entry Entry) error {
	var firstErr error
	for _, t := range e.tiers {
		w, ok := t.(Writable)
		if !ok || !w.IsWritable() {
			continue
		}
		if err := t.Set(ctx, key, entry.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// writeBehind writes synchronously to the hottest writable tier and
// enqueues the remaining tiers' writes on the bounded async queue.
func (e *Engine) writeBehind(ctx context.Context, key cachekey.Key, entry Entry) error {
	for _, t := range e.tiers {
		w, ok := t.(Writable)
		if !ok || !w.IsWritable() {
			continue
		}
		if err := t.Set(ctx, key, entry.Clone()); err != nil {
			return err
		}
		break
	}

	select {
	case e.queue <- pendingWrite{key: key, entry: entry}:
	default:
		e.dropOldestAndEnqueue(pendingWrite{key: key, entry: entry})
	}
	return nil
}

// dropOldestAndEnqueue discards the oldest pending write to make room,
// then enqueues w, and emits a storage-failure notification for the drop.
func (e *Engine) dropOldestAndEnqueue(w pendingWrite) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	select {
	case <-e.queue:
		e.notifier.Notify(notify.Event{
			Type:      notify.EventStorageFailure,
			Severity:  notify.SeverityWarning,
			Message:   "write-behind queue full, dropped oldest pending write",
			Timestamp: time.Now(),
		})
	default:
	}
	select {
	case e.queue <- w:
	default:
	}
}

// drainLoop periodically flushes queued writes to every tier below the
// hottest one, and performs one final drain on shutdown.
func (e *Engine) drainLoop() {
	defer e.flushWG.Done()

	ticker := time.NewTicker(e.flushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopFlush:
			e.drainAll()
			return
		case <-ticker.C:
			e.drainAll()
		}
	}
}

func (e *Engine) drainAll() {
	ctx := context.Background()
	for {
		select {
		case w := <-e.queue:
			for i, t := range e.tiers {
				if i == 0 {
					continue // already written synchronously
				}
				wr, ok := t.(Writable)
				if !ok || !wr.IsWritable() {
					continue
				}
				if err := t.Set(ctx, w.key, w.entry.Clone()); err != nil {
					logger.Warn("write-behind drain failed", "tier", t.Name(), "key", w.key, "error", err)
				}
			}
		default:
			return
		}
	}
}

// Invalidate deletes key_or_glob across every tier; a glob pattern expands
// via each tier's Keys(pattern).
func (e *Engine) Invalidate(ctx context.Context, keyOrGlob string) error {
	var firstErr error
	for _, t := range e.tiers {
		keys, err := t.Keys(ctx, keyOrGlob)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(keys) == 0 {
			keys = []cachekey.Key{cachekey.Key(keyOrGlob)}
		}
		for _, k := range keys {
			if err := t.Delete(ctx, k); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Stats is a read-only snapshot of engine-wide counters.
type Stats struct {
	Dedup dedup.Stats
	Tiers map[TierName]TierStats
}

// TierStats summarizes one tier's size and circuit state.
type TierStats struct {
	UsedBytes     int64
	CapacityBytes int64
}

func (e *Engine) Stats(ctx context.Context) Stats {
	s := Stats{Dedup: e.dedup.Stats(), Tiers: make(map[TierName]TierStats, len(e.tiers))}
	e.metrics.SetDedupCollapsed(s.Dedup.Deduplicated)
	for _, t := range e.tiers {
		used, capacity, err := t.Size(ctx)
		if err != nil {
			continue
		}
		s.Tiers[t.Name()] = TierStats{UsedBytes: used, CapacityBytes: capacity}
		e.metrics.SetTierSize(string(t.Name()), used, capacity)
	}
	return s
}

// CircuitStatus returns the current breaker state for every tier, in the
// same fastest-first order the engine was constructed with.
func (e *Engine) CircuitStatus() []breaker.Snapshot {
	out := make([]breaker.Snapshot, 0, len(e.breakers))
	for _, b := range e.breakers {
		out = append(out, b.Snapshot())
	}
	return out
}

// Notifications returns active, (type, tier)-grouped degradation issues
// within window.
func (e *Engine) Notifications(window time.Duration, now time.Time) []notify.Issue {
	return e.notifier.ActiveIssues(window, now)
}

func (e *Engine) isDisposed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disposed
}
