// The fallback chain implements the tier-traversal algorithm that turns a
// set of independent storage tiers into one resilient read path: try each
// tier in order behind its own circuit breaker and retry envelope, accept a
// stale or partial hit inline when the caller's options allow it, and if
// every tier comes back empty, make one more pass willing to accept
// expired-but-present data before giving up.
package hybridcache

import (
	"context"
	"errors"
	"time"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/breaker"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/metrics"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/notify"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/recovery"
)

// fallbackClassifier adapts the package-level IsTerminal/IsRetryable
// functions to the recovery.Classifier interface.
type fallbackClassifier struct{}

func (fallbackClassifier) IsTerminal(err error) bool  { return IsTerminal(err) }
func (fallbackClassifier) IsRetryable(err error) bool { return IsRetryable(err) }

// guardedTier pairs a Tier with the recovery.Manager that wraps every call
// against it.
type guardedTier struct {
	tier    Tier
	manager *recovery.Manager
}

// fallbackHandler walks an ordered list of tiers on every read, promoting a hit
// found in a lower tier back up into every faster tier above it.
type fallbackHandler struct {
	tiers    []guardedTier
	notifier *notify.Notifier
	metrics  *metrics.Registry
	partial  *PartialHandler
}

// newFallbackHandler builds a fallbackHandler over tiers in the order they should
// be consulted (fastest first). Each tier is wrapped in its own
// recovery.Manager backed by breakers[i]. notifier, reg, and ph may all be
// nil.
func newFallbackHandler(tiers []Tier, breakers []*breaker.Breaker, notifier *notify.Notifier, reg *metrics.Registry, ph *PartialHandler) *fallbackHandler {
	h := &fallbackHandler{notifier: notifier, metrics: reg, partial: ph}
	for i, t := range tiers {
		h.tiers = append(h.tiers, guardedTier{
			tier:    t,
			manager: recovery.New(string(t.Name()), breakers[i], fallbackClassifier{}),
		})
	}
	return h
}

// Get tries every tier opts selects, in order. A hit is repaired via the
// partial-response handler and, if it satisfies opts.PartialAcceptable and
// (for a stale entry) opts.AllowStale/opts.MaxStaleAge, is promoted into
// every faster tier and returned immediately. A tier whose hit fails either
// check is treated as a miss and traversal continues. If every tier misses
// or is rejected this way, a second emergency pass — gated on
// opts.AllowStale — ignores staleness and partiality entirely and serves
// the freshest entry any tier still holds. If that also comes up empty, it
// reports AllTiersFailed.
func (h *fallbackHandler) Get(ctx context.Context, key cachekey.Key, opts GetOptions) (Entry, error) {
	attempted := make([]string, 0, len(h.tiers))

	for i, gt := range h.tiers {
		if !opts.includesTier(gt.tier.Name()) {
			continue
		}
		attempted = append(attempted, string(gt.tier.Name()))

		tierCtx := ctx
		var cancel context.CancelFunc
		if opts.Timeout > 0 {
			tierCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}

		start := time.Now()
		entry, err := recovery.Execute(tierCtx, gt.manager, recovery.ReducedStrategy(),
			func(ctx context.Context) (Entry, error) {
				return gt.tier.Get(ctx, key)
			},
			nil,
		)
		latency := time.Since(start)
		if cancel != nil {
			cancel()
		}

		if errors.Is(err, breaker.ErrOpen) {
			err = NewCircuitOpenError(key, string(gt.tier.Name()))
		}

		if err != nil {
			outcome := "error"
			if IsNotFound(err) {
				outcome = "miss"
			}
			h.metrics.ObserveTierRequest(string(gt.tier.Name()), outcome, latency)
			h.notifyTierFailure(gt.tier.Name(), err)
			continue
		}

		now := time.Now()
		if entry.Meta.IsExpired(now) {
			if !opts.AllowStale || entry.Meta.StalenessMs(now) > opts.MaxStaleAge.Milliseconds() {
				h.metrics.ObserveTierRequest(string(gt.tier.Name()), "miss", latency)
				continue
			}
			entry.Meta.Stale = true
		}

		entry.Value = h.repair(ctx, entry.Value, opts.RequiredFields)
		if entry.Value.Partial && !opts.PartialAcceptable {
			h.metrics.ObserveTierRequest(string(gt.tier.Name()), "miss", latency)
			continue
		}

		entry.Meta.SourceTier = string(gt.tier.Name())
		h.metrics.ObserveTierRequest(string(gt.tier.Name()), "hit", latency)
		h.promote(ctx, key, entry, i)
		if entry.Meta.Stale {
			h.notify(notify.Event{
				Type:      notify.EventServingStale,
				Severity:  notify.SeverityWarning,
				Tier:      string(gt.tier.Name()),
				Message:   "serving stale entry within allowed staleness window",
				Timestamp: time.Now(),
			})
		}
		return entry, nil
	}

	if opts.AllowStale {
		if entry, ok := h.emergencyStaleRead(ctx, key); ok {
			h.notify(notify.Event{
				Type:      notify.EventServingStale,
				Severity:  notify.SeverityWarning,
				Message:   "serving stale entry after all tiers missed or failed",
				Timestamp: time.Now(),
			})
			return entry, nil
		}
	}

	err := NewAllTiersFailedError(key, attempted)
	h.notify(notify.Event{
		Type:      notify.EventStorageFailure,
		Severity:  notify.SeverityCritical,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
	return Entry{}, err
}

// repair runs the value through the partial-response handler if one is
// configured; without one it is returned unchanged.
func (h *fallbackHandler) repair(ctx context.Context, v Value, required []string) Value {
	if h.partial == nil {
		return v
	}
	return h.partial.Repair(ctx, v, required)
}

// promote writes entry into every tier faster than the one it was found
// in, best-effort: a promotion failure is logged as a degradation event
// but never fails the read that triggered it.
func (h *fallbackHandler) promote(ctx context.Context, key cachekey.Key, entry Entry, foundAt int) {
	for i := 0; i < foundAt; i++ {
		w, ok := h.tiers[i].tier.(Writable)
		if !ok || !w.IsWritable() {
			continue
		}
		if err := h.tiers[i].tier.Set(ctx, key, entry.Clone()); err != nil {
			h.notifyTierFailure(h.tiers[i].tier.Name(), err)
		}
	}
}

// emergencyStaleRead re-reads every tier directly (bypassing the breaker,
// expiry, and partiality checks) and returns the freshest entry found, if
// any. It is the last resort once the ordinary per-tier pass above has
// rejected or missed on every tier.
func (h *fallbackHandler) emergencyStaleRead(ctx context.Context, key cachekey.Key) (Entry, bool) {
	var best Entry
	found := false

	for _, gt := range h.tiers {
		entry, err := gt.tier.Get(ctx, key)
		if err != nil {
			continue
		}
		if !found || entry.Meta.UpdatedAt.After(best.Meta.UpdatedAt) {
			best = entry
			best.Meta.SourceTier = string(gt.tier.Name())
			found = true
		}
	}

	if found {
		best.Meta.Stale = true
	}
	return best, found
}

// notify reports evt if a notifier was configured; it is a no-op otherwise.
func (h *fallbackHandler) notify(evt notify.Event) {
	if h.notifier != nil {
		h.notifier.Notify(evt)
	}
}

func (h *fallbackHandler) notifyTierFailure(tier TierName, err error) {
	severity := notify.SeverityWarning
	if IsCircuitOpen(err) {
		h.notify(notify.Event{
			Type:      notify.EventCircuitBreakerOpen,
			Severity:  severity,
			Tier:      string(tier),
			Message:   err.Error(),
			Timestamp: time.Now(),
		})
		return
	}
	h.notify(notify.Event{
		Type:      notify.EventAPIDegraded,
		Severity:  severity,
		Tier:      string(tier),
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}
