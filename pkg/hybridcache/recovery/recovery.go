// Package recovery wraps tier operations with retry, exponential backoff,
// and circuit-breaker interlock, classifying errors as terminal, retryable,
// or unknown along the way.
package recovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/breaker"
)

// Strategy controls the retry/backoff envelope for a single Execute call.
// The zero value is not useful; use DefaultStrategy() as a base.
type Strategy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// DefaultStrategy returns the spec's default retry envelope.
func DefaultStrategy() Strategy {
	return Strategy{MaxRetries: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 30 * time.Second}
}

// ReducedStrategy returns the fallback chain's tighter envelope used while
// guarding a tier during the per-tier traversal.
func ReducedStrategy() Strategy {
	return Strategy{MaxRetries: 2, BaseDelay: 500 * time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Second}
}

// Classifier tells the manager whether an error is terminal (never retry),
// retryable (retry with backoff), or unknown (retry optimistically). The
// engine supplies this so the recovery package has no dependency on the
// engine's error type.
type Classifier interface {
	IsTerminal(err error) bool
	IsRetryable(err error) bool
}

// ErrorRecord is one entry in a tier's ring of recent failures.
type ErrorRecord struct {
	Err  error
	When time.Time
}

// Manager executes operations against a single tier's breaker, retrying
// transient failures with exponential backoff and recording every failure
// into a bounded per-tier ring.
type Manager struct {
	tier       string
	breaker    *breaker.Breaker
	classifier Classifier

	ringMu sync.Mutex
	ring   []ErrorRecord
}

const ringCapacity = 100

// New builds a Manager for tier, guarded by b and classifying errors via c.
func New(tier string, b *breaker.Breaker, c Classifier) *Manager {
	return &Manager{tier: tier, breaker: b, classifier: c}
}

// Execute runs op, retrying per strategy while the breaker allows it. On
// success it resets the retry counter implicitly (each call starts fresh)
// and reports success to the breaker. When it stops without success
// (retries exhausted, a terminal error, or an open breaker), if fallback
// is non-nil it is invoked and its result returned; otherwise the last
// error is returned to the caller.
func Execute[T any](ctx context.Context, m *Manager, strategy Strategy, op func(ctx context.Context) (T, error), fallback func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	attempt := 0

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = strategy.BaseDelay
	bo.Multiplier = strategy.Multiplier
	bo.MaxInterval = strategy.MaxDelay
	bo.MaxElapsedTime = 0 // bounded by MaxRetries below, not wall-clock

	for {
		result, err := m.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return op(ctx)
		})
		if err == nil {
			return result.(T), nil
		}

		lastErr = err
		m.recordError(lastErr)
		attempt++

		// An open breaker rejects every call identically until its timeout
		// elapses; retrying against it within this Execute call wastes the
		// whole backoff schedule for nothing.
		if errors.Is(lastErr, breaker.ErrOpen) {
			break
		}
		if m.classifier.IsTerminal(lastErr) {
			break
		}
		if attempt > strategy.MaxRetries {
			break
		}
		// Retryable and unknown errors share the same backoff schedule;
		// unknown errors are retried optimistically.

		delay := bo.NextBackOff()
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	if fallback != nil {
		return fallback(ctx)
	}
	var zero T
	return zero, lastErr
}

func (m *Manager) recordError(err error) {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()

	m.ring = append(m.ring, ErrorRecord{Err: err, When: time.Now()})
	if len(m.ring) > ringCapacity {
		m.ring = m.ring[len(m.ring)-ringCapacity:]
	}
	logger.Warn("recovery attempt failed", "tier", m.tier, "error", err)
}

// RecentErrors returns a copy of the tier's last-100 error ring.
func (m *Manager) RecentErrors() []ErrorRecord {
	m.ringMu.Lock()
	defer m.ringMu.Unlock()
	out := make([]ErrorRecord, len(m.ring))
	copy(out, m.ring)
	return out
}
