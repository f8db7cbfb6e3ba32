// Package breaker wraps sony/gobreaker into the engine's per-tier
// failure-isolation primitive: Closed / Open / Half-Open, with the
// tier-default tunings the fallback chain relies on.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
)

// State mirrors gobreaker's state names without leaking the dependency
// into the engine's public surface.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreakerState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Tuning holds the per-tier defaults from the spec: failure_threshold
// before tripping, how long Open is held, and how many consecutive
// Half-Open successes are required to close again.
type Tuning struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	SuccessThreshold uint32
}

// Tier-default tunings. Memory is the most tolerant tier, origin the least.
var (
	MemoryTuning     = Tuning{FailureThreshold: 5, OpenTimeout: 30 * time.Second, SuccessThreshold: 1}
	PersistentTuning = Tuning{FailureThreshold: 3, OpenTimeout: 60 * time.Second, SuccessThreshold: 1}
	OriginTuning     = Tuning{FailureThreshold: 2, OpenTimeout: 120 * time.Second, SuccessThreshold: 3}
)

// TransitionFunc is invoked on every state change, letting a caller observe
// transitions without this package depending on notify or metrics.
type TransitionFunc func(tier string, from, to State)

// Breaker is a single tier's circuit breaker.
type Breaker struct {
	tier string
	cb   *gobreaker.CircuitBreaker[any]
}

// New builds a Breaker named for tier with the given tuning. onTransition
// may be nil.
func New(tier string, tuning Tuning, onTransition TransitionFunc) *Breaker {
	settings := gobreaker.Settings{
		Name:        tier,
		MaxRequests: 1,
		Interval:    0, // counts are never cleared on a timer, only on a state change
		Timeout:     tuning.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tuning.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "tier", name, "from", fromGobreakerState(from).String(), "to", fromGobreakerState(to).String())
			if onTransition != nil {
				onTransition(name, fromGobreakerState(from), fromGobreakerState(to))
			}
		},
	}

	// success_threshold is enforced by requiring SuccessThreshold consecutive
	// Half-Open probes to succeed before gobreaker's own ReadyToTrip logic
	// would let it close; gobreaker closes after MaxRequests successes in
	// Half-Open, so origin's tuning widens MaxRequests to SuccessThreshold.
	settings.MaxRequests = tuning.SuccessThreshold

	return &Breaker{tier: tier, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Execute runs fn through the breaker. If the breaker is Open or has
// exhausted its Half-Open probe budget, it returns ErrOpen without
// invoking fn.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrOpen
		}
		return nil, err
	}
	return result, nil
}

// State returns the breaker's current state.
func (b *Breaker) State() State {
	return fromGobreakerState(b.cb.State())
}

// Snapshot summarizes the breaker's state for circuit_status().
type Snapshot struct {
	Tier                string
	State               State
	ConsecutiveFailures uint32
	Requests            uint32
}

// Snapshot returns a point-in-time view of the breaker's counters.
func (b *Breaker) Snapshot() Snapshot {
	counts := b.cb.Counts()
	return Snapshot{
		Tier:                b.tier,
		State:               b.State(),
		ConsecutiveFailures: counts.ConsecutiveFailures,
		Requests:            counts.Requests,
	}
}

// ErrOpen is returned by Execute when the breaker rejects the call.
var ErrOpen = errors.New("circuit breaker open")
