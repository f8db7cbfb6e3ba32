package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("origin", Tuning{FailureThreshold: 2, OpenTimeout: 50 * time.Millisecond, SuccessThreshold: 1}, nil)

	failing := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }

	for i := 0; i < 2; i++ {
		if _, err := b.Execute(context.Background(), failing); err == nil {
			t.Fatalf("attempt %d: expected failure to propagate", i)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("expected breaker to be Open after threshold, got %s", b.State())
	}

	_, err := b.Execute(context.Background(), func(ctx context.Context) (any, error) {
		t.Fatal("fn must not be invoked while breaker is open")
		return nil, nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := New("origin", Tuning{FailureThreshold: 1, OpenTimeout: 20 * time.Millisecond, SuccessThreshold: 1}, nil)

	_, _ = b.Execute(context.Background(), func(ctx context.Context) (any, error) { return nil, errors.New("boom") })
	if b.State() != StateOpen {
		t.Fatalf("expected breaker Open, got %s", b.State())
	}

	time.Sleep(30 * time.Millisecond)

	result, err := b.Execute(context.Background(), func(ctx context.Context) (any, error) { return "ok", nil })
	if err != nil {
		t.Fatalf("expected Half-Open probe to succeed, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected result %q, got %v", "ok", result)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected breaker Closed after successful probe, got %s", b.State())
	}
}

func TestBreakerOnTransitionCallback(t *testing.T) {
	var transitions []string
	onTransition := func(tier string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}

	b := New("memory", Tuning{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond, SuccessThreshold: 1}, onTransition)
	_, _ = b.Execute(context.Background(), func(ctx context.Context) (any, error) { return nil, errors.New("boom") })

	if len(transitions) == 0 {
		t.Fatal("expected at least one transition to be recorded")
	}
	if transitions[0] != "closed->open" {
		t.Fatalf("expected first transition closed->open, got %s", transitions[0])
	}
}

func TestSnapshotReportsConsecutiveFailures(t *testing.T) {
	b := New("persistent", Tuning{FailureThreshold: 5, OpenTimeout: time.Second, SuccessThreshold: 1}, nil)

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(context.Background(), func(ctx context.Context) (any, error) { return nil, errors.New("boom") })
	}

	snap := b.Snapshot()
	if snap.Tier != "persistent" {
		t.Fatalf("expected tier persistent, got %s", snap.Tier)
	}
	if snap.ConsecutiveFailures != 3 {
		t.Fatalf("expected 3 consecutive failures, got %d", snap.ConsecutiveFailures)
	}
	if snap.State != StateClosed {
		t.Fatalf("expected breaker still Closed below threshold, got %s", snap.State)
	}
}
