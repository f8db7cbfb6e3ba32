package hybridcache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/breaker"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/tier/memory"
)

func newTestEngine(t *testing.T, strategy WriteStrategy) *Engine {
	t.Helper()
	tier := memory.New(0, memory.PolicyLRU)
	b := breaker.New("memory", breaker.MemoryTuning, nil)

	e := New(EngineOptions{
		Tiers:         []Tier{tier},
		Breakers:      []*breaker.Breaker{b},
		Strategy:      strategy,
		QueueSize:     16,
		FlushInterval: 20 * time.Millisecond,
		DrainTimeout:  time.Second,
	})
	require.NoError(t, e.Initialize(context.Background()))
	t.Cleanup(func() { _ = e.Dispose(context.Background()) })
	return e
}

func TestGetReturnsNotFoundWithoutFetcher(t *testing.T) {
	e := newTestEngine(t, ReadThrough)
	_, err := e.Get(context.Background(), cachekey.Key("component:react:button"), nil, DefaultGetOptions())
	assert.True(t, IsNotFound(err))
}

func TestGetInvokesFetcherOnMissAndPopulatesCache(t *testing.T) {
	e := newTestEngine(t, ReadThrough)
	key := cachekey.Key("component:react:button")

	var calls atomic.Int32
	fetcher := func(ctx context.Context) (Value, error) {
		calls.Add(1)
		return Value{Kind: ValueKindComponent, Name: "button", Code: "export function Button() {}"}, nil
	}

	res, err := e.Get(context.Background(), key, fetcher, DefaultGetOptions())
	require.NoError(t, err)
	assert.Equal(t, "button", res.Value.Name)

	res2, err := e.Get(context.Background(), key, fetcher, DefaultGetOptions())
	require.NoError(t, err)
	assert.Equal(t, "button", res2.Value.Name)
	assert.EqualValues(t, 1, calls.Load(), "second Get should be served from cache, not the fetcher")
}

func TestGetDeduplicatesConcurrentFetchesForSameKey(t *testing.T) {
	e := newTestEngine(t, ReadThrough)
	key := cachekey.Key("component:react:button")

	var calls atomic.Int32
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (Value, error) {
		calls.Add(1)
		<-release
		return Value{Kind: ValueKindComponent, Name: "button", Code: "code"}, nil
	}

	results := make(chan Value, 5)
	for i := 0; i < 5; i++ {
		go func() {
			res, err := e.Get(context.Background(), key, fetcher, DefaultGetOptions())
			require.NoError(t, err)
			results <- res.Value
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 5; i++ {
		v := <-results
		assert.Equal(t, "button", v.Name)
	}
	assert.EqualValues(t, 1, calls.Load(), "concurrent Gets for the same key must collapse onto one fetch")
}

func TestGetPropagatesFetcherError(t *testing.T) {
	e := newTestEngine(t, ReadThrough)
	key := cachekey.Key("component:react:missing")

	wantErr := fmt.Errorf("upstream unreachable")
	_, err := e.Get(context.Background(), key, func(ctx context.Context) (Value, error) {
		return Value{}, wantErr
	}, DefaultGetOptions())
	assert.ErrorIs(t, err, wantErr)
}

func TestSetThenGetRoundTripsUnderWriteThrough(t *testing.T) {
	e := newTestEngine(t, WriteThrough)
	key := cachekey.Key("component:react:button")

	v := Value{Kind: ValueKindComponent, Name: "button", Code: "code"}
	require.NoError(t, e.Set(context.Background(), key, v, time.Minute))

	got, err := e.Get(context.Background(), key, nil, DefaultGetOptions())
	require.NoError(t, err)
	assert.Equal(t, "button", got.Value.Name)
	assert.Equal(t, TierMemory, got.Tier)
	assert.False(t, got.IsStale)
}

func TestGetReportsStalenessAndSourceTierOnStaleHit(t *testing.T) {
	e := newTestEngine(t, WriteThrough)
	key := cachekey.Key("component:react:button")

	v := Value{Kind: ValueKindComponent, Name: "button", Code: "code"}
	require.NoError(t, e.Set(context.Background(), key, v, time.Second))
	time.Sleep(1100 * time.Millisecond)

	got, err := e.Get(context.Background(), key, nil, DefaultGetOptions())
	require.NoError(t, err)
	assert.Equal(t, "button", got.Value.Name)
	assert.True(t, got.IsStale, "an entry past its TTL must be reported stale when AllowStale permits serving it")
	assert.Equal(t, TierMemory, got.Tier)
	assert.GreaterOrEqual(t, got.StalenessMs, int64(0))
}

func TestGetReportsPartialValueAndMissingFields(t *testing.T) {
	e := newTestEngine(t, WriteThrough)
	key := cachekey.Key("component:react:button")

	v := Value{Kind: ValueKindComponent, Name: "button", Partial: true, MissingFields: []string{"code"}}
	require.NoError(t, e.Set(context.Background(), key, v, time.Minute))

	got, err := e.Get(context.Background(), key, nil, DefaultGetOptions())
	require.NoError(t, err)
	assert.True(t, got.IsPartial)
	assert.Contains(t, got.MissingFields, "code")
}

func TestWriteBehindQueuesAndDrains(t *testing.T) {
	tier := memory.New(0, memory.PolicyLRU)
	b := breaker.New("memory", breaker.MemoryTuning, nil)
	e := New(EngineOptions{
		Tiers:         []Tier{tier},
		Breakers:      []*breaker.Breaker{b},
		Strategy:      WriteBehind,
		QueueSize:     16,
		FlushInterval: 10 * time.Millisecond,
		DrainTimeout:  time.Second,
	})
	require.NoError(t, e.Initialize(context.Background()))
	defer e.Dispose(context.Background())

	key := cachekey.Key("component:react:button")
	v := Value{Kind: ValueKindComponent, Name: "button", Code: "code"}
	require.NoError(t, e.Set(context.Background(), key, v, time.Minute))

	got, err := e.Get(context.Background(), key, nil, DefaultGetOptions())
	require.NoError(t, err)
	assert.Equal(t, "button", got.Value.Name, "the single writable tier is written synchronously even under write-behind")
}

func TestInvalidateDeletesMatchingKeys(t *testing.T) {
	e := newTestEngine(t, WriteThrough)
	ctx := context.Background()

	require.NoError(t, e.Set(ctx, cachekey.Key("component:react:button"), Value{Kind: ValueKindComponent, Name: "button"}, time.Minute))
	require.NoError(t, e.Set(ctx, cachekey.Key("component:vue:button"), Value{Kind: ValueKindComponent, Name: "button"}, time.Minute))

	require.NoError(t, e.Invalidate(ctx, "component:react:*"))

	_, err := e.Get(ctx, cachekey.Key("component:react:button"), nil, DefaultGetOptions())
	assert.True(t, IsNotFound(err))

	_, err = e.Get(ctx, cachekey.Key("component:vue:button"), nil, DefaultGetOptions())
	assert.NoError(t, err)
}

func TestStatsReportsTierUsageAndDedup(t *testing.T) {
	e := newTestEngine(t, WriteThrough)
	ctx := context.Background()
	require.NoError(t, e.Set(ctx, cachekey.Key("component:react:button"), Value{Kind: ValueKindComponent, Name: "button"}, time.Minute))

	stats := e.Stats(ctx)
	assert.Contains(t, stats.Tiers, TierMemory)
}

func TestCircuitStatusReflectsEveryConfiguredBreaker(t *testing.T) {
	e := newTestEngine(t, ReadThrough)
	snaps := e.CircuitStatus()
	require.Len(t, snaps, 1)
	assert.Equal(t, "memory", snaps[0].Tier)
	assert.Equal(t, breaker.StateClosed, snaps[0].State)
}

func TestDisposeRejectsFurtherOperations(t *testing.T) {
	tier := memory.New(0, memory.PolicyLRU)
	b := breaker.New("memory", breaker.MemoryTuning, nil)
	e := New(EngineOptions{Tiers: []Tier{tier}, Breakers: []*breaker.Breaker{b}, Strategy: ReadThrough})
	require.NoError(t, e.Initialize(context.Background()))
	require.NoError(t, e.Dispose(context.Background()))

	_, err := e.Get(context.Background(), cachekey.Key("component:react:button"), nil, DefaultGetOptions())
	var cacheErr *Error
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, ErrKindDisposed, cacheErr.Kind)
}

func TestNotificationsIsEmptyWhenNothingDegraded(t *testing.T) {
	e := newTestEngine(t, WriteBehind)
	assert.Empty(t, e.Notifications(time.Hour, time.Now()))
}
