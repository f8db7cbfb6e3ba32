package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
)

func entryOf(size int64) hybridcache.Entry {
	return hybridcache.Entry{
		Value: hybridcache.Value{Name: "button"},
		Meta:  hybridcache.Meta{CreatedAt: time.Now(), SizeBytes: size},
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	tier := New(0, PolicyLRU)

	key := cachekey.Key("component:react:button")
	if err := tier.Set(ctx, key, entryOf(10)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := tier.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value.Name != "button" {
		t.Fatalf("expected name %q, got %q", "button", got.Value.Name)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	tier := New(0, PolicyLRU)
	_, err := tier.Get(context.Background(), cachekey.Key("component:react:missing"))
	if !hybridcache.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestExpiredEntryIsStillReturnedByGet(t *testing.T) {
	ctx := context.Background()
	tier := New(0, PolicyLRU)
	key := cachekey.Key("component:react:button")

	entry := entryOf(1)
	entry.Meta.CreatedAt = time.Now().Add(-time.Hour)
	entry.Meta.TTLSeconds = 1
	if err := tier.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := tier.Get(ctx, key)
	if err != nil {
		t.Fatalf("expected an expired-but-present entry to still be returned, got %v", err)
	}
	if got.Value.Name != "button" {
		t.Fatalf("expected name %q, got %q", "button", got.Value.Name)
	}
	if !got.Meta.IsExpired(time.Now()) {
		t.Fatalf("expected the returned entry's Meta to report expiry")
	}
}

func TestCleanupEvictsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	tier := New(0, PolicyLRU)
	key := cachekey.Key("component:react:button")

	entry := entryOf(1)
	entry.Meta.CreatedAt = time.Now().Add(-time.Hour)
	entry.Meta.TTLSeconds = 1
	if err := tier.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := tier.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := tier.Get(ctx, key); !hybridcache.IsNotFound(err) {
		t.Fatalf("expected Cleanup to have evicted the expired entry, got %v", err)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	tier := New(25, PolicyLRU)

	a, b, c := cachekey.Key("component:react:a"), cachekey.Key("component:react:b"), cachekey.Key("component:react:c")
	_ = tier.Set(ctx, a, entryOf(10))
	_ = tier.Set(ctx, b, entryOf(10))

	// touch a so it is no longer the least-recently-used entry
	if _, err := tier.Get(ctx, a); err != nil {
		t.Fatalf("Get a: %v", err)
	}

	// adding c should evict b, not a, since a was just accessed
	if err := tier.Set(ctx, c, entryOf(10)); err != nil {
		t.Fatalf("Set c: %v", err)
	}

	if has, _ := tier.Has(ctx, a); !has {
		t.Fatalf("expected a to survive eviction")
	}
	if has, _ := tier.Has(ctx, b); has {
		t.Fatalf("expected b to be evicted")
	}
}

func TestFIFOEvictsOldestInsert(t *testing.T) {
	ctx := context.Background()
	tier := New(20, PolicyFIFO)

	a, b, c := cachekey.Key("component:react:a"), cachekey.Key("component:react:b"), cachekey.Key("component:react:c")
	_ = tier.Set(ctx, a, entryOf(10))
	_ = tier.Set(ctx, b, entryOf(10))

	// even though a is accessed, FIFO evicts by insertion order regardless
	_, _ = tier.Get(ctx, a)
	_ = tier.Set(ctx, c, entryOf(10))

	if has, _ := tier.Has(ctx, a); has {
		t.Fatalf("expected a (oldest insert) to be evicted under FIFO")
	}
	if has, _ := tier.Has(ctx, b); !has {
		t.Fatalf("expected b to survive")
	}
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	ctx := context.Background()
	tier := New(20, PolicyLFU)

	a, b, c := cachekey.Key("component:react:a"), cachekey.Key("component:react:b"), cachekey.Key("component:react:c")
	_ = tier.Set(ctx, a, entryOf(10))
	_ = tier.Set(ctx, b, entryOf(10))

	for i := 0; i < 5; i++ {
		_, _ = tier.Get(ctx, a)
	}

	_ = tier.Set(ctx, c, entryOf(10))

	if has, _ := tier.Has(ctx, a); !has {
		t.Fatalf("expected frequently-accessed a to survive")
	}
	if has, _ := tier.Has(ctx, b); has {
		t.Fatalf("expected least-frequently-used b to be evicted")
	}
}

func TestSetRejectsEntryLargerThanCapacity(t *testing.T) {
	tier := New(5, PolicyLRU)
	err := tier.Set(context.Background(), cachekey.Key("component:react:huge"), entryOf(10))
	if hErr, ok := err.(*hybridcache.Error); !ok || hErr.Kind != hybridcache.ErrKindCapacityExceeded {
		t.Fatalf("expected capacity-exceeded error, got %v", err)
	}
}

func TestKeysGlobMatchesColonDelimitedPattern(t *testing.T) {
	ctx := context.Background()
	tier := New(0, PolicyLRU)
	_ = tier.Set(ctx, cachekey.Key("component:react:button"), entryOf(1))
	_ = tier.Set(ctx, cachekey.Key("component:vue:button"), entryOf(1))
	_ = tier.Set(ctx, cachekey.Key("block:react:login-form"), entryOf(1))

	keys, err := tier.Keys(ctx, "component:react:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "component:react:button" {
		t.Fatalf("expected exactly [component:react:button], got %v", keys)
	}
}

func TestDisposeRejectsFurtherOperations(t *testing.T) {
	ctx := context.Background()
	tier := New(0, PolicyLRU)
	key := cachekey.Key("component:react:button")
	_ = tier.Set(ctx, key, entryOf(1))

	if err := tier.Dispose(ctx); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	_, err := tier.Get(ctx, key)
	hErr, ok := err.(*hybridcache.Error)
	if !ok || hErr.Kind != hybridcache.ErrKindDisposed {
		t.Fatalf("expected disposed error after Dispose, got %v", err)
	}
}

func TestSizeReportsUsedAndCapacity(t *testing.T) {
	ctx := context.Background()
	tier := New(100, PolicyLRU)
	_ = tier.Set(ctx, cachekey.Key("component:react:a"), entryOf(30))

	used, capacity, err := tier.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if used != 30 || capacity != 100 {
		t.Fatalf("expected used=30 capacity=100, got used=%d capacity=%d", used, capacity)
	}
}
