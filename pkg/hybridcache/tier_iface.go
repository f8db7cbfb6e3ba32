package hybridcache

import (
	"context"
	"time"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
)

// TierName identifies one of the engine's three storage tiers.
type TierName string

const (
	TierMemory     TierName = "memory"
	TierPersistent TierName = "persistent"
	TierOrigin     TierName = "origin"
)

// Tier is the capability set every storage layer implements: an in-process
// bounded cache, a durable on-disk store, or the remote registry itself.
// The engine addresses every tier through this interface and never reaches
// into a concrete implementation's internals.
type Tier interface {
	Name() TierName

	Get(ctx context.Context, key cachekey.Key) (Entry, error)
	Set(ctx context.Context, key cachekey.Key, entry Entry) error
	Delete(ctx context.Context, key cachekey.Key) error
	Has(ctx context.Context, key cachekey.Key) (bool, error)

	// Keys lists keys matching pattern, a glob over the colon-delimited
	// fingerprint (e.g. "component:react:*"). An empty pattern matches
	// every key.
	Keys(ctx context.Context, pattern string) ([]cachekey.Key, error)

	MGet(ctx context.Context, keys []cachekey.Key) (map[cachekey.Key]Entry, error)
	MSet(ctx context.Context, entries map[cachekey.Key]Entry) error

	Metadata(ctx context.Context, key cachekey.Key) (Meta, error)

	// Size reports the tier's current usage and configured capacity, both
	// in bytes (the origin tier reports its optional fetch cache, or 0/0
	// without one). A capacity of 0 means unbounded.
	Size(ctx context.Context) (used, capacity int64, err error)

	// Cleanup evicts expired entries and reclaims space. Tiers that have
	// no notion of background cleanup may no-op.
	Cleanup(ctx context.Context) error

	// Dispose releases resources held by the tier (file handles, DB
	// connections, background goroutines). The memory and persistent
	// tiers return ErrKindDisposed from their data operations once
	// disposed; Size still answers.
	Dispose(ctx context.Context) error
}

// Writable is a Tier that reports whether it accepts engine-initiated
// writes. origin.Tier reports false: Set/MSet on it are no-ops, since the
// remote registry is never written to by the engine.
type Writable interface {
	Tier
	IsWritable() bool
}

// DefaultTierTimeout bounds a single tier call when the caller's context
// carries no deadline of its own.
const DefaultTierTimeout = 30 * time.Second
