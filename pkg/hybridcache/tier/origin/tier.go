// Package origin wraps the remote registry behind the Tier interface so
// the engine's fallback chain can treat it like any other storage layer.
package origin

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/tier/memory"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/upstream"
)

// Options configures an origin Tier.
type Options struct {
	Adapter upstream.Adapter

	// RequestsPerSecond and Burst bound outbound calls to the slow,
	// rate-limited upstream; both are required as the origin tier makes
	// no sense unpaced.
	RequestsPerSecond float64
	Burst             int

	// CacheFetches, if true, caches successful fetches in-memory for
	// CacheTTL so a burst of identical misses only reaches the limiter
	// once. If false, get after set on a purely-origin path returns
	// not-found, per the tier contract.
	CacheFetches bool
	CacheTTL     time.Duration
	CacheBytes   int64
}

// Tier answers reads by translating a cachekey.Key into one of the
// adapter's narrow fetch calls. It never serves writes: IsWritable
// reports false, and Set/MSet are no-ops, since the remote registry is
// read-only from the engine's perspective.
type Tier struct {
	adapter upstream.Adapter
	limiter *rate.Limiter

	cache *memory.Tier // nil when CacheFetches is false
	ttl   time.Duration
}

func New(opts Options) *Tier {
	t := &Tier{
		adapter: opts.Adapter,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		ttl:     opts.CacheTTL,
	}
	if opts.CacheFetches {
		t.cache = memory.New(opts.CacheBytes, memory.PolicyLRU)
	}
	return t
}

func (t *Tier) Name() hybridcache.TierName { return hybridcache.TierOrigin }

func (t *Tier) IsWritable() bool { return false }

func (t *Tier) Get(ctx context.Context, key cachekey.Key) (hybridcache.Entry, error) {
	if t.cache != nil {
		if entry, err := t.cache.Get(ctx, key); err == nil && !entry.Meta.IsExpired(time.Now()) {
			entry.Meta.SourceTier = string(hybridcache.TierOrigin)
			return entry, nil
		}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return hybridcache.Entry{}, hybridcache.NewTimeoutError(key, err)
	}

	fields, err := cachekey.Parse(key)
	if err != nil {
		return hybridcache.Entry{}, hybridcache.NewMalformedKeyError(key, err)
	}

	value, err := t.fetch(ctx, fields)
	if err != nil {
		return hybridcache.Entry{}, classifyFetchError(key, err)
	}

	entry := hybridcache.Entry{
		Value: value,
		Meta: hybridcache.Meta{
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
			AccessedAt:  time.Now(),
			AccessCount: 1,
			SourceTier:  string(hybridcache.TierOrigin),
		},
	}

	if t.cache != nil {
		cacheEntry := entry
		cacheEntry.Meta.TTLSeconds = int64(t.ttl.Seconds())
		_ = t.cache.Set(ctx, key, cacheEntry)
	}

	return entry, nil
}

func (t *Tier) fetch(ctx context.Context, fields cachekey.Fields) (hybridcache.Value, error) {
	name := fields.Name
	switch fields.Kind {
	case cachekey.KindComponent:
		src, err := t.adapter.GetComponentSource(ctx, fields.Framework, name)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:                 hybridcache.ValueKindComponent,
			Name:                 src.Name,
			Framework:            src.Framework,
			Code:                 src.Code,
			Dependencies:         src.Dependencies,
			RegistryDependencies: src.RegistryDependencies,
		}, nil

	case cachekey.KindComponentDemo:
		demo, err := t.adapter.GetComponentDemo(ctx, fields.Framework, name)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:      hybridcache.ValueKindComponentDemo,
			Name:      demo.Name,
			Framework: demo.Framework,
			Demo:      demo.Demo,
		}, nil

	case cachekey.KindComponentMetadata:
		meta, err := t.adapter.GetComponentMetadata(ctx, fields.Framework, name)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:         hybridcache.ValueKindComponentMetadata,
			Name:         meta.Name,
			Framework:    meta.Framework,
			Type:         meta.Type,
			Description:  meta.Description,
			Tags:         meta.Tags,
			Dependencies: meta.Dependencies,
		}, nil

	case cachekey.KindBlock:
		includeComponents := len(fields.Variant) > 0 && fields.Variant[0] == "full"
		block, err := t.adapter.GetBlock(ctx, fields.Framework, name, includeComponents)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:        hybridcache.ValueKindBlock,
			Name:        block.Name,
			Framework:   block.Framework,
			Code:        block.Code,
			Description: block.Description,
			Tags:        block.Tags,
			Components:  block.Components,
		}, nil

	case cachekey.KindList:
		names, err := t.adapter.ListComponents(ctx, fields.Framework)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:       hybridcache.ValueKindList,
			Framework:  fields.Framework,
			Components: names,
		}, nil

	case cachekey.KindDirectory:
		parts := strings.SplitN(name, "/", 2)
		owner, repo := parts[0], ""
		if len(parts) == 2 {
			repo = parts[1]
		}
		var path, branch string
		if len(fields.Variant) > 0 {
			path = fields.Variant[0]
		}
		if len(fields.Variant) > 1 {
			branch = fields.Variant[1]
		}
		tree, err := t.adapter.BuildDirectoryTree(ctx, owner, repo, path, branch)
		if err != nil {
			return hybridcache.Value{}, err
		}
		return hybridcache.Value{
			Kind:      hybridcache.ValueKindDirectory,
			Name:      tree.Name,
			Framework: fields.Framework,
			Fields:    map[string]any{"tree": tree},
		}, nil

	default:
		return hybridcache.Value{}, hybridcache.NewMalformedKeyError(cachekey.Key(""), nil)
	}
}

func classifyFetchError(key cachekey.Key, err error) error {
	if ce, ok := err.(*hybridcache.Error); ok {
		return ce
	}
	return hybridcache.NewTransientIOError(key, err)
}

// Set is a no-op: the origin is read-only from the engine's perspective.
// Writing through this tier would silently pretend to persist data the
// remote registry never received.
func (t *Tier) Set(ctx context.Context, key cachekey.Key, entry hybridcache.Entry) error {
	return nil
}

func (t *Tier) MSet(ctx context.Context, entries map[cachekey.Key]hybridcache.Entry) error {
	return nil
}

func (t *Tier) Delete(ctx context.Context, key cachekey.Key) error {
	if t.cache != nil {
		return t.cache.Delete(ctx, key)
	}
	return nil
}

func (t *Tier) Has(ctx context.Context, key cachekey.Key) (bool, error) {
	if t.cache != nil {
		return t.cache.Has(ctx, key)
	}
	return false, nil
}

func (t *Tier) Keys(ctx context.Context, pattern string) ([]cachekey.Key, error) {
	if t.cache != nil {
		return t.cache.Keys(ctx, pattern)
	}
	return nil, nil
}

func (t *Tier) MGet(ctx context.Context, keys []cachekey.Key) (map[cachekey.Key]hybridcache.Entry, error) {
	out := make(map[cachekey.Key]hybridcache.Entry, len(keys))
	for _, k := range keys {
		if entry, err := t.Get(ctx, k); err == nil {
			out[k] = entry
		}
	}
	return out, nil
}

func (t *Tier) Metadata(ctx context.Context, key cachekey.Key) (hybridcache.Meta, error) {
	if t.cache != nil {
		return t.cache.Metadata(ctx, key)
	}
	return hybridcache.Meta{}, hybridcache.NewNotFoundError(key)
}

func (t *Tier) Size(ctx context.Context) (used, capacity int64, err error) {
	if t.cache != nil {
		return t.cache.Size(ctx)
	}
	return 0, 0, nil
}

func (t *Tier) Cleanup(ctx context.Context) error {
	if t.cache != nil {
		return t.cache.Cleanup(ctx)
	}
	return nil
}

func (t *Tier) Dispose(ctx context.Context) error {
	if t.cache != nil {
		return t.cache.Dispose(ctx)
	}
	return nil
}
