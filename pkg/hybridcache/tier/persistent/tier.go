// Package persistent implements the engine's durable, on-disk tier on top
// of an embedded BadgerDB instance.
package persistent

import (
	"context"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
)

// Options configures a persistent Tier at construction time.
type Options struct {
	Path           string
	CapacityBytes  int64 // 0 = unbounded
	VacuumInterval time.Duration
	SyncWrites     bool // maps to Badger's WAL setting
}

// Tier is a durable, size-capped key-value cache backed by BadgerDB.
// Records are written with no Badger-native TTL: Badger never purges them
// on its own. Expiry and staleness are both derived purely from the
// Meta.CreatedAt/TTLSeconds a record carries, the same way the fallback
// chain serves stale reads from any other tier.
type Tier struct {
	db       *badger.DB
	capacity int64
	used     atomic.Int64

	vacuumStop chan struct{}
	vacuumWG   sync.WaitGroup

	disposed atomic.Bool
}

// Open opens (creating if necessary) a BadgerDB-backed persistent tier at
// opts.Path, runs any pending schema migration, and starts the background
// vacuum loop.
func Open(opts Options) (*Tier, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %q: %w", opts.Path, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	t := &Tier{
		db:         db,
		capacity:   opts.CapacityBytes,
		vacuumStop: make(chan struct{}),
	}
	t.used.Store(computeUsedBytes(db))

	interval := opts.VacuumInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	t.vacuumWG.Add(1)
	go t.vacuumLoop(interval)

	return t, nil
}

func (t *Tier) Name() hybridcache.TierName { return hybridcache.TierPersistent }

func (t *Tier) IsWritable() bool { return true }

func (t *Tier) Get(ctx context.Context, key cachekey.Key) (hybridcache.Entry, error) {
	if t.disposed.Load() {
		return hybridcache.Entry{}, hybridcache.NewDisposedError(key)
	}

	var entry hybridcache.Entry
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyRecord(key))
		if err == badger.ErrKeyNotFound {
			return hybridcache.NewNotFoundError(key)
		}
		if err != nil {
			return hybridcache.NewTransientIOError(key, err)
		}
		return item.Value(func(val []byte) error {
			r, decErr := decodeRecord(val)
			if decErr != nil {
				return hybridcache.NewTransientIOError(key, decErr)
			}
			entry = fromRecord(r)
			return nil
		})
	})
	if err != nil {
		return hybridcache.Entry{}, err
	}

	entry.Meta.AccessedAt = time.Now()
	entry.Meta.AccessCount++
	go t.touch(key, entry.Meta.AccessedAt, entry.Meta.AccessCount)

	return entry, nil
}

// touch persists the updated access bookkeeping without holding up the
// caller's read; a lost update under concurrent access only skews
// access-count stats, never correctness.
func (t *Tier) touch(key cachekey.Key, accessedAt time.Time, accessCount uint64) {
	_ = t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyRecord(key))
		if err != nil {
			return nil
		}
		return item.Value(func(val []byte) error {
			r, decErr := decodeRecord(val)
			if decErr != nil {
				return nil
			}
			r.AccessedAt = accessedAt.UnixMilli()
			r.AccessCount = accessCount
			encoded, encErr := encodeRecord(r)
			if encErr != nil {
				return nil
			}
			entry := txn.NewEntry(keyRecord(key), encoded)
			return txn.SetEntry(entry)
		})
	})
}

func (t *Tier) Set(ctx context.Context, key cachekey.Key, entry hybridcache.Entry) error {
	if t.disposed.Load() {
		return hybridcache.NewDisposedError(key)
	}
	if t.capacity > 0 && entry.Meta.SizeBytes > t.capacity {
		return hybridcache.NewCapacityExceededError(key, string(hybridcache.TierPersistent))
	}

	r := toRecord(entry)
	encoded, err := encodeRecord(r)
	if err != nil {
		return hybridcache.NewTransientIOError(key, err)
	}

	fields, parseErr := cachekey.Parse(key)

	var sizeDelta int64
	err = t.db.Update(func(txn *badger.Txn) error {
		if prev, getErr := txn.Get(keyRecord(key)); getErr == nil {
			_ = prev.Value(func(val []byte) error {
				if old, decErr := decodeRecord(val); decErr == nil {
					sizeDelta -= old.SizeBytes
				}
				return nil
			})
		}

		e := txn.NewEntry(keyRecord(key), encoded)
		if err := txn.SetEntry(e); err != nil {
			return err
		}
		sizeDelta += entry.Meta.SizeBytes

		if parseErr == nil && isUniquenessKind(entry.Value.Kind) {
			if err := txn.Set(keyIndex(fields.Framework, fields.Name), []byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return hybridcache.NewTransientIOError(key, err)
	}

	t.used.Add(sizeDelta)
	return nil
}

func (t *Tier) Delete(ctx context.Context, key cachekey.Key) error {
	if t.disposed.Load() {
		return hybridcache.NewDisposedError(key)
	}

	var freed int64
	err := t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyRecord(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		_ = item.Value(func(val []byte) error {
			if r, decErr := decodeRecord(val); decErr == nil {
				freed = r.SizeBytes
				if isUniquenessKind(hybridcache.ValueKind(r.Kind)) {
					_ = txn.Delete(keyIndex(r.Framework, r.Name))
				}
			}
			return nil
		})
		return txn.Delete(keyRecord(key))
	})
	if err != nil {
		return hybridcache.NewTransientIOError(key, err)
	}
	t.used.Add(-freed)
	return nil
}

func (t *Tier) Has(ctx context.Context, key cachekey.Key) (bool, error) {
	if t.disposed.Load() {
		return false, hybridcache.NewDisposedError(key)
	}
	found := false
	err := t.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyRecord(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, hybridcache.NewTransientIOError(key, err)
	}
	return found, nil
}

// Keys supports only "*" and "?" glob wildcards (path.Match semantics), per
// design notes — richer POSIX classes are out of scope.
func (t *Tier) Keys(ctx context.Context, pattern string) ([]cachekey.Key, error) {
	if t.disposed.Load() {
		return nil, hybridcache.NewDisposedError("")
	}

	var out []cachekey.Key
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyRecordPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			raw := string(it.Item().Key()[len(prefixRecord):])
			if pattern == "" {
				out = append(out, cachekey.Key(raw))
				continue
			}
			if matched, matchErr := path.Match(pattern, raw); matchErr == nil && matched {
				out = append(out, cachekey.Key(raw))
			}
		}
		return nil
	})
	if err != nil {
		return nil, hybridcache.NewTransientIOError("", err)
	}
	return out, nil
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

// MSet writes every entry inside a single Badger transaction: either all
// records land, or the transaction is discarded and none do.
func (t *Tier) MSet(ctx context.Context, entries map[cachekey.Key]hybridcache.Entry) error {
	if t.disposed.Load() {
		return hybridcache.NewDisposedError("")
	}

	var sizeDelta int64
	err := t.db.Update(func(txn *badger.Txn) error {
		for key, entry := range entries {
			r := toRecord(entry)
			encoded, encErr := encodeRecord(r)
			if encErr != nil {
				return encErr
			}

			if prev, getErr := txn.Get(keyRecord(key)); getErr == nil {
				_ = prev.Value(func(val []byte) error {
					if old, decErr := decodeRecord(val); decErr == nil {
						sizeDelta -= old.SizeBytes
					}
					return nil
				})
			}

			e := txn.NewEntry(keyRecord(key), encoded)
			if err := txn.SetEntry(e); err != nil {
				return err
			}
			sizeDelta += entry.Meta.SizeBytes

			if fields, parseErr := cachekey.Parse(key); parseErr == nil && isUniquenessKind(entry.Value.Kind) {
				if err := txn.Set(keyIndex(fields.Framework, fields.Name), []byte(key)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return hybridcache.NewTransientIOError("", err)
	}
	t.used.Add(sizeDelta)
	return nil
}

func (t *Tier) Metadata(ctx context.Context, key cachekey.Key) (hybridcache.Meta, error) {
	entry, err := t.Get(ctx, key)
	if err != nil {
		return hybridcache.Meta{}, err
	}
	return entry.Meta, nil
}

func (t *Tier) Size(ctx context.Context) (used, capacity int64, err error) {
	return t.used.Load(), t.capacity, nil
}

// Cleanup runs Badger's value-log GC once, reclaiming space left behind by
// deleted/overwritten records. The background vacuum loop calls this on a
// timer; callers may also invoke it eagerly.
func (t *Tier) Cleanup(ctx context.Context) error {
	if t.disposed.Load() {
		return hybridcache.NewDisposedError("")
	}
	err := t.db.RunValueLogGC(0.5)
	if err != nil && err != badger.ErrNoRewrite {
		return hybridcache.NewTransientIOError("", err)
	}
	return nil
}

func (t *Tier) Dispose(ctx context.Context) error {
	if !t.disposed.CompareAndSwap(false, true) {
		return nil
	}
	close(t.vacuumStop)
	t.vacuumWG.Wait()
	return t.db.Close()
}

func (t *Tier) vacuumLoop(interval time.Duration) {
	defer t.vacuumWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.vacuumStop:
			return
		case <-ticker.C:
			if err := t.Cleanup(context.Background()); err != nil {
				logger.Warn("persistent tier vacuum failed", "error", err)
			}
		}
	}
}

func isUniquenessKind(k hybridcache.ValueKind) bool {
	return k == hybridcache.ValueKindComponent || k == hybridcache.ValueKindBlock
}

func computeUsedBytes(db *badger.DB) int64 {
	var total int64
	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = keyRecordPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			_ = it.Item().Value(func(val []byte) error {
				if r, err := decodeRecord(val); err == nil {
					total += r.SizeBytes
				}
				return nil
			})
		}
		return nil
	})
	return total
}
