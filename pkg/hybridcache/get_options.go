package hybridcache

import "time"

// GetOptions controls a single fallback read: which tiers to consult, how
// willing the caller is to accept stale or partial data, and how long to
// wait on a single tier attempt before moving on.
type GetOptions struct {
	// Tiers restricts the read to this subset, consulted in the order
	// given. Empty means every tier the engine was built with, in their
	// configured (fastest-first) order.
	Tiers []TierName

	// AllowStale permits returning an entry past its TTL. Defaults to
	// true: this is the common case for a slow, rate-limited origin.
	AllowStale bool

	// PartialAcceptable permits returning an entry still missing some of
	// its required fields after a repair attempt. Defaults to true.
	PartialAcceptable bool

	// RequiredFields overrides the value kind's default required-field
	// set for completeness checking and repair. Nil defers to the kind's
	// own strategy.
	RequiredFields []string

	// MaxStaleAge bounds how far past its TTL a stale entry may be and
	// still be served inline, rather than only via the emergency pass.
	MaxStaleAge time.Duration

	// Timeout bounds a single tier attempt.
	Timeout time.Duration
}

// DefaultGetOptions returns the engine's documented defaults.
func DefaultGetOptions() GetOptions {
	return GetOptions{
		AllowStale:        true,
		PartialAcceptable: true,
		MaxStaleAge:       24 * time.Hour,
		Timeout:           30 * time.Second,
	}
}

// includesTier reports whether tier should be consulted under these
// options: every tier, if Tiers is empty, or only the named ones.
func (o GetOptions) includesTier(tier TierName) bool {
	if len(o.Tiers) == 0 {
		return true
	}
	for _, t := range o.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Result is the envelope HybridEngine.Get hands back: the value plus the
// staleness/partial/provenance bookkeeping a caller needs to decide how
// much to trust it.
type Result struct {
	Value Value
	Tier  TierName

	IsStale     bool
	StalenessMs int64

	IsPartial     bool
	MissingFields []string
}

// resultFromEntry assembles a Result from a tier's Entry as of now.
func resultFromEntry(entry Entry, now time.Time) Result {
	return Result{
		Value:         entry.Value,
		Tier:          TierName(entry.Meta.SourceTier),
		IsStale:       entry.Meta.Stale || entry.Meta.IsExpired(now),
		StalenessMs:   entry.Meta.StalenessMs(now),
		IsPartial:     entry.Value.Partial,
		MissingFields: entry.Value.MissingFields,
	}
}
