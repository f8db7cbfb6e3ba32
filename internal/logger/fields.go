package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so engine logs
// aggregate and query cleanly regardless of which component emitted them.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Engine Operations
	// ========================================================================
	KeyOperation = "operation" // Engine operation: get, get_many, set, invalidate
	KeyKind      = "kind"      // Resource kind: component, component-demo, component-metadata, block, list, directory
	KeyCacheKey  = "cache_key" // Canonical cache key fingerprint
	KeyFramework = "framework" // Component framework filter
	KeyStale     = "stale"     // Whether the returned value is past its TTL
	KeyPartial   = "partial"   // Whether the returned value is a partial repair

	// ========================================================================
	// Tiers
	// ========================================================================
	KeyTier         = "tier"          // Tier name: memory, persistent, origin
	KeyTierHit      = "tier_hit"      // Tier hit indicator
	KeyTierSize     = "tier_size"     // Current tier entry count or byte size
	KeyTierCapacity = "tier_capacity" // Maximum tier capacity
	KeyEvicted      = "evicted"       // Number of entries evicted
	KeyEvictionPol  = "eviction_policy"

	// ========================================================================
	// Deduplication
	// ========================================================================
	KeyDedupJoined = "dedup_joined" // Whether this call joined an in-flight request
	KeyDedupKey    = "dedup_key"    // Deduplication key (same as cache key)

	// ========================================================================
	// Circuit Breaker & Recovery
	// ========================================================================
	KeyCircuitTier  = "circuit_tier"  // Tier the circuit breaker guards
	KeyCircuitState = "circuit_state" // open, closed, half_open
	KeyAttempt      = "attempt"       // Retry attempt number
	KeyMaxRetries   = "max_retries"   // Maximum retry attempts
	KeyBackoff      = "backoff_ms"    // Backoff delay before the next attempt
	KeyErrorKind    = "error_kind"    // terminal, retryable, unknown

	// ========================================================================
	// Notifications
	// ========================================================================
	KeyEventType   = "event_type"   // Degraded-mode event taxonomy value
	KeySeverity    = "severity"     // info, warning, error, critical
	KeyActiveCount = "active_count" // Number of currently active issues

	// ========================================================================
	// Storage Backends
	// ========================================================================
	KeyStoreName = "store_name" // Named persistent store backend: badger, sqlite
	KeyStorePath = "store_path" // On-disk path for the backend
	KeyDBSize    = "db_size"    // On-disk database size in bytes

	// ========================================================================
	// Upstream / Origin
	// ========================================================================
	KeyUpstreamPath = "upstream_path" // Path passed to the upstream adapter
	KeyRateLimited  = "rate_limited"  // Whether the call was delayed by the rate limiter

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeySource     = "source"      // Data source: cache, tier, origin
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Engine Operations
// ----------------------------------------------------------------------------

// Operation returns a slog.Attr for the engine operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Kind returns a slog.Attr for the resource kind
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// CacheKey returns a slog.Attr for the canonical cache key fingerprint
func CacheKey(key string) slog.Attr {
	return slog.String(KeyCacheKey, key)
}

// Framework returns a slog.Attr for the component framework filter
func Framework(name string) slog.Attr {
	return slog.String(KeyFramework, name)
}

// Stale returns a slog.Attr indicating a value was served past its TTL
func Stale(stale bool) slog.Attr {
	return slog.Bool(KeyStale, stale)
}

// Partial returns a slog.Attr indicating a value is a partial repair
func Partial(partial bool) slog.Attr {
	return slog.Bool(KeyPartial, partial)
}

// ----------------------------------------------------------------------------
// Tiers
// ----------------------------------------------------------------------------

// Tier returns a slog.Attr for the tier name
func Tier(name string) slog.Attr {
	return slog.String(KeyTier, name)
}

// TierHit returns a slog.Attr for a tier hit indicator
func TierHit(hit bool) slog.Attr {
	return slog.Bool(KeyTierHit, hit)
}

// TierSize returns a slog.Attr for the current tier size
func TierSize(size int64) slog.Attr {
	return slog.Int64(KeyTierSize, size)
}

// TierCapacity returns a slog.Attr for the maximum tier capacity
func TierCapacity(capacity int64) slog.Attr {
	return slog.Int64(KeyTierCapacity, capacity)
}

// Evicted returns a slog.Attr for the number of entries evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// EvictionPolicy returns a slog.Attr for the tier's eviction policy
func EvictionPolicy(policy string) slog.Attr {
	return slog.String(KeyEvictionPol, policy)
}

// ----------------------------------------------------------------------------
// Deduplication
// ----------------------------------------------------------------------------

// DedupJoined returns a slog.Attr indicating a joined in-flight request
func DedupJoined(joined bool) slog.Attr {
	return slog.Bool(KeyDedupJoined, joined)
}

// DedupKey returns a slog.Attr for the deduplication key
func DedupKey(key string) slog.Attr {
	return slog.String(KeyDedupKey, key)
}

// ----------------------------------------------------------------------------
// Circuit Breaker & Recovery
// ----------------------------------------------------------------------------

// CircuitTier returns a slog.Attr for the tier a circuit breaker guards
func CircuitTier(name string) slog.Attr {
	return slog.String(KeyCircuitTier, name)
}

// CircuitState returns a slog.Attr for the circuit breaker state
func CircuitState(state string) slog.Attr {
	return slog.String(KeyCircuitState, state)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// Backoff returns a slog.Attr for the backoff delay before the next attempt
func Backoff(ms int64) slog.Attr {
	return slog.Int64(KeyBackoff, ms)
}

// ErrorKind returns a slog.Attr for the classified error kind
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// ----------------------------------------------------------------------------
// Notifications
// ----------------------------------------------------------------------------

// EventType returns a slog.Attr for a degraded-mode event type
func EventType(t string) slog.Attr {
	return slog.String(KeyEventType, t)
}

// Severity returns a slog.Attr for event severity
func Severity(s string) slog.Attr {
	return slog.String(KeySeverity, s)
}

// ActiveCount returns a slog.Attr for the number of active issues
func ActiveCount(n int) slog.Attr {
	return slog.Int(KeyActiveCount, n)
}

// ----------------------------------------------------------------------------
// Storage Backends
// ----------------------------------------------------------------------------

// StoreName returns a slog.Attr for the named persistent store backend
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StorePath returns a slog.Attr for the backend's on-disk path
func StorePath(path string) slog.Attr {
	return slog.String(KeyStorePath, path)
}

// DBSize returns a slog.Attr for the on-disk database size
func DBSize(bytes int64) slog.Attr {
	return slog.Int64(KeyDBSize, bytes)
}

// ----------------------------------------------------------------------------
// Upstream / Origin
// ----------------------------------------------------------------------------

// UpstreamPath returns a slog.Attr for the path passed to the upstream adapter
func UpstreamPath(path string) slog.Attr {
	return slog.String(KeyUpstreamPath, path)
}

// RateLimited returns a slog.Attr indicating the call was delayed by the rate limiter
func RateLimited(limited bool) slog.Attr {
	return slog.Bool(KeyRateLimited, limited)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Source returns a slog.Attr for data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}
