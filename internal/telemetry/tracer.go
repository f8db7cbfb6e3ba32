package telemetry

// Common attribute keys for engine spans, following OpenTelemetry semantic
// convention style (dotted, lower-case namespaces).
const (
	AttrCacheKey     = "cache.key"
	AttrCacheKind    = "cache.kind"
	AttrCacheHit     = "cache.hit"
	AttrCacheTier    = "cache.tier"
	AttrCacheStale   = "cache.stale"
	AttrCachePartial = "cache.partial"
	AttrCacheSize    = "cache.size_bytes"
	AttrCircuitState = "circuit.state"
	AttrDedupJoined  = "dedup.joined"
	AttrRetryAttempt = "recovery.attempt"
	AttrErrorKind    = "error.kind"
)

// Span names for the engine's own operations.
const (
	SpanEngineGet        = "hybridcache.get"
	SpanEngineGetMany    = "hybridcache.get_many"
	SpanEngineSet        = "hybridcache.set"
	SpanEngineInvalidate = "hybridcache.invalidate"
	SpanFallbackChain    = "hybridcache.fallback_chain"
	SpanTierGet          = "hybridcache.tier_get"
	SpanRecoveryExecute  = "hybridcache.recovery_execute"
	SpanPartialRepair    = "hybridcache.partial_repair"
	SpanOriginFetch      = "hybridcache.origin_fetch"
)
