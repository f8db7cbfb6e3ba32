package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a single cache
// operation as it flows through dedup, the fallback chain, and the tiers.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Operation string    // Engine operation: get, get_many, set, invalidate
	Kind      string    // Resource kind: component, component-demo, component-metadata, block, list, directory
	Key       string    // Canonical cache key fingerprint
	Tier      string    // Tier currently handling the request: memory, persistent, origin
	Framework string    // Component framework filter, when applicable
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for an operation against a key.
func NewLogContext(operation, key string) *LogContext {
	return &LogContext{
		Operation: operation,
		Key:       key,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		SpanID:    lc.SpanID,
		Operation: lc.Operation,
		Kind:      lc.Kind,
		Key:       lc.Key,
		Tier:      lc.Tier,
		Framework: lc.Framework,
		StartTime: lc.StartTime,
	}
}

// WithKind returns a copy with the resource kind set
func (lc *LogContext) WithKind(kind string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Kind = kind
	}
	return clone
}

// WithTier returns a copy with the active tier set
func (lc *LogContext) WithTier(tier string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Tier = tier
	}
	return clone
}

// WithFramework returns a copy with the framework filter set
func (lc *LogContext) WithFramework(framework string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Framework = framework
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
