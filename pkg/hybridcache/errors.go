package hybridcache

import (
	"fmt"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
)

// ErrorKind is the closed set of discriminants the engine can surface.
// Every error the engine returns to a caller carries one of these.
type ErrorKind int

const (
	// ErrKindNotFound means the key is absent in the addressed tier. Never
	// retried; never propagated past the fallback chain on its own.
	ErrKindNotFound ErrorKind = iota

	// ErrKindUnauthorized means the upstream rejected credentials.
	ErrKindUnauthorized

	// ErrKindForbidden means the upstream rejected the request as disallowed.
	ErrKindForbidden

	// ErrKindCircuitOpen means a tier's breaker rejected the call outright.
	ErrKindCircuitOpen

	// ErrKindTimeout means a tier call exceeded its window.
	ErrKindTimeout

	// ErrKindTransientIO means connection-refused, DNS failure, or 5xx.
	ErrKindTransientIO

	// ErrKindMalformedKey means the KeyCodec rejected the fingerprint.
	ErrKindMalformedKey

	// ErrKindCapacityExceeded means a write violated a tier's capacity.
	ErrKindCapacityExceeded

	// ErrKindPartialResult means required fields were absent and repair
	// did not complete them.
	ErrKindPartialResult

	// ErrKindAllTiersFailed means the fallback chain exhausted every tier.
	ErrKindAllTiersFailed

	// ErrKindRecoveryFailed means the RecoveryManager exhausted its retries.
	ErrKindRecoveryFailed

	// ErrKindDisposed means the operation targeted a disposed engine or tier.
	ErrKindDisposed
)

// String renders the error kind the way it appears in logs and notifications.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not-found"
	case ErrKindUnauthorized:
		return "unauthorized"
	case ErrKindForbidden:
		return "forbidden"
	case ErrKindCircuitOpen:
		return "circuit-open"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindTransientIO:
		return "transient-io"
	case ErrKindMalformedKey:
		return "malformed-key"
	case ErrKindCapacityExceeded:
		return "capacity-exceeded"
	case ErrKindPartialResult:
		return "partial-result"
	case ErrKindAllTiersFailed:
		return "all-tiers-failed"
	case ErrKindRecoveryFailed:
		return "recovery-failed"
	case ErrKindDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Error is the single error type the engine returns across every public
// entry point. It wraps an optional cause so errors.Is/errors.As still see
// through to the originating error.
type Error struct {
	Kind    ErrorKind
	Message string
	Key     cachekey.Key
	Cause   error
}

func (e *Error) Error() string {
	if e.Key != "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (key=%s): %v", e.Kind, e.Message, e.Key, e.Cause)
		}
		return fmt.Sprintf("%s: %s (key=%s)", e.Kind, e.Message, e.Key)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, &hybridcache.Error{Kind: hybridcache.ErrKindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewNotFoundError builds an Error for a key absent in a tier.
func NewNotFoundError(key cachekey.Key) *Error {
	return &Error{Kind: ErrKindNotFound, Message: "key not found", Key: key}
}

// NewUnauthorizedError builds an Error for an upstream authentication failure.
func NewUnauthorizedError(key cachekey.Key, cause error) *Error {
	return &Error{Kind: ErrKindUnauthorized, Message: "upstream authentication failed", Key: key, Cause: cause}
}

// NewForbiddenError builds an Error for an upstream authorization failure.
func NewForbiddenError(key cachekey.Key, cause error) *Error {
	return &Error{Kind: ErrKindForbidden, Message: "upstream rejected request", Key: key, Cause: cause}
}

// NewCircuitOpenError builds an Error for a breaker rejecting a call.
func NewCircuitOpenError(key cachekey.Key, tier string) *Error {
	return &Error{Kind: ErrKindCircuitOpen, Message: fmt.Sprintf("circuit open for tier %q", tier), Key: key}
}

// NewTimeoutError builds an Error for a tier call exceeding its window.
func NewTimeoutError(key cachekey.Key, cause error) *Error {
	return &Error{Kind: ErrKindTimeout, Message: "operation timed out", Key: key, Cause: cause}
}

// NewTransientIOError builds an Error for a retryable I/O failure.
func NewTransientIOError(key cachekey.Key, cause error) *Error {
	return &Error{Kind: ErrKindTransientIO, Message: "transient I/O failure", Key: key, Cause: cause}
}

// NewMalformedKeyError builds an Error for a fingerprint the KeyCodec rejected.
func NewMalformedKeyError(key cachekey.Key, cause error) *Error {
	return &Error{Kind: ErrKindMalformedKey, Message: "malformed key", Key: key, Cause: cause}
}

// NewCapacityExceededError builds an Error for a write that violated a tier's capacity.
func NewCapacityExceededError(key cachekey.Key, tier string) *Error {
	return &Error{Kind: ErrKindCapacityExceeded, Message: fmt.Sprintf("exceeds capacity of tier %q", tier), Key: key}
}

// NewPartialResultError builds an Error for a record that remained partial after repair.
func NewPartialResultError(key cachekey.Key, missing []string) *Error {
	return &Error{Kind: ErrKindPartialResult, Message: fmt.Sprintf("missing fields: %v", missing), Key: key}
}

// NewAllTiersFailedError builds an Error for a fallback chain that found nothing usable.
func NewAllTiersFailedError(key cachekey.Key, attempted []string) *Error {
	return &Error{Kind: ErrKindAllTiersFailed, Message: fmt.Sprintf("all tiers failed: %v", attempted), Key: key}
}

// NewRecoveryFailedError builds an Error for a RecoveryManager that exhausted its retries.
func NewRecoveryFailedError(key cachekey.Key, attempts int, cause error) *Error {
	return &Error{Kind: ErrKindRecoveryFailed, Message: fmt.Sprintf("exhausted %d attempts", attempts), Key: key, Cause: cause}
}

// NewDisposedError builds an Error for an operation against a disposed engine or tier.
func NewDisposedError(key cachekey.Key) *Error {
	return &Error{Kind: ErrKindDisposed, Message: "engine or tier is disposed", Key: key}
}

// IsNotFound reports whether err is a not-found Error.
func IsNotFound(err error) bool {
	return hasKind(err, ErrKindNotFound)
}

// IsCircuitOpen reports whether err is a circuit-open Error.
func IsCircuitOpen(err error) bool {
	return hasKind(err, ErrKindCircuitOpen)
}

// IsAllTiersFailed reports whether err means the fallback chain exhausted
// every tier without finding a usable entry.
func IsAllTiersFailed(err error) bool {
	return hasKind(err, ErrKindAllTiersFailed)
}

// IsTerminal reports whether err's kind is one the RecoveryManager must
// never retry: not-found, unauthorized, forbidden, circuit-open, or
// malformed-key.
func IsTerminal(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case ErrKindNotFound, ErrKindUnauthorized, ErrKindForbidden, ErrKindCircuitOpen, ErrKindMalformedKey:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err's kind is one the RecoveryManager should
// retry with backoff: timeout or transient-io.
func IsRetryable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case ErrKindTimeout, ErrKindTransientIO:
		return true
	default:
		return false
	}
}

func hasKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
