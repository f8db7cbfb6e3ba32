// Package cachekey encodes and parses the canonical string fingerprint used
// as the identity for every cached resource. It is a pure, stateless codec:
// no I/O, no global state.
package cachekey

import (
	"fmt"
	"strings"
)

// Kind is the resource kind a key addresses. The set is closed: callers
// outside this package must not invent new kinds.
type Kind string

const (
	KindComponent         Kind = "component"
	KindComponentDemo     Kind = "component-demo"
	KindComponentMetadata Kind = "component-metadata"
	KindBlock             Kind = "block"
	KindList              Kind = "list"
	KindDirectory         Kind = "directory"
)

// validKinds is consulted by Parse to reject unknown kinds early.
var validKinds = map[Kind]bool{
	KindComponent:         true,
	KindComponentDemo:     true,
	KindComponentMetadata: true,
	KindBlock:             true,
	KindList:              true,
	KindDirectory:         true,
}

// maxKeyBytes is the hard ceiling on the encoded fingerprint length.
const maxKeyBytes = 255

// separator delimits segments within the encoded fingerprint.
const separator = ":"

// Key is the canonical, immutable fingerprint for a cached resource:
// "<kind>:<framework>:<name>[:<variant>...]". Treat it as an opaque value;
// use Parse to recover its structure.
type Key string

// String returns the raw fingerprint.
func (k Key) String() string {
	return string(k)
}

// Fields is the structured view of a Key recovered by Parse.
type Fields struct {
	Kind      Kind
	Framework string
	Name      string
	Variant   []string
}

// Encode builds the canonical fingerprint for f, rejecting malformed
// segments before they ever reach the cache.
func Encode(f Fields) (Key, error) {
	if !validKinds[f.Kind] {
		return "", &MalformedKeyError{Reason: fmt.Sprintf("unknown kind %q", f.Kind)}
	}

	segments := make([]string, 0, 3+len(f.Variant))
	segments = append(segments, string(f.Kind), f.Framework, f.Name)
	segments = append(segments, f.Variant...)

	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return "", err
		}
	}

	encoded := strings.Join(segments, separator)
	if len(encoded) > maxKeyBytes {
		return "", &MalformedKeyError{Reason: fmt.Sprintf("fingerprint exceeds %d bytes", maxKeyBytes)}
	}

	return Key(encoded), nil
}

// Parse recovers the structured Fields from a canonical fingerprint,
// returning a MalformedKeyError if the key does not conform to the
// "<kind>:<framework>:<name>[:<variant>...]" shape.
func Parse(k Key) (Fields, error) {
	raw := string(k)
	if len(raw) == 0 {
		return Fields{}, &MalformedKeyError{Reason: "empty key"}
	}
	if len(raw) > maxKeyBytes {
		return Fields{}, &MalformedKeyError{Reason: fmt.Sprintf("fingerprint exceeds %d bytes", maxKeyBytes)}
	}

	segments := strings.Split(raw, separator)
	if len(segments) < 3 {
		return Fields{}, &MalformedKeyError{Reason: "expected at least kind:framework:name"}
	}

	kind := Kind(segments[0])
	if !validKinds[kind] {
		return Fields{}, &MalformedKeyError{Reason: fmt.Sprintf("unknown kind %q", kind)}
	}

	for _, seg := range segments {
		if err := validateSegment(seg); err != nil {
			return Fields{}, err
		}
	}

	f := Fields{
		Kind:      kind,
		Framework: segments[1],
		Name:      segments[2],
	}
	if len(segments) > 3 {
		f.Variant = append([]string{}, segments[3:]...)
	}

	return f, nil
}

// validateSegment rejects the separator and ASCII control characters. An
// empty segment is accepted. The overall length ceiling is checked by the
// caller once the full fingerprint is assembled.
func validateSegment(seg string) error {
	if strings.Contains(seg, separator) {
		return &MalformedKeyError{Reason: fmt.Sprintf("segment %q contains separator", seg)}
	}
	for _, r := range seg {
		if r < 0x20 || r == 0x7f {
			return &MalformedKeyError{Reason: fmt.Sprintf("segment %q contains a control character", seg)}
		}
	}
	return nil
}

// MalformedKeyError is returned by Encode and Parse when the fingerprint
// does not conform to the canonical shape. It is terminal: callers should
// not retry with the same input.
type MalformedKeyError struct {
	Reason string
}

func (e *MalformedKeyError) Error() string {
	return "malformed key: " + e.Reason
}
