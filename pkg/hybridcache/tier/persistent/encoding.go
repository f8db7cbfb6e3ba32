package persistent

import (
	"encoding/json"
	"fmt"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/cachekey"
)

// ============================================================================
// Database Key Namespace Design
// ============================================================================
//
// Data Type          Prefix      Key Format                  Value Type
// ===========================================================================
// Record             "record:"   record:<fingerprint>        record (JSON)
// Uniqueness index   "index:"    index:<framework>:<name>    fingerprint (bytes)
// Schema version     "schema:"   schema:version               uint32 (JSON)

const (
	prefixRecord = "record:"
	prefixIndex  = "index:"
)

const schemaVersionKey = "schema:version"

func keyRecord(k cachekey.Key) []byte {
	return []byte(prefixRecord + string(k))
}

func keyRecordPrefix() []byte {
	return []byte(prefixRecord)
}

func keyIndex(framework, name string) []byte {
	return []byte(prefixIndex + framework + ":" + name)
}

// record is the on-disk representation of one cache entry. Field names
// follow the persisted layout: framework/name/payload/metadata blob carry
// the Value, the remaining fields carry Meta.
type record struct {
	Kind        int    `json:"kind"`
	Framework   string `json:"framework"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Demo        string `json:"demo,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`

	Dependencies         []string `json:"dependencies,omitempty"`
	RegistryDependencies []string `json:"registry_dependencies,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	Components           []string `json:"components,omitempty"`

	Fields map[string]any `json:"fields,omitempty"`
	Raw    []byte         `json:"raw,omitempty"`

	Partial       bool     `json:"partial,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`

	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	AccessedAt  int64  `json:"accessed_at"`
	AccessCount uint64 `json:"access_count"`
	SizeBytes   int64  `json:"size_bytes"`
	TTLSeconds  int64  `json:"ttl_seconds"`
	Stale       bool   `json:"stale,omitempty"`

	// UpstreamRevision is opaque revision information from the origin,
	// carried for future cache-validation use; the engine does not
	// interpret it today.
	UpstreamRevision string `json:"upstream_revision,omitempty"`
}

func encodeRecord(r *record) ([]byte, error) {
	bytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return bytes, nil
}

func decodeRecord(bytes []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(bytes, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &r, nil
}
