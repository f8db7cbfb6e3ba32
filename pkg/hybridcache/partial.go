package hybridcache

import (
	"context"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/upstream"
)

// field names used by the completion-strategy table and by synthesized
// defaults.
const (
	fieldName         = "name"
	fieldCode         = "code"
	fieldType         = "type"
	fieldDemo         = "demo"
	fieldMetadata     = "metadata"
	fieldDependencies = "dependencies"
	fieldComponents   = "components"
	fieldDescription  = "description"
	fieldTags         = "tags"
)

// Strategy is the per-kind completion policy: which fields are required
// for a value of this kind to count as complete, which are optional, and
// how to fetch the missing data from the origin adapter.
type Strategy struct {
	Required []string
	Optional []string
	Complete func(ctx context.Context, adapter upstream.Adapter, framework, name string) (Value, error)
}

// strategies is the completion-strategy table from the component/block/
// metadata design. It is data, not code: adding a new kind means adding a
// table row, not a new branch somewhere in the repair algorithm.
var strategies = map[ValueKind]Strategy{
	ValueKindComponent: {
		Required: []string{fieldName, fieldCode},
		Optional: []string{fieldDemo, fieldMetadata, fieldDependencies},
		Complete: func(ctx context.Context, adapter upstream.Adapter, framework, name string) (Value, error) {
			src, err := adapter.GetComponentSource(ctx, framework, name)
			if err != nil {
				return Value{}, err
			}
			return Value{
				Kind:                 ValueKindComponent,
				Name:                 src.Name,
				Framework:            src.Framework,
				Code:                 src.Code,
				Dependencies:         src.Dependencies,
				RegistryDependencies: src.RegistryDependencies,
			}, nil
		},
	},
	ValueKindBlock: {
		Required: []string{fieldName, fieldCode},
		Optional: []string{fieldComponents, fieldDescription, fieldTags},
		Complete: func(ctx context.Context, adapter upstream.Adapter, framework, name string) (Value, error) {
			block, err := adapter.GetBlock(ctx, framework, name, true)
			if err != nil {
				return Value{}, err
			}
			return Value{
				Kind:        ValueKindBlock,
				Name:        block.Name,
				Framework:   block.Framework,
				Code:        block.Code,
				Description: block.Description,
				Tags:        block.Tags,
				Components:  block.Components,
			}, nil
		},
	},
	ValueKindComponentMetadata: {
		Required: []string{fieldName, fieldType},
		Optional: []string{fieldDescription, fieldTags, fieldDependencies},
		Complete: func(ctx context.Context, adapter upstream.Adapter, framework, name string) (Value, error) {
			meta, err := adapter.GetComponentMetadata(ctx, framework, name)
			if err != nil {
				return Value{}, err
			}
			return Value{
				Kind:         ValueKindComponentMetadata,
				Name:         meta.Name,
				Framework:    meta.Framework,
				Type:         meta.Type,
				Description:  meta.Description,
				Tags:         meta.Tags,
				Dependencies: meta.Dependencies,
			}, nil
		},
	},
}

// PartialHandler repairs partial values by consulting the strategy table and
// issuing at most one completion fetch per call.
type PartialHandler struct {
	adapter upstream.Adapter
}

func NewPartialHandler(adapter upstream.Adapter) *PartialHandler {
	return &PartialHandler{adapter: adapter}
}

// Repair returns value unchanged if it is already complete against
// required (the caller's own required-field list, if non-empty, takes
// precedence over the kind's default strategy; an empty or nil list
// falls back to the strategy's own Required set). Otherwise it issues a
// single completion fetch via the origin adapter, merges any recovered
// fields, and re-evaluates completeness. If still incomplete, it returns
// the merged record tagged with the remaining missing fields, filling
// synthesized defaults for the fixed safe subset the strategy calls for.
func (h *PartialHandler) Repair(ctx context.Context, value Value, required []string) Value {
	strategy, ok := strategies[value.Kind]
	if !ok {
		return value
	}
	if len(required) == 0 {
		required = strategy.Required
	}

	missing := missingFields(value, required)
	if len(missing) == 0 {
		value.Partial = false
		value.MissingFields = nil
		return value
	}

	if strategy.Complete != nil && h.adapter != nil {
		completed, err := strategy.Complete(ctx, h.adapter, value.Framework, value.Name)
		if err == nil {
			value = mergeValues(value, completed)
			missing = missingFields(value, required)
		}
	}

	if len(missing) == 0 {
		value.Partial = false
		value.MissingFields = nil
		return value
	}

	value = synthesizeDefaults(value, missing)
	value.Partial = true
	value.MissingFields = missing
	return value
}

func missingFields(v Value, required []string) []string {
	var missing []string
	for _, f := range required {
		if !hasField(v, f) {
			missing = append(missing, f)
		}
	}
	return missing
}

func hasField(v Value, field string) bool {
	switch field {
	case fieldName:
		return v.Name != ""
	case fieldCode:
		return v.Code != ""
	case fieldType:
		return v.Type != ""
	case fieldDemo:
		return v.Demo != ""
	default:
		return false
	}
}

// mergeValues copies every non-empty field from src into dst, preferring
// dst's existing values where both are set.
func mergeValues(dst, src Value) Value {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Framework == "" {
		dst.Framework = src.Framework
	}
	if dst.Code == "" {
		dst.Code = src.Code
	}
	if dst.Demo == "" {
		dst.Demo = src.Demo
	}
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if len(dst.Dependencies) == 0 {
		dst.Dependencies = src.Dependencies
	}
	if len(dst.RegistryDependencies) == 0 {
		dst.RegistryDependencies = src.RegistryDependencies
	}
	if len(dst.Tags) == 0 {
		dst.Tags = src.Tags
	}
	if len(dst.Components) == 0 {
		dst.Components = src.Components
	}
	return dst
}

// synthesizeDefaults fills the fixed safe subset (name, type, a placeholder
// code, empty tags/dependencies) for any field still missing from the
// required set. Framework is not synthesized. It never fabricates a value
// for a field outside this subset.
func synthesizeDefaults(v Value, missing []string) Value {
	for _, f := range missing {
		switch f {
		case fieldName:
			if v.Name == "" {
				v.Name = "unknown"
			}
		case fieldType:
			if v.Type == "" {
				v.Type = "unknown"
			}
		case fieldCode:
			if v.Code == "" {
				v.Code = "// unavailable"
			}
		}
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if v.Dependencies == nil {
		v.Dependencies = []string{}
	}
	return v
}
