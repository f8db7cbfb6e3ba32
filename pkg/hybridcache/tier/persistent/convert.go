package persistent

import (
	"time"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
)

func toRecord(entry hybridcache.Entry) *record {
	v := entry.Value
	m := entry.Meta
	return &record{
		Kind:                 int(v.Kind),
		Framework:            v.Framework,
		Name:                 v.Name,
		Code:                 v.Code,
		Demo:                 v.Demo,
		Type:                 v.Type,
		Description:          v.Description,
		Dependencies:         v.Dependencies,
		RegistryDependencies: v.RegistryDependencies,
		Tags:                 v.Tags,
		Components:           v.Components,
		Fields:               v.Fields,
		Raw:                  v.Raw,
		Partial:              v.Partial,
		MissingFields:        v.MissingFields,
		CreatedAt:            m.CreatedAt.UnixMilli(),
		UpdatedAt:            m.UpdatedAt.UnixMilli(),
		AccessedAt:           m.AccessedAt.UnixMilli(),
		AccessCount:          m.AccessCount,
		SizeBytes:            m.SizeBytes,
		TTLSeconds:           m.TTLSeconds,
		Stale:                m.Stale,
	}
}

func fromRecord(r *record) hybridcache.Entry {
	return hybridcache.Entry{
		Value: hybridcache.Value{
			Kind:                 hybridcache.ValueKind(r.Kind),
			Framework:            r.Framework,
			Name:                 r.Name,
			Code:                 r.Code,
			Demo:                 r.Demo,
			Type:                 r.Type,
			Description:          r.Description,
			Dependencies:         r.Dependencies,
			RegistryDependencies: r.RegistryDependencies,
			Tags:                 r.Tags,
			Components:           r.Components,
			Fields:               r.Fields,
			Raw:                  r.Raw,
			Partial:              r.Partial,
			MissingFields:        r.MissingFields,
		},
		Meta: hybridcache.Meta{
			CreatedAt:   time.UnixMilli(r.CreatedAt),
			UpdatedAt:   time.UnixMilli(r.UpdatedAt),
			AccessedAt:  time.UnixMilli(r.AccessedAt),
			AccessCount: r.AccessCount,
			SizeBytes:   r.SizeBytes,
			TTLSeconds:  r.TTLSeconds,
			SourceTier:  string(hybridcache.TierPersistent),
			Stale:       r.Stale,
		},
	}
}
