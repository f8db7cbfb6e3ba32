// Package commands wires the engine from a loaded Config and exposes the
// cobra commands that exercise it: status, stats and serve.
package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/config"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/audit"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/breaker"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/metrics"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/notify"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/partial"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/tier/memory"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/tier/origin"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/tier/persistent"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/upstream"
	"github.com/prometheus/client_golang/prometheus"
)

// originRequestsPerSecond and originBurst bound outbound calls to the
// upstream registry. The config shape carries timeout/retries/token for
// the adapter itself, not the tier's own pacing, so this demo binary picks
// the same conservative pacing the spec's "slow, rate-limited upstream"
// framing calls for.
const (
	originRequestsPerSecond = 2.0
	originBurst             = 1
)

// wired bundles everything buildEngine constructs so callers can dispose
// of it and inspect its circuit breakers and notifier.
type wired struct {
	engine   *hybridcache.Engine
	breakers []*breaker.Breaker
	notifier *notify.Notifier
	registry *metrics.Registry
	promReg  *prometheus.Registry
	audit    *audit.Store
}

// buildEngine constructs every tier storage.*.enabled names, wraps each in
// its tier-default breaker, and assembles the Engine per cfg.cache.strategy.
// offline_mode is equivalent to storage.origin.enabled=false: a cache miss
// on every tier returns not-found instead of reaching the network.
func buildEngine(cfg *config.Config) (*wired, error) {
	var tiers []hybridcache.Tier
	var breakers []*breaker.Breaker

	notifier := notify.New()
	promReg := prometheus.NewRegistry()
	registry := metrics.New(promReg)

	onTransition := func(tier string, from, to breaker.State) {
		state := 0
		switch to {
		case breaker.StateHalfOpen:
			state = 1
		case breaker.StateOpen:
			state = 2
		}
		registry.SetCircuitState(tier, state)
	}

	if cfg.Storage.Memory.Enabled {
		policy := memory.PolicyLRU
		switch cfg.Storage.Memory.Eviction {
		case config.EvictionLFU:
			policy = memory.PolicyLFU
		case config.EvictionFIFO:
			policy = memory.PolicyFIFO
		}
		tiers = append(tiers, memory.New(int64(cfg.Storage.Memory.MaxBytes), policy))
		breakers = append(breakers, breaker.New(string(hybridcache.TierMemory), breaker.MemoryTuning, onTransition))
	}

	if cfg.Storage.Persistent.Enabled {
		pt, err := persistent.Open(persistent.Options{
			Path:           cfg.Storage.Persistent.Path,
			CapacityBytes:  int64(cfg.Storage.Persistent.MaxBytes),
			VacuumInterval: cfg.Storage.Persistent.VacuumInterval,
			SyncWrites:     cfg.Storage.Persistent.WAL,
		})
		if err != nil {
			return nil, fmt.Errorf("open persistent tier: %w", err)
		}
		tiers = append(tiers, pt)
		breakers = append(breakers, breaker.New(string(hybridcache.TierPersistent), breaker.PersistentTuning, onTransition))
	}

	offline := cfg.Features.OfflineMode || !cfg.Storage.Origin.Enabled
	if !offline {
		tiers = append(tiers, origin.New(origin.Options{
			Adapter:           upstream.NewStaticAdapter(),
			RequestsPerSecond: originRequestsPerSecond,
			Burst:             originBurst,
		}))
		breakers = append(breakers, breaker.New(string(hybridcache.TierOrigin), breaker.OriginTuning, onTransition))
	}

	if len(tiers) == 0 {
		return nil, fmt.Errorf("no storage tier enabled")
	}

	var auditStore *audit.Store
	if cfg.Monitoring.Enabled {
		// A sibling file next to (not inside) the persistent tier's Badger
		// directory: Badger owns every file under its own directory, so the
		// audit database must live outside it.
		base := cfg.Storage.Persistent.Path
		if base == "" {
			base = "./hybridcache"
		}
		var err error
		auditStore, err = audit.Open(filepath.Clean(base) + ".audit.db")
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}

	strategy := hybridcache.ReadThrough
	switch cfg.Cache.Strategy {
	case config.StrategyWriteThrough:
		strategy = hybridcache.WriteThrough
	case config.StrategyWriteBehind:
		strategy = hybridcache.WriteBehind
	case config.StrategyCacheAside:
		strategy = hybridcache.CacheAside
	}

	eng := hybridcache.New(hybridcache.EngineOptions{
		Tiers:         tiers,
		Breakers:      breakers,
		Strategy:      strategy,
		QueueSize:     cfg.Performance.QueueSize,
		FlushInterval: cfg.Performance.FlushInterval,
		TTLDefault:    cfg.Cache.TTL.Components,
		Partial:       partial.New(upstream.NewStaticAdapter()),
		Notifier:      notifier,
		Metrics:       registry,
		Audit:         auditStore,
	})

	if err := eng.Initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("initialize engine: %w", err)
	}

	return &wired{engine: eng, breakers: breakers, notifier: notifier, registry: registry, promReg: promReg, audit: auditStore}, nil
}
