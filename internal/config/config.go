// Package config defines the engine's configuration surface: a nested
// Config struct decoded by viper/mapstructure, checked structurally by
// validator tags, and checked for cross-field business rules by Validate.
//
// Config works from a value supplied directly by the embedder; there is
// no global config singleton.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/bytesize"
)

// StorageType selects which tiers the engine may use.
type StorageType string

const (
	StorageHybrid         StorageType = "hybrid"
	StorageMemoryOnly     StorageType = "memory-only"
	StoragePersistentOnly StorageType = "persistent-only"
)

// Strategy selects one of the four write strategies the engine supports.
type Strategy string

const (
	StrategyWriteThrough Strategy = "write-through"
	StrategyWriteBehind  Strategy = "write-behind"
	StrategyReadThrough  Strategy = "read-through"
	StrategyCacheAside   Strategy = "cache-aside"
)

// EvictionPolicy mirrors tier/memory.EvictionPolicy as a config-facing string.
type EvictionPolicy string

const (
	EvictionLRU  EvictionPolicy = "lru"
	EvictionLFU  EvictionPolicy = "lfu"
	EvictionFIFO EvictionPolicy = "fifo"
)

// CompressionAlgorithm selects the codec used for cache.compression.
type CompressionAlgorithm string

const (
	CompressionNone   CompressionAlgorithm = "none"
	CompressionGzip   CompressionAlgorithm = "gzip"
	CompressionBrotli CompressionAlgorithm = "brotli"
)

// Config is the engine's full configuration surface.
type Config struct {
	Storage        StorageConfig        `mapstructure:"storage"`
	Cache          CacheStrategyConfig  `mapstructure:"cache"`
	Performance    PerformanceConfig    `mapstructure:"performance"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	Features       FeaturesConfig       `mapstructure:"features"`
}

type StorageConfig struct {
	Type       StorageType      `mapstructure:"type" validate:"required,oneof=hybrid memory-only persistent-only"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Persistent PersistentConfig `mapstructure:"persistent"`
	Origin     OriginConfig     `mapstructure:"origin"`
}

type MemoryConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	MaxBytes bytesize.ByteSize `mapstructure:"max_bytes"`
	TTL      time.Duration     `mapstructure:"ttl_s"`
	Eviction EvictionPolicy    `mapstructure:"eviction" validate:"omitempty,oneof=lru lfu fifo"`
}

type PersistentConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Path           string            `mapstructure:"path"`
	MaxBytes       bytesize.ByteSize `mapstructure:"max_bytes"`
	BusyTimeout    time.Duration     `mapstructure:"busy_timeout_ms"`
	VacuumInterval time.Duration     `mapstructure:"vacuum_interval_h"`
	WAL            bool              `mapstructure:"wal"`
}

type OriginConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout_ms"`
	Retries int           `mapstructure:"retries" validate:"omitempty,gte=0"`
	Token   string        `mapstructure:"token"`
}

type CacheStrategyConfig struct {
	Strategy    Strategy          `mapstructure:"strategy" validate:"required,oneof=write-through write-behind read-through cache-aside"`
	TTL         TTLConfig         `mapstructure:"ttl"`
	Compression CompressionConfig `mapstructure:"compression"`
}

type TTLConfig struct {
	Components time.Duration `mapstructure:"components"`
	Blocks     time.Duration `mapstructure:"blocks"`
	Metadata   time.Duration `mapstructure:"metadata"`
}

type CompressionConfig struct {
	Enabled   bool                 `mapstructure:"enabled"`
	Algorithm CompressionAlgorithm `mapstructure:"algorithm" validate:"omitempty,oneof=gzip brotli none"`
	Level     int                  `mapstructure:"level" validate:"omitempty,gte=1,lte=9"`
}

type PerformanceConfig struct {
	BatchSize     int           `mapstructure:"batch_size" validate:"omitempty,gt=0"`
	Concurrency   int           `mapstructure:"concurrency" validate:"omitempty,gt=0"`
	QueueSize     int           `mapstructure:"queue_size" validate:"omitempty,gt=0"`
	FlushInterval time.Duration `mapstructure:"flush_interval_ms"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Threshold    uint32        `mapstructure:"threshold" validate:"omitempty,gt=0"`
	Timeout      time.Duration `mapstructure:"timeout_ms"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout_ms"`
}

type MonitoringConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	StatsInterval time.Duration `mapstructure:"stats_interval_ms"`
	RetentionDays int           `mapstructure:"retention_days" validate:"omitempty,gte=0"`
	Alerts        []string      `mapstructure:"alerts"`
}

type FeaturesConfig struct {
	OfflineMode bool `mapstructure:"offline_mode"`
	Analytics   bool `mapstructure:"analytics"`
	AutoSync    bool `mapstructure:"auto_sync"`
}

// Default returns the spec's documented default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Type: StorageHybrid,
			Memory: MemoryConfig{
				Enabled:  true,
				MaxBytes: 50 * bytesize.MiB,
				TTL:      3600 * time.Second,
				Eviction: EvictionLRU,
			},
			Persistent: PersistentConfig{
				Enabled:        true,
				Path:           defaultPersistentPath(),
				MaxBytes:       200 * bytesize.MiB,
				BusyTimeout:    5000 * time.Millisecond,
				VacuumInterval: 24 * time.Hour,
				WAL:            true,
			},
			Origin: OriginConfig{
				Enabled: true,
				Timeout: 30000 * time.Millisecond,
				Retries: 3,
			},
		},
		Cache: CacheStrategyConfig{
			Strategy: StrategyReadThrough,
			TTL: TTLConfig{
				Components: 604800 * time.Second,
				Blocks:     604800 * time.Second,
				Metadata:   3600 * time.Second,
			},
			Compression: CompressionConfig{
				Enabled:   false,
				Algorithm: CompressionNone,
				Level:     6,
			},
		},
		Performance: PerformanceConfig{
			BatchSize:     100,
			Concurrency:   10,
			QueueSize:     1000,
			FlushInterval: 5000 * time.Millisecond,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			Threshold:    5,
			Timeout:      60000 * time.Millisecond,
			ResetTimeout: 60000 * time.Millisecond,
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
		},
		Features: FeaturesConfig{},
	}
}

func defaultPersistentPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./hybridcache-data"
	}
	return dir + "/hybridcache"
}

// LoadConfig reads YAML configuration from path, falling back to defaults
// for anything unset, and validates the result. An empty path loads the
// default configuration untouched.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HYBRIDCACHE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the engine's cross-field business rules, beyond what
// struct-level validate tags can express.
func Validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case StorageMemoryOnly:
		if !cfg.Storage.Memory.Enabled {
			return fmt.Errorf("storage.type=memory-only requires storage.memory.enabled")
		}
	case StoragePersistentOnly:
		if !cfg.Storage.Persistent.Enabled {
			return fmt.Errorf("storage.type=persistent-only requires storage.persistent.enabled")
		}
	}

	if !cfg.Storage.Memory.Enabled && !cfg.Storage.Persistent.Enabled && !cfg.Storage.Origin.Enabled {
		return fmt.Errorf("at least one storage provider must be enabled")
	}

	if cfg.Storage.Memory.Enabled && cfg.Storage.Persistent.Enabled {
		if cfg.Storage.Memory.MaxBytes >= cfg.Storage.Persistent.MaxBytes {
			return fmt.Errorf("storage.memory.max_bytes must be strictly less than storage.persistent.max_bytes")
		}
	}

	if cfg.Cache.TTL.Metadata > cfg.Cache.TTL.Components {
		return fmt.Errorf("cache.ttl.metadata must not exceed cache.ttl.components")
	}
	if cfg.Cache.TTL.Metadata > cfg.Cache.TTL.Blocks {
		return fmt.Errorf("cache.ttl.metadata must not exceed cache.ttl.blocks")
	}

	if cfg.Cache.Compression.Enabled {
		if cfg.Cache.Compression.Level < 1 || cfg.Cache.Compression.Level > 9 {
			return fmt.Errorf("cache.compression.level must be in 1..9")
		}
	}

	if cfg.CircuitBreaker.ResetTimeout < cfg.CircuitBreaker.Timeout {
		return fmt.Errorf("circuit_breaker.reset_timeout_ms must be >= circuit_breaker.timeout_ms")
	}

	return nil
}
