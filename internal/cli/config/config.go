package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/introspect/runtime/reflection"
)

// Provider kinds.
const (
	ProviderFile = "file"
	ProviderPHP  = "php"
	ProviderSQL  = "sql"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config represents the reflect configuration
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Store      StoreConfig      `mapstructure:"store"`
	Reflection ReflectionConfig `mapstructure:"reflection"`
	Log        LogConfig        `mapstructure:"log"`
	Output     OutputConfig     `mapstructure:"output"`
}

// ProviderConfig selects where metadata comes from
type ProviderConfig struct {
	Kind      string   `mapstructure:"kind"`
	Catalog   string   `mapstructure:"catalog"`
	Sources   []string `mapstructure:"sources"`
	Extension string   `mapstructure:"extension"`
	Driver    string   `mapstructure:"driver"`
	DSN       string   `mapstructure:"dsn"`
	// ScalarTypeHints overrides the catalog's own setting when non-nil.
	ScalarTypeHints *bool `mapstructure:"scalar_type_hints"`
}

// StoreConfig selects where property values live
type StoreConfig struct {
	Kind  string      `mapstructure:"kind"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig represents Redis connection settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ReflectionConfig tunes descriptor behaviour
type ReflectionConfig struct {
	MaxHierarchyDepth int `mapstructure:"max_hierarchy_depth"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// OutputConfig represents output formatting settings
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// New returns a viper instance with defaults, search paths and environment
// bindings set. The command layer binds flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("provider.kind", ProviderFile)
	v.SetDefault("provider.catalog", "catalog.yaml")
	v.SetDefault("provider.extension", "user")
	v.SetDefault("provider.driver", "sqlite3")
	v.SetDefault("store.kind", StoreMemory)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "reflect:")
	v.SetDefault("reflection.max_hierarchy_depth", reflection.DefaultMaxHierarchyDepth)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
	v.SetDefault("output.format", "table")
	v.SetDefault("output.no_color", false)

	v.SetConfigName("reflect")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "reflect"))
	}

	// REFLECT_STORE_REDIS_ADDR overrides store.redis.addr
	v.SetEnvPrefix("reflect")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads reflect.yaml, or file when it is non-empty, into a validated
// Config. A missing reflect.yaml is not an error; a missing explicit file is.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// AutomaticEnv does not reach Unmarshal for keys without a default.
	if v.IsSet("provider.scalar_type_hints") {
		enabled := v.GetBool("provider.scalar_type_hints")
		config.Provider.ScalarTypeHints = &enabled
	}
	if len(config.Provider.Sources) == 0 {
		config.Provider.Sources = v.GetStringSlice("provider.sources")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch cfg.Provider.Kind {
	case ProviderFile:
		if cfg.Provider.Catalog == "" {
			return fmt.Errorf("provider.catalog is required for provider.kind %q", ProviderFile)
		}
	case ProviderPHP:
		if len(cfg.Provider.Sources) == 0 {
			return fmt.Errorf("provider.sources is required for provider.kind %q", ProviderPHP)
		}
	case ProviderSQL:
		if cfg.Provider.DSN == "" {
			return fmt.Errorf("provider.dsn is required for provider.kind %q", ProviderSQL)
		}
	default:
		return fmt.Errorf("provider.kind must be one of file, php, sql, got: %q", cfg.Provider.Kind)
	}

	switch cfg.Provider.Driver {
	case "sqlite3", "pgx", "postgres":
	default:
		return fmt.Errorf("provider.driver must be sqlite3 or pgx, got: %q", cfg.Provider.Driver)
	}

	switch cfg.Store.Kind {
	case StoreMemory:
	case StoreRedis:
		if cfg.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for store.kind %q", StoreRedis)
		}
	default:
		return fmt.Errorf("store.kind must be memory or redis, got: %q", cfg.Store.Kind)
	}

	if cfg.Reflection.MaxHierarchyDepth <= 0 {
		return fmt.Errorf("reflection.max_hierarchy_depth must be positive, got: %d", cfg.Reflection.MaxHierarchyDepth)
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	switch cfg.Output.Format {
	case "table", "json":
	default:
		return fmt.Errorf("output.format must be table or json, got: %q", cfg.Output.Format)
	}
	return nil
}
