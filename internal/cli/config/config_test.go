package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir switches to an empty directory with an empty HOME so no real
// reflect.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ProviderFile, cfg.Provider.Kind)
	assert.Equal(t, "catalog.yaml", cfg.Provider.Catalog)
	assert.Nil(t, cfg.Provider.ScalarTypeHints)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, "reflect:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 64, cfg.Reflection.MaxHierarchyDepth)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "table", cfg.Output.Format)
}

func TestLoadConfigFile(t *testing.T) {
	inTempDir(t)

	content := `
provider:
  kind: php
  sources: ["src/*.php", "lib/*.php"]
  extension: app
  scalar_type_hints: false
store:
  kind: redis
  redis:
    addr: cache:6379
    db: 2
reflection:
  max_hierarchy_depth: 8
output:
  format: json
`
	require.NoError(t, os.WriteFile("reflect.yaml", []byte(content), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, ProviderPHP, cfg.Provider.Kind)
	assert.Equal(t, []string{"src/*.php", "lib/*.php"}, cfg.Provider.Sources)
	assert.Equal(t, "app", cfg.Provider.Extension)
	require.NotNil(t, cfg.Provider.ScalarTypeHints)
	assert.False(t, *cfg.Provider.ScalarTypeHints)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "cache:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, 8, cfg.Reflection.MaxHierarchyDepth)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := inTempDir(t)

	path := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider:\n  kind: sql\n  dsn: file:test.db\n"), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, ProviderSQL, cfg.Provider.Kind)
	assert.Equal(t, "file:test.db", cfg.Provider.DSN)

	_, err = Load(New(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("REFLECT_STORE_REDIS_PREFIX", "env:")
	t.Setenv("REFLECT_PROVIDER_SCALAR_TYPE_HINTS", "true")
	t.Setenv("REFLECT_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "env:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NotNil(t, cfg.Provider.ScalarTypeHints)
	assert.True(t, *cfg.Provider.ScalarTypeHints)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider:   ProviderConfig{Kind: ProviderFile, Catalog: "c.yaml", Driver: "sqlite3"},
			Store:      StoreConfig{Kind: StoreMemory},
			Reflection: ReflectionConfig{MaxHierarchyDepth: 64},
			Log:        LogConfig{Level: "info"},
			Output:     OutputConfig{Format: "table"},
		}
	}
	require.NoError(t, validateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Provider.Kind = "http" }, "provider.kind"},
		{"file without catalog", func(c *Config) { c.Provider.Catalog = "" }, "provider.catalog"},
		{"php without sources", func(c *Config) { c.Provider.Kind = ProviderPHP }, "provider.sources"},
		{"sql without dsn", func(c *Config) { c.Provider.Kind = ProviderSQL }, "provider.dsn"},
		{"unknown driver", func(c *Config) { c.Provider.Driver = "mysql" }, "provider.driver"},
		{"unknown store", func(c *Config) { c.Store.Kind = "disk" }, "store.kind"},
		{"redis without addr", func(c *Config) { c.Store.Kind = StoreRedis }, "store.redis.addr"},
		{"zero depth", func(c *Config) { c.Reflection.MaxHierarchyDepth = 0 }, "max_hierarchy_depth"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
