package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "./currencyUsers.json", cfg.Storage.AccountsPath)
	assert.Equal(t, "./currencyItems.json", cfg.Storage.CatalogPath)
	assert.Equal(t, 8, cfg.Ledger.BatchConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.HasCatalogFeed())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/economy")
	t.Setenv("BATCH_CONCURRENCY", "3")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CATALOG_FEED_URL", "https://feed.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://u:p@localhost:5432/economy", cfg.Database.URL)
	assert.Equal(t, 3, cfg.Ledger.BatchConcurrency)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.HasCatalogFeed())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
log:
  level: debug
storage:
  driver: file
  accounts_path: /data/users.json
  catalog_path: /data/items.json
ledger:
  batch_concurrency: 2
`), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level, "env must override yaml")
	assert.Equal(t, "/data/users.json", cfg.Storage.AccountsPath)
	assert.Equal(t, 2, cfg.Ledger.BatchConcurrency)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: "unknown driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }, wantErr: "DATABASE_URL"},
		{name: "empty path", mutate: func(c *Config) { c.Storage.CatalogPath = "" }, wantErr: "catalog_path"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Ledger.BatchConcurrency = 0 }, wantErr: "batch_concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Storage: StorageConfig{Driver: DriverFile, AccountsPath: "a.json", CatalogPath: "b.json"},
				Ledger:  LedgerConfig{BatchConcurrency: 1},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
