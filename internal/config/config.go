package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Env         string            `yaml:"env" env:"APP_ENV" env-default:"local"`
	Log         LogConfig         `yaml:"log"`
	Storage     StorageConfig     `yaml:"storage"`
	Database    DatabaseConfig    `yaml:"database"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	CatalogFeed CatalogFeedConfig `yaml:"catalog_feed"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// StorageConfig selects the backend. The paths are used by the file driver.
type StorageConfig struct {
	Driver       string `yaml:"driver"        env:"STORAGE_DRIVER"        env-default:"file"`
	AccountsPath string `yaml:"accounts_path" env:"STORAGE_ACCOUNTS_PATH" env-default:"./currencyUsers.json"`
	CatalogPath  string `yaml:"catalog_path"  env:"STORAGE_CATALOG_PATH"  env-default:"./currencyItems.json"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"       env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
}

type LedgerConfig struct {
	BatchConcurrency int `yaml:"batch_concurrency" env:"BATCH_CONCURRENCY" env-default:"8"`
}

type CatalogFeedConfig struct {
	APIURL   string `yaml:"api_url"   env:"CATALOG_FEED_URL"`
	ClientID string `yaml:"client_id" env:"CATALOG_FEED_CLIENT_ID"`
	APIKey   string `yaml:"api_key"   env:"CATALOG_FEED_API_KEY"`
}

// Load reads configuration from .env, an optional YAML file and the
// environment. Priority: ENV > YAML > defaults.
// The YAML file is read only when CONFIG_PATH is set.
func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks the rules env-default tags cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.AccountsPath == "" || c.Storage.CatalogPath == "" {
			return fmt.Errorf("storage: accounts_path and catalog_path must be set for the file driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}

	if c.Ledger.BatchConcurrency < 1 {
		return fmt.Errorf("ledger: batch_concurrency must be >= 1 (got %d)", c.Ledger.BatchConcurrency)
	}

	return nil
}

// HasCatalogFeed reports whether a remote catalog feed is configured.
func (c *Config) HasCatalogFeed() bool {
	return c.CatalogFeed.APIURL != ""
}
