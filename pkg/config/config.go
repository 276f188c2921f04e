// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Warehouse dialects the pipeline can target
const (
	DialectSnowflake = "snowflake"
	DialectPostgres  = "postgres"
	DialectSQLite    = "sqlite"
)

// DefaultSourceURL is the NYC DOHMH restaurant inspection results dataset
const DefaultSourceURL = "https://data.cityofnewyork.us/resource/43nn-pn8j.json"

// Config represents the application configuration
type Config struct {
	// Warehouse connection
	Dialect   string
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig
	SQLite    *SQLiteConfig

	// Source settings
	Source SourceConfig

	// Load settings
	InsertChunkSize int
	QueryTimeout    time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	PushgatewayURL string
	MetricsJob     string
}

// SourceConfig holds the HTTP source parameters
type SourceConfig struct {
	URL      string
	Limit    int
	Timeout  time.Duration
	AppToken string
}

// LoadEnvFile loads a .env file into the process environment. Variables that
// are already set win. A missing file is reported as os.ErrNotExist.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables and validates it
func LoadConfig() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from environment variables without validating
// credentials, so a Prompter can fill the gaps first.
func Load() *Config {
	return &Config{
		Dialect:   strings.ToLower(getEnv("WAREHOUSE_DIALECT", DialectSnowflake)),
		Snowflake: LoadSnowflakeConfig(),
		Postgres:  LoadPostgresConfig(),
		SQLite:    LoadSQLiteConfig(),

		Source: SourceConfig{
			URL:      getEnv("SOURCE_URL", DefaultSourceURL),
			Limit:    getEnvAsInt("SOURCE_LIMIT", 5000),
			Timeout:  time.Duration(getEnvAsInt("SOURCE_TIMEOUT_SECONDS", 60)) * time.Second,
			AppToken: getEnv("SOURCE_APP_TOKEN", ""),
		},

		InsertChunkSize: getEnvAsInt("INSERT_CHUNK_SIZE", 1000),
		QueryTimeout:    time.Duration(getEnvAsInt("QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		PushgatewayURL:  getEnv("PUSHGATEWAY_URL", ""),
		MetricsJob:      getEnv("METRICS_JOB", "inspections-elt"),
	}
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Dialect {
	case DialectSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
		if err := c.Snowflake.Validate(); err != nil {
			return err
		}
	case DialectPostgres:
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	case DialectSQLite:
		if c.SQLite == nil || c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH is required for the sqlite dialect")
		}
	default:
		return fmt.Errorf("unsupported warehouse dialect %q", c.Dialect)
	}

	if c.Source.URL == "" {
		return errors.New("source URL is required")
	}

	if c.Source.Limit <= 0 {
		return errors.New("source limit must be positive")
	}

	if c.InsertChunkSize <= 0 {
		return errors.New("insert chunk size must be positive")
	}

	if c.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}

	return nil
}

// Credentials returns the credentials record for the selected dialect
func (c *Config) Credentials() Credentials {
	switch c.Dialect {
	case DialectPostgres:
		if c.Postgres != nil {
			return c.Postgres.Credentials()
		}
	case DialectSQLite:
		if c.SQLite != nil {
			return c.SQLite.Credentials()
		}
	default:
		if c.Snowflake != nil {
			return c.Snowflake.Credentials()
		}
	}
	return Credentials{}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
