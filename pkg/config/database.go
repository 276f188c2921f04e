// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/snowflakedb/gosnowflake"
)

// Credentials is the warehouse credentials record handed to the pipeline.
// Database and Schema name the objects the provisioner ensures.
type Credentials struct {
	User      string
	Password  string
	Account   string
	Database  string
	Schema    string
	Warehouse string
}

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Schema        string
	Role          string
	Authenticator gosnowflake.AuthType
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string
}

// SQLiteConfig holds the SQLite database location
type SQLiteConfig struct {
	Path string
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() *SnowflakeConfig {
	return &SnowflakeConfig{
		User:          os.Getenv("SNOWFLAKE_USER"),
		Password:      os.Getenv("SNOWFLAKE_PASSWORD"),
		Account:       os.Getenv("SNOWFLAKE_ACCOUNT"),
		Warehouse:     os.Getenv("SNOWFLAKE_WAREHOUSE"),
		Database:      os.Getenv("SNOWFLAKE_DATABASE"),
		Schema:        os.Getenv("SNOWFLAKE_SCHEMA"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: ParseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake")),
	}
}

// ParseAuthenticator converts an authenticator name to the driver type.
// Unknown names fall back to password authentication.
func ParseAuthenticator(name string) gosnowflake.AuthType {
	switch name {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// NeedsPassword reports whether the authenticator signs in with a password
func (c *SnowflakeConfig) NeedsPassword() bool {
	switch c.Authenticator {
	case gosnowflake.AuthTypeSnowflake, gosnowflake.AuthTypeUsernamePasswordMFA, gosnowflake.AuthTypeOkta:
		return true
	default:
		return false
	}
}

// Validate checks that every required Snowflake setting is present
func (c *SnowflakeConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SNOWFLAKE_USER", c.User},
		{"SNOWFLAKE_ACCOUNT", c.Account},
		{"SNOWFLAKE_WAREHOUSE", c.Warehouse},
		{"SNOWFLAKE_DATABASE", c.Database},
		{"SNOWFLAKE_SCHEMA", c.Schema},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s environment variable is required", r.name)
		}
	}

	if c.NeedsPassword() && c.Password == "" {
		return errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	return nil
}

// Credentials returns the Snowflake credentials record
func (c *SnowflakeConfig) Credentials() Credentials {
	return Credentials{
		User:      c.User,
		Password:  c.Password,
		Account:   c.Account,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
	}
}

// ApplyCredentials copies a credentials record back onto the config
func (c *SnowflakeConfig) ApplyCredentials(creds Credentials) {
	c.User = creds.User
	c.Password = creds.Password
	c.Account = creds.Account
	c.Database = creds.Database
	c.Schema = creds.Schema
	c.Warehouse = creds.Warehouse
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DB"),
		Schema:   getEnv("POSTGRES_SCHEMA", "public"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// Validate checks that every required PostgreSQL setting is present
func (c *PostgresConfig) Validate() error {
	if c.User == "" {
		return errors.New("POSTGRES_USER environment variable is required")
	}
	if c.Password == "" {
		return errors.New("POSTGRES_PASSWORD environment variable is required")
	}
	if c.Database == "" {
		return errors.New("POSTGRES_DB environment variable is required")
	}
	if c.Port <= 0 {
		return errors.New("POSTGRES_PORT must be positive")
	}
	return nil
}

// Credentials returns the PostgreSQL credentials record. Account and
// Warehouse have no PostgreSQL meaning and stay empty.
func (c *PostgresConfig) Credentials() Credentials {
	return Credentials{
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Schema:   c.Schema,
	}
}

// ApplyCredentials copies a credentials record back onto the config
func (c *PostgresConfig) ApplyCredentials(creds Credentials) {
	c.User = creds.User
	c.Password = creds.Password
	c.Database = creds.Database
	c.Schema = creds.Schema
}

// ConnectionString returns a PostgreSQL connection URL
func (c *PostgresConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// LoadSQLiteConfig loads SQLite configuration from environment variables
func LoadSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path: getEnv("SQLITE_PATH", "inspections.db"),
	}
}

// Credentials returns the SQLite credentials record. The file is the
// database, so both names refer to SQLite's main schema.
func (c *SQLiteConfig) Credentials() Credentials {
	return Credentials{
		Database: "main",
		Schema:   "main",
	}
}
