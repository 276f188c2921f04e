// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/config"
)

// SnowflakeConnector implements the WarehouseConnector interface for Snowflake
type SnowflakeConnector struct {
	baseConnector
	cfg *config.SnowflakeConfig
}

// NewSnowflakeConnector creates a new Snowflake connection. The database and
// schema are not selected here; they may not exist until provisioning runs.
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, queryTimeout time.Duration) (*SnowflakeConnector, error) {
	logger := zap.L().Named("snowflake-connector")

	// Create DSN using Snowflake's DSN builder
	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	pinSingleConnection(db)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	// Set query timeout if configured
	if queryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(queryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	connector := &SnowflakeConnector{
		baseConnector: baseConnector{
			db:      sqlx.NewDb(db, "snowflake"),
			logger:  logger,
			dialect: config.DialectSnowflake,
			name:    cfg.Account,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Account, db)
	return connector, nil
}

// Validate verifies the Snowflake connection and logs the session context
func (c *SnowflakeConnector) Validate(ctx context.Context) error {
	var session struct {
		Role      sql.NullString `db:"role"`
		Warehouse sql.NullString `db:"warehouse"`
		Version   sql.NullString `db:"version"`
	}
	err := c.GetWithTimeout(ctx, &session,
		`SELECT CURRENT_ROLE() AS "role", CURRENT_WAREHOUSE() AS "warehouse", CURRENT_VERSION() AS "version"`,
		30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", session.Role.String),
		zap.String("warehouse", session.Warehouse.String),
		zap.String("version", session.Version.String))

	if !session.Warehouse.Valid {
		c.logger.Warn("No active warehouse for this session",
			zap.String("configuredWarehouse", c.cfg.Warehouse))
	}

	return nil
}
