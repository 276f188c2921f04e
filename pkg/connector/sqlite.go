// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/inspections-elt/pkg/config"
)

// SQLiteConnector implements the WarehouseConnector interface for a local
// SQLite file, or an in-memory database when Path is ":memory:".
type SQLiteConnector struct {
	baseConnector
	cfg *config.SQLiteConfig
}

// NewSQLiteConnector opens the SQLite database at cfg.Path
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")

	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}

	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	pinSingleConnection(db)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("Failed to set busy timeout", zap.Error(err))
	}

	connector := &SQLiteConnector{
		baseConnector: baseConnector{
			db:      sqlx.NewDb(db, "sqlite"),
			logger:  logger,
			dialect: config.DialectSQLite,
			name:    cfg.Path,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Path, db)
	return connector, nil
}

// Validate verifies the SQLite connection
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.GetWithTimeout(ctx, &version, "SELECT sqlite_version()", 5*time.Second); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}

	c.logger.Info("Connected to SQLite",
		zap.String("version", version),
		zap.String("path", c.cfg.Path))

	return nil
}
