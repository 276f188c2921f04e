// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/config"
)

// ConnectorFactory creates warehouse connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create opens a connector for the configured dialect and validates it
func (f *ConnectorFactory) Create(ctx context.Context) (WarehouseConnector, error) {
	f.logger.Info("Creating warehouse connector", zap.String("dialect", f.cfg.Dialect))

	var (
		conn WarehouseConnector
		err  error
	)
	switch f.cfg.Dialect {
	case config.DialectSnowflake:
		conn, err = NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.cfg.QueryTimeout)
	case config.DialectPostgres:
		conn, err = NewPostgresConnector(ctx, f.cfg.Postgres, f.cfg.QueryTimeout)
	case config.DialectSQLite:
		conn, err = NewSQLiteConnector(ctx, f.cfg.SQLite)
	default:
		return nil, fmt.Errorf("unsupported warehouse dialect %q", f.cfg.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", f.cfg.Dialect, err)
	}

	if err := conn.Validate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to validate %s connector: %w", f.cfg.Dialect, err)
	}

	return conn, nil
}
