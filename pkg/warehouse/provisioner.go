// pkg/warehouse/provisioner.go
package warehouse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/config"
)

// EnsureDatabase creates the database if it is absent and points the session
// at it. Calling it for an existing database is a no-op success.
func (s *Session) EnsureDatabase(ctx context.Context, name string) error {
	if err := validateIdentifier(name); err != nil {
		return &ProvisioningError{Step: StepDatabase, Object: name, Err: err}
	}

	var err error
	switch s.dialect.Name {
	case config.DialectSnowflake:
		err = s.execAll(ctx,
			fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", name),
			fmt.Sprintf("USE DATABASE %s", name),
		)
	case config.DialectPostgres:
		err = s.ensurePostgresDatabase(ctx, name)
	default:
		s.logger.Debug("Database provisioning not applicable", zap.String("database", name))
	}
	if err != nil {
		return &ProvisioningError{Step: StepDatabase, Object: name, Err: err}
	}

	s.logger.Info("Database is ready", zap.String("database", name))
	return nil
}

// ensurePostgresDatabase creates the database when missing. A PostgreSQL
// session cannot switch databases, so a database other than the connected
// one is created but not used.
func (s *Session) ensurePostgresDatabase(ctx context.Context, name string) error {
	var current string
	if err := s.conn.GetWithTimeout(ctx, &current, "SELECT current_database()", s.queryTimeout); err != nil {
		return fmt.Errorf("failed to query current database: %w", err)
	}
	if current == name {
		return nil
	}

	var exists bool
	err := s.conn.GetWithTimeout(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", s.queryTimeout, name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := s.execAll(ctx, "CREATE DATABASE "+s.dialect.QuoteIdent(name)); err != nil {
			return err
		}
	}

	s.logger.Warn("Session stays on the connected database",
		zap.String("database", name),
		zap.String("connectedDatabase", current))
	return nil
}

// EnsureSchema creates the schema if it is absent and makes it the session's
// default for unqualified names.
func (s *Session) EnsureSchema(ctx context.Context, name string) error {
	if err := validateIdentifier(name); err != nil {
		return &ProvisioningError{Step: StepSchema, Object: name, Err: err}
	}

	var err error
	switch s.dialect.Name {
	case config.DialectSnowflake:
		err = s.execAll(ctx,
			fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", name),
			fmt.Sprintf("USE SCHEMA %s", name),
		)
	case config.DialectPostgres:
		quoted := s.dialect.QuoteIdent(name)
		err = s.execAll(ctx,
			"CREATE SCHEMA IF NOT EXISTS "+quoted,
			"SET search_path TO "+quoted,
		)
	default:
		s.logger.Debug("Schema provisioning not applicable", zap.String("schema", name))
	}
	if err != nil {
		return &ProvisioningError{Step: StepSchema, Object: name, Err: err}
	}

	s.logger.Info("Schema is ready", zap.String("schema", name))
	return nil
}

// EnsureTable recreates the destination table empty, discarding any rows a
// previous run left behind.
func (s *Session) EnsureTable(ctx context.Context) error {
	name := s.table.Table
	columns := s.dialect.columnDefinitions(s.table)

	var err error
	if s.dialect.ReplaceTable {
		err = s.execAll(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s (\n\t%s\n)", name, columns))
	} else {
		err = s.replaceTableInTx(ctx, name, columns)
	}
	if err != nil {
		return &ProvisioningError{Step: StepTable, Object: name, Err: err}
	}

	s.logger.Info("Table created successfully",
		zap.String("table", name),
		zap.Int("columns", len(s.table.Columns)))
	return nil
}

func (s *Session) replaceTableInTx(ctx context.Context, name, columns string) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", name),
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", name, columns),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// execAll runs statements in order on the session connection, stopping at the
// first failure.
func (s *Session) execAll(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.conn.ExecWithTimeout(ctx, stmt, s.queryTimeout); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
