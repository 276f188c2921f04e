// pkg/warehouse/loader.go
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/model"
)

// Load inserts the whole batch in one transaction and returns len(batch).
// Missing fields are loaded as empty strings. On any failure the transaction
// is rolled back and a *LoadError is returned; there is no partial success.
func (s *Session) Load(ctx context.Context, batch []model.InspectionRecord) (int64, error) {
	if len(batch) == 0 {
		s.logger.Info("Nothing to load", zap.String("table", s.table.Table))
		return 0, nil
	}

	rows, normalized := projectRows(batch)
	if normalized > 0 {
		s.logger.Debug("Normalized missing fields to empty strings",
			zap.Int("fields", normalized))
	}

	start := time.Now()
	if err := s.insertRows(ctx, rows); err != nil {
		return 0, &LoadError{Attempted: len(batch), Err: err}
	}

	loaded := int64(len(batch))
	s.logger.Info("Loaded records",
		zap.String("table", s.table.Table),
		zap.Int64("rows", loaded),
		zap.Duration("duration", time.Since(start)))

	// The data is committed at this point; a mismatch is reported, not fatal.
	if _, err := s.verifier.VerifyRowCount(ctx, s.table.Table, loaded); err != nil {
		s.logger.Warn("Row count verification failed", zap.Error(err))
	}

	return loaded, nil
}

func projectRows(batch []model.InspectionRecord) ([][]interface{}, int) {
	rows := make([][]interface{}, len(batch))
	normalized := 0
	for i := range batch {
		rows[i] = batch[i].Row()
		normalized += batch[i].MissingFields()
	}
	return rows, normalized
}

func (s *Session) insertRows(ctx context.Context, rows [][]interface{}) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		query, args := buildInsert(tx, s.table.Table, model.Columns, rows[start:end])
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", start, err)
		}

		s.logger.Debug("Inserted chunk",
			zap.Int("from", start),
			zap.Int("to", end))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildInsert renders one multi-row INSERT with placeholders rebound for the
// transaction's driver.
func buildInsert(tx *sqlx.Tx, table string, columns []string, rows [][]interface{}) (string, []interface{}) {
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	placeholders := make([]string, len(rows))
	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders[i] = rowPlaceholder
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	return tx.Rebind(query), args
}
