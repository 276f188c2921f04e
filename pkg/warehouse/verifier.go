// pkg/warehouse/verifier.go
package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/connector"
)

// RowCountReport is the outcome of one row count verification
type RowCountReport struct {
	Table            string
	ExpectedCount    int64
	ActualCount      int64
	Matches          bool
	VerificationTime time.Time
	Duration         time.Duration
}

// Difference returns expected minus actual
func (r *RowCountReport) Difference() int64 {
	return r.ExpectedCount - r.ActualCount
}

// Verifier checks loaded data against what the loader sent
type Verifier struct {
	conn    connector.WarehouseConnector
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(conn connector.WarehouseConnector, logger *zap.Logger) *Verifier {
	return &Verifier{
		conn:    conn,
		logger:  logger,
		timeout: time.Minute * 5, // Default 5-minute timeout
	}
}

// WithTimeout sets a custom timeout for verification operations
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyRowCount compares the table's row count with expected. A mismatch is
// logged as a warning and reported, not returned as an error.
func (v *Verifier) VerifyRowCount(ctx context.Context, table string, expected int64) (*RowCountReport, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	report := &RowCountReport{
		Table:            table,
		ExpectedCount:    expected,
		VerificationTime: time.Now(),
	}

	var actual int64
	if err := v.conn.GetWithTimeout(ctx, &actual, fmt.Sprintf("SELECT COUNT(*) FROM %s", table), v.timeout); err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	report.ActualCount = actual
	report.Matches = actual == expected
	report.Duration = time.Since(report.VerificationTime)

	if report.Matches {
		v.logger.Info("Row count verification successful",
			zap.String("table", table),
			zap.Int64("count", actual))
	} else {
		v.logger.Warn("Row count mismatch",
			zap.String("table", table),
			zap.Int64("expectedCount", expected),
			zap.Int64("actualCount", actual),
			zap.Int64("difference", report.Difference()))
	}

	return report, nil
}
