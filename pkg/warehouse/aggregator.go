// pkg/warehouse/aggregator.go
package warehouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/inspections-elt/pkg/model"
)

// Quoted lower-case aliases keep result column names stable across
// warehouses (Snowflake upper-cases unquoted ones) so they match db tags.
const summaryQuery = `SELECT boro AS "boro", inspection_year AS "year", COUNT(*) AS "inspections_count"
FROM (SELECT boro, %s AS inspection_year FROM %s) t
WHERE inspection_year IS NOT NULL
GROUP BY boro, inspection_year
ORDER BY boro, inspection_year`

// SummaryQuery returns the aggregation statement for the session's dialect
func (s *Session) SummaryQuery() string {
	return fmt.Sprintf(summaryQuery, s.dialect.YearExpr("inspection_date"), s.table.Table)
}

// Aggregate counts inspections per borough and year, ordered by both.
// Rows whose inspection_date does not parse are left out of every group.
func (s *Session) Aggregate(ctx context.Context) ([]model.SummaryRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	rows := make([]model.SummaryRow, 0)
	if err := s.db.SelectContext(ctx, &rows, s.SummaryQuery()); err != nil {
		return nil, &AggregationError{Err: err}
	}

	s.logger.Info("Aggregated inspections",
		zap.Int("groups", len(rows)),
		zap.Int64("rows", model.TotalCount(rows)),
		zap.Duration("duration", time.Since(start)))

	return rows, nil
}
