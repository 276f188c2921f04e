// pkg/model/summary.go
package model

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// SummaryRow is one aggregation result: inspections per borough per year
type SummaryRow struct {
	Boro             string `db:"boro"`
	Year             int    `db:"year"`
	InspectionsCount int64  `db:"inspections_count"`
}

// TotalCount sums InspectionsCount across rows
func TotalCount(rows []SummaryRow) int64 {
	var total int64
	for _, r := range rows {
		total += r.InspectionsCount
	}
	return total
}

// FormatSummary writes rows as an aligned table
func FormatSummary(w io.Writer, rows []SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BORO\tYEAR\tINSPECTIONS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", r.Boro, r.Year, r.InspectionsCount)
	}
	if len(rows) == 0 {
		fmt.Fprintln(tw, "(no rows)\t\t")
	}
	return tw.Flush()
}
