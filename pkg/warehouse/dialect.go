// pkg/warehouse/dialect.go
package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/David-Botos/inspections-elt/pkg/config"
	"github.com/David-Botos/inspections-elt/pkg/model"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Dialect captures the SQL differences between supported warehouses
type Dialect struct {
	Name string

	// TextType is the column type used for model.TypeText
	TextType string

	// ReplaceTable is true when the warehouse has an atomic
	// CREATE OR REPLACE TABLE; otherwise the table is dropped and
	// recreated inside one transaction.
	ReplaceTable bool

	// MaxBindParams bounds placeholders per statement; 0 means no limit
	MaxBindParams int

	// YearExpr returns an expression yielding the calendar year of an
	// ISO-8601 timestamp column, or NULL when the text does not parse.
	YearExpr func(col string) string

	// QuoteIdent renders a validated identifier for DDL
	QuoteIdent func(name string) string
}

// DialectFor returns the dialect registered under name
func DialectFor(name string) (Dialect, error) {
	switch name {
	case config.DialectSnowflake:
		return snowflakeDialect, nil
	case config.DialectPostgres:
		return postgresDialect, nil
	case config.DialectSQLite:
		return sqliteDialect, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported warehouse dialect %q", name)
	}
}

var snowflakeDialect = Dialect{
	Name:         config.DialectSnowflake,
	TextType:     "STRING",
	ReplaceTable: true,
	YearExpr: func(col string) string {
		return fmt.Sprintf(
			`YEAR(COALESCE(TRY_TO_TIMESTAMP(%[1]s, 'YYYY-MM-DD"T"HH24:MI:SS.FF'), TRY_TO_TIMESTAMP(%[1]s, 'YYYY-MM-DD"T"HH24:MI:SS')))`,
			col)
	},
	// Unquoted, so Snowflake folds names to upper case as it would for a
	// hand-written statement.
	QuoteIdent: func(name string) string { return name },
}

var postgresDialect = Dialect{
	Name:          config.DialectPostgres,
	TextType:      "TEXT",
	MaxBindParams: 65535,
	// The regex bounds each day by its month; the inner CASE drops Feb 29
	// outside leap years. Nested CASE keeps the casts behind the regex.
	YearExpr: func(col string) string {
		return fmt.Sprintf(
			`CASE WHEN %[1]s ~ '^\d{4}-((0[13578]|1[02])-(0[1-9]|[12]\d|3[01])|(0[469]|11)-(0[1-9]|[12]\d|30)|02-(0[1-9]|1\d|2\d))T([01]\d|2[0-3]):[0-5]\d:[0-5]\d(\.\d+)?$' `+
				`THEN CASE WHEN substr(%[1]s, 6, 5) <> '02-29' `+
				`OR (CAST(substr(%[1]s, 1, 4) AS INTEGER) %% 4 = 0 AND (CAST(substr(%[1]s, 1, 4) AS INTEGER) %% 100 <> 0 OR CAST(substr(%[1]s, 1, 4) AS INTEGER) %% 400 = 0)) `+
				`THEN CAST(substr(%[1]s, 1, 4) AS INTEGER) END END`,
			col)
	},
	QuoteIdent: pq.QuoteIdentifier,
}

var sqliteDialect = Dialect{
	Name:          config.DialectSQLite,
	TextType:      "TEXT",
	MaxBindParams: 32766,
	// date() and time() normalize out-of-range values (Feb 30 becomes
	// Mar 2), so both halves must map back to themselves.
	YearExpr: func(col string) string {
		return fmt.Sprintf(
			`CASE WHEN %[1]s GLOB '[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]T[0-9][0-9]:[0-9][0-9]:[0-9][0-9]*' `+
				`AND (length(%[1]s) = 19 OR (substr(%[1]s, 20) GLOB '.[0-9]*' AND substr(%[1]s, 21) NOT GLOB '*[^0-9]*')) `+
				`AND date(substr(%[1]s, 1, 10)) = substr(%[1]s, 1, 10) `+
				`AND time(substr(%[1]s, 12, 8)) = substr(%[1]s, 12, 8) `+
				`THEN CAST(substr(%[1]s, 1, 4) AS INTEGER) END`,
			col)
	},
	QuoteIdent: func(name string) string { return `"` + name + `"` },
}

// validateIdentifier accepts plain, unquoted SQL identifiers only
func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// columnDefinitions renders the column list for a CREATE TABLE statement.
// Every logical type is text today.
func (d Dialect) columnDefinitions(table model.TableMetadata) string {
	defs := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		defs[i] = col.Name + " " + d.TextType
	}
	return strings.Join(defs, ",\n\t")
}

// maxRowsPerStatement caps rows per multi-row INSERT under MaxBindParams
func (d Dialect) maxRowsPerStatement(columns int) int {
	if d.MaxBindParams <= 0 || columns <= 0 {
		return 0
	}
	return d.MaxBindParams / columns
}
