// pkg/model/metadata.go
package model

// TableMetadata contains the structure information for a warehouse table
type TableMetadata struct {
	Table   string   // Table name
	Columns []Column // Column definitions, in insert order
}

// Column represents metadata about a warehouse column
type Column struct {
	Name     string // Column name
	DataType string // Logical data type, mapped to a dialect type at DDL time
}

// Logical column types understood by the warehouse dialects
const (
	TypeText = "text"
)

// ColumnNames returns the column names in declaration order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}
