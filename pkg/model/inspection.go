// pkg/model/inspection.go
package model

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// InspectionsTable is the destination table for extracted inspection records.
// Every column is text; values are loaded verbatim.
var InspectionsTable = TableMetadata{
	Table: "restaurant_inspections",
	Columns: []Column{
		{Name: "camis", DataType: TypeText},
		{Name: "dba", DataType: TypeText},
		{Name: "boro", DataType: TypeText},
		{Name: "inspection_date", DataType: TypeText},
		{Name: "action", DataType: TypeText},
		{Name: "violation_code", DataType: TypeText},
		{Name: "violation_description", DataType: TypeText},
		{Name: "critical_flag", DataType: TypeText},
		{Name: "score", DataType: TypeText},
		{Name: "grade", DataType: TypeText},
		{Name: "grade_date", DataType: TypeText},
	},
}

// Text is a loosely typed JSON cell carried as text. Valid is false when the
// key was missing or null.
type Text struct {
	Value string
	Valid bool
}

// NewText returns a valid Text holding s
func NewText(s string) Text {
	return Text{Value: s, Valid: true}
}

// UnmarshalJSON accepts strings, numbers, booleans and null. Objects and
// arrays are kept as their compact JSON text.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Text{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = NewText(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = NewText(buf.String())
	default:
		*t = NewText(string(data))
	}
	return nil
}

// String returns the value, or "" when the cell is missing
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// InspectionRecord is one row of the NYC restaurant inspection dataset.
// Keys outside these eleven are ignored on decode.
type InspectionRecord struct {
	Camis                Text `json:"camis"`
	DBA                  Text `json:"dba"`
	Boro                 Text `json:"boro"`
	InspectionDate       Text `json:"inspection_date"`
	Action               Text `json:"action"`
	ViolationCode        Text `json:"violation_code"`
	ViolationDescription Text `json:"violation_description"`
	CriticalFlag         Text `json:"critical_flag"`
	Score                Text `json:"score"`
	Grade                Text `json:"grade"`
	GradeDate            Text `json:"grade_date"`
}

func (r *InspectionRecord) fields() [11]Text {
	return [11]Text{
		r.Camis,
		r.DBA,
		r.Boro,
		r.InspectionDate,
		r.Action,
		r.ViolationCode,
		r.ViolationDescription,
		r.CriticalFlag,
		r.Score,
		r.Grade,
		r.GradeDate,
	}
}

// Row projects the record onto InspectionsTable column order. Missing fields
// become "" so every value is a non-null string.
func (r *InspectionRecord) Row() []any {
	fields := r.fields()
	row := make([]any, len(fields))
	for i, f := range fields {
		row[i] = f.String()
	}
	return row
}

// MissingFields counts the fields that Row will fill with ""
func (r *InspectionRecord) MissingFields() int {
	missing := 0
	for _, f := range r.fields() {
		if !f.Valid {
			missing++
		}
	}
	return missing
}

// Columns lists the destination column names in insert order
var Columns = InspectionsTable.ColumnNames()
