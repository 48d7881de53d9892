package sheet

// IdentifierColumn is the required name of the first column.
const IdentifierColumn = "ID_UNICO"

// Table is a parsed spreadsheet. Every row holds exactly len(Columns) values.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Field is one (column, value) pair of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is a read-only view over one table row.
type Record struct {
	Identifier string
	Fields     []Field
}

// Record builds the view for row i. The identifier is column 0 rendered
// with the display rule; column 0 is also kept in Fields.
func (t *Table) Record(i int) Record {
	row := t.Rows[i]
	fields := make([]Field, len(t.Columns))
	for j, name := range t.Columns {
		fields[j] = Field{Name: name, Value: row[j]}
	}
	return Record{
		Identifier: identifier(row),
		Fields:     fields,
	}
}

// Records returns every row as a Record, in table order.
func (t *Table) Records() []Record {
	records := make([]Record, t.Len())
	for i := range t.Rows {
		records[i] = t.Record(i)
	}
	return records
}

func identifier(row []Value) string {
	if len(row) == 0 {
		return ""
	}
	return row[0].String()
}
