// Package preview builds the tabular preview/commit representation of
// staged records, including the expansion of the delimited notes column
// into one column per note type.
package preview

// DataType describes the rendering type of a table column.
type DataType string

const (
	DataTypeString  DataType = "STRING"
	DataTypeNumeric DataType = "NUMERIC"
	DataTypeDate    DataType = "DATE"
)

// HeaderCell describes one table column.
type HeaderCell struct {
	Value string
	// Visible controls default column visibility in the UI.
	Visible bool
	// ForceVisible marks columns the caller requires shown regardless of
	// defaults.
	ForceVisible bool
	DataType     DataType
}

// Table is the ordered tabular representation of staged records: header
// cells plus data rows. Row cells align positionally with the headers.
type Table struct {
	Headers []HeaderCell
	Rows    [][]string
}

// ColumnIndex returns the position of the header with the given value, or
// -1 when no such column exists.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Headers {
		if h.Value == name {
			return i
		}
	}
	return -1
}
