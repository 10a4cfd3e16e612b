package memory

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Table is a tabular artifact loaded from a CSV file with a header row.
// Row order is preserved: the retriever relies on cleaned table rows being
// positionally aligned with embedding matrix rows.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// LoadTable reads the CSV file at path into a Table. Every record must have
// the same number of fields as the header row.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table %s has no header row", path)
	}
	return NewTable(records[0], records[1:]), nil
}

// NewTable builds a Table from a header and data rows.
func NewTable(cols []string, rows [][]string) *Table {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Table{cols: cols, index: index, rows: rows}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the header names in file order.
func (t *Table) Columns() []string {
	return t.cols
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Cell returns the value at row i in the named column. The second return is
// false when the column does not exist or i is out of range.
func (t *Table) Cell(i int, column string) (string, bool) {
	if i < 0 || i >= len(t.rows) {
		return "", false
	}
	c, ok := t.index[column]
	if !ok || c >= len(t.rows[i]) {
		return "", false
	}
	return t.rows[i][c], true
}

// Row returns row i as a column-keyed map, or nil if i is out of range.
func (t *Table) Row(i int) Row {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	row := make(Row, len(t.cols))
	for c, name := range t.cols {
		if c < len(t.rows[i]) {
			row[name] = t.rows[i][c]
		}
	}
	return row
}
