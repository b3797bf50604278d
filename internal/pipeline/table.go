package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Table is one collected result table: the header in column order plus the
// data rows.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Cell returns the value of a column in a row, or the empty string when the
// column does not exist.
func (t *Table) Cell(row int, column string) string {
	for i, name := range t.Columns {
		if name == column && i < len(t.Rows[row]) {
			return t.Rows[row][i]
		}
	}
	return ""
}

// ReadCSVTable loads a result table written by the csv sink.
func ReadCSVTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table %s has no header", path)
	}

	return &Table{Columns: records[0], Rows: records[1:]}, nil
}
