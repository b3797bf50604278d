package pipeline

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the collected tables into one workbook, one sheet per
// table, sheets in name order.
func ExportXLSX(tables map[string]*Table, path string) error {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	book := excelize.NewFile()
	defer book.Close()

	for i, name := range names {
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := book.SetSheetName(book.GetSheetName(0), name); err != nil {
				return fmt.Errorf("rename sheet %s: %w", name, err)
			}
		} else {
			if _, err := book.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %s: %w", name, err)
			}
		}
		if err := writeSheet(book, name, tables[name]); err != nil {
			return err
		}
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(book *excelize.File, sheet string, table *Table) error {
	header := make([]any, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}

	for r, row := range table.Rows {
		values := make([]any, len(row))
		for i, value := range row {
			values[i] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("address row %d of %s: %w", r+2, sheet, err)
		}
		if err := book.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d of %s: %w", r+2, sheet, err)
		}
	}
	return nil
}
