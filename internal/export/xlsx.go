package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sensitivitySheet = "SENSITIVITY"

// XLSXWriter implements SheetWriter by writing a local .xlsx workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that saves to the given path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write renders the sweep table into a single SENSITIVITY sheet and saves
// the workbook, replacing any existing file at the path.
func (w *XLSXWriter) Write(_ context.Context, rows []SweepRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sensitivitySheet); err != nil {
		return fmt.Errorf("naming sensitivity sheet: %w", err)
	}

	for rowIdx, row := range buildValues(rows) {
		for colIdx, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("computing cell name: %w", err)
			}
			if err := f.SetCellValue(sensitivitySheet, cell, value); err != nil {
				return fmt.Errorf("writing cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}
