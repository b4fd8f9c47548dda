package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"broadband-compare/models"
)

// XLSXWriter exports deals as a spreadsheet with a bold header row and
// per-column widths sized to the data.
type XLSXWriter struct{}

// NewXLSXWriter creates an XLSXWriter.
func NewXLSXWriter() *XLSXWriter { return &XLSXWriter{} }

func (w *XLSXWriter) Format() string { return "xlsx" }

const xlsxSheet = "Deals"

// Write stores the deals as an .xlsx workbook at path.
func (w *XLSXWriter) Write(deals []models.Deal, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", xlsxSheet)

	for col, name := range dealColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx export: %w", err)
		}
		if err := f.SetCellValue(xlsxSheet, cell, name); err != nil {
			return fmt.Errorf("xlsx export: header %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(dealColumns), 1)
		_ = f.SetCellStyle(xlsxSheet, "A1", last, headerStyle)
	}

	widths := make([]int, len(dealColumns))
	for i, name := range dealColumns {
		widths[i] = len(name)
	}

	for rowIdx, d := range deals {
		row := dealRow(d)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("xlsx export: %w", err)
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return fmt.Errorf("xlsx export: row %d: %w", rowIdx, err)
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
	}

	for i := range dealColumns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			continue
		}
		width := float64(widths[i]) + 2
		if width > 60 {
			width = 60
		}
		_ = f.SetColWidth(xlsxSheet, col, col, width)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}
	return nil
}
