package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"broadband-compare/models"
)

// CSVWriter exports deals as a flat CSV table with a fixed column order.
type CSVWriter struct{}

// NewCSVWriter creates a CSVWriter.
func NewCSVWriter() *CSVWriter { return &CSVWriter{} }

func (w *CSVWriter) Format() string { return "csv" }

// Write stores the deals as CSV at path.
func (w *CSVWriter) Write(deals []models.Deal, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write(dealColumns); err != nil {
		return fmt.Errorf("csv export: header: %w", err)
	}

	for i, d := range deals {
		if err := cw.Write(dealRow(d)); err != nil {
			return fmt.Errorf("csv export: row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// dealRow renders one deal in dealColumns order.
func dealRow(d models.Deal) []string {
	upload := ""
	if d.UploadSpeed != nil {
		upload = formatFloat(*d.UploadSpeed)
	}
	return []string{
		d.Provider,
		d.DealName,
		formatFloat(d.MonthlyPrice),
		formatFloat(d.UpfrontCost),
		formatFloat(d.TotalContractCost),
		formatFloat(d.DownloadSpeed),
		upload,
		strconv.Itoa(d.ContractLength),
		d.DataAllowance,
		string(d.Technology),
		d.InstallationType,
		d.Promotions,
		d.Postcode,
		d.Address,
		d.URL,
		d.ExtractedAt.Format(time.RFC3339),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
