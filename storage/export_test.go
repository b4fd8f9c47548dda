package storage

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"broadband-compare/models"
	"broadband-compare/utils"
)

func sampleDeals() []models.Deal {
	upload := 150.0
	return []models.Deal{
		{
			Provider:          "hyperoptic",
			DealName:          "Fast 150",
			MonthlyPrice:      25,
			DownloadSpeed:     150,
			UploadSpeed:       &upload,
			ContractLength:    24,
			TotalContractCost: 600,
			DataAllowance:     "Unlimited",
			Technology:        models.TechFTTP,
			InstallationType:  "Standard",
			Postcode:          "SW1A 1AA",
			ExtractedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Provider:          "bt",
			DealName:          "Full Fibre 500",
			MonthlyPrice:      39.99,
			UpfrontCost:       9.99,
			DownloadSpeed:     500,
			ContractLength:    24,
			TotalContractCost: 39.99*24 + 9.99,
			DataAllowance:     "Unlimited",
			Technology:        models.TechFTTP,
			InstallationType:  "Standard",
			Postcode:          "SW1A 1AA",
			ExtractedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.csv")

	if err := NewCSVWriter().Write(sampleDeals(), path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("got %d rows; want header + 2", len(rows))
	}
	if rows[0][0] != "provider" || rows[0][1] != "deal_name" {
		t.Errorf("header wrong: %v", rows[0][:2])
	}
	if rows[1][0] != "hyperoptic" || rows[1][2] != "25.00" {
		t.Errorf("first data row wrong: %v", rows[1][:3])
	}
	// Missing upload speed stays an empty cell.
	if rows[2][6] != "" {
		t.Errorf("bt upload speed = %q; want empty", rows[2][6])
	}
}

func TestJSONWriterEnvelope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.json")

	if err := NewJSONWriter().Write(sampleDeals(), path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var doc jsonExport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.TotalDeals != 2 || len(doc.Deals) != 2 {
		t.Errorf("TotalDeals = %d, len(Deals) = %d; want 2, 2", doc.TotalDeals, len(doc.Deals))
	}
	if len(doc.Providers) != 2 || doc.Providers[0] != "bt" {
		t.Errorf("Providers = %v; want sorted [bt hyperoptic]", doc.Providers)
	}
	if doc.ExportTimestamp.IsZero() {
		t.Error("export timestamp missing")
	}
	if doc.Deals[0].UploadSpeed == nil || *doc.Deals[0].UploadSpeed != 150 {
		t.Errorf("upload speed lost in round trip: %+v", doc.Deals[0].UploadSpeed)
	}
}

func TestXLSXWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.xlsx")

	if err := NewXLSXWriter().Write(sampleDeals(), path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want header + 2", len(rows))
	}
	if rows[0][0] != "provider" {
		t.Errorf("header cell = %q; want provider", rows[0][0])
	}
	if rows[2][1] != "Full Fibre 500" {
		t.Errorf("deal name cell = %q; want Full Fibre 500", rows[2][1])
	}
}

func TestExportAllWritesEveryFormat(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir, utils.NewLoggerAt(utils.LevelError))

	paths, err := exporter.Export(sampleDeals(), "all")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got %d paths; want 3", len(paths))
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		seen[filepath.Ext(p)] = true
		if _, err := os.Stat(p); err != nil {
			t.Errorf("reported path missing on disk: %s", p)
		}
	}
	for _, ext := range []string{".csv", ".json", ".xlsx"} {
		if !seen[ext] {
			t.Errorf("no %s output among %v", ext, paths)
		}
	}
}

func TestExportUnknownFormat(t *testing.T) {
	exporter := NewExporter(t.TempDir(), utils.NewLoggerAt(utils.LevelError))
	if _, err := exporter.Export(sampleDeals(), "parquet"); err == nil {
		t.Error("unknown format did not error")
	}
}
