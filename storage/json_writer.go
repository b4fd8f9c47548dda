package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"broadband-compare/models"
)

// JSONWriter exports deals as a JSON document with a metadata envelope.
type JSONWriter struct{}

// NewJSONWriter creates a JSONWriter.
func NewJSONWriter() *JSONWriter { return &JSONWriter{} }

func (w *JSONWriter) Format() string { return "json" }

// jsonExport is the on-disk document shape.
type jsonExport struct {
	ExportTimestamp time.Time     `json:"export_timestamp"`
	TotalDeals      int           `json:"total_deals"`
	Providers       []string      `json:"providers"`
	Deals           []models.Deal `json:"deals"`
}

// Write stores the deals as pretty-printed JSON at path.
func (w *JSONWriter) Write(deals []models.Deal, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("json export: %w", err)
	}

	doc := jsonExport{
		ExportTimestamp: time.Now(),
		TotalDeals:      len(deals),
		Providers:       providerNames(deals),
		Deals:           deals,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("json export: %w", err)
	}
	return nil
}

// providerNames returns the distinct providers present, sorted.
func providerNames(deals []models.Deal) []string {
	set := make(map[string]bool)
	for _, d := range deals {
		set[d.Provider] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
