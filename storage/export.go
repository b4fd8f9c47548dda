package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"broadband-compare/models"
	"broadband-compare/utils"
)

// Exporter writes the final deal list to disk in one or more formats.
type Exporter struct {
	outputDir string
	logger    *utils.Logger

	clock func() time.Time
}

// NewExporter creates an Exporter rooted at outputDir.
func NewExporter(outputDir string, logger *utils.Logger) *Exporter {
	return &Exporter{outputDir: outputDir, logger: logger, clock: time.Now}
}

// Export writes deals in the requested format ("csv", "json", "xlsx", or
// "all") and returns the paths written. "all" runs the writers in parallel;
// one format failing does not stop the others, and the error reports the
// first failure.
func (e *Exporter) Export(deals []models.Deal, format string) ([]string, error) {
	writers, err := writersFor(format)
	if err != nil {
		return nil, err
	}

	stamp := e.clock().Format("20060102_150405")

	var g errgroup.Group
	var mu sync.Mutex
	var paths []string

	for _, w := range writers {
		w := w
		path := filepath.Join(e.outputDir, fmt.Sprintf("broadband_deals_%s.%s", stamp, w.Format()))
		g.Go(func() error {
			if err := w.Write(deals, path); err != nil {
				e.logger.Error("Export %s failed: %v", w.Format(), err)
				return err
			}
			e.logger.Info("Wrote %d deals to %s", len(deals), path)
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	return paths, err
}

func writersFor(format string) ([]DealWriter, error) {
	switch format {
	case "csv":
		return []DealWriter{NewCSVWriter()}, nil
	case "json":
		return []DealWriter{NewJSONWriter()}, nil
	case "xlsx":
		return []DealWriter{NewXLSXWriter()}, nil
	case "all":
		return []DealWriter{NewCSVWriter(), NewJSONWriter(), NewXLSXWriter()}, nil
	}
	return nil, fmt.Errorf("unknown export format %q (want csv, json, xlsx, or all)", format)
}
