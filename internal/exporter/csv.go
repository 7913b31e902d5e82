package exporter

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"btracker/internal/model"
)

// CSVWriter writes CSV files under one output directory.
type CSVWriter struct {
	dir string
	BOM bool // prefix the table files with a UTF-8 BOM
}

// NewCSVWriter creates a CSV writer rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM so spreadsheet apps detect the encoding
}

// WriteCSV writes a CSV file named name and returns its full path.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) (string, error) {
	fullPath := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	log.Printf("[INFO] wrote %s (%d records)", fullPath, len(options.Records))
	return fullPath, nil
}

// WriteAnalytics writes one row per observation with all derived fields.
func (w *CSVWriter) WriteAnalytics(name string, rows []model.AnalyticsRow) (string, error) {
	return w.WriteCSV(name, WriteOptions{Headers: AnalyticsHeaders, Records: AnalyticsRecords(rows), BOMPrefix: w.BOM})
}

// WriteHistogram writes the bin counts and their total.
func (w *CSVWriter) WriteHistogram(name string, h model.Histogram) (string, error) {
	return w.WriteCSV(name, WriteOptions{Headers: HistogramHeaders, Records: HistogramRecords(h), BOMPrefix: w.BOM})
}

// WriteYearly writes the yearly summary, newest year first.
func (w *CSVWriter) WriteYearly(name string, rows []model.YearlySummaryRow) (string, error) {
	return w.WriteCSV(name, WriteOptions{Headers: YearlyHeaders, Records: YearlyRecords(rows), BOMPrefix: w.BOM})
}
