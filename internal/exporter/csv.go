package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer that resolves relative paths against dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		dir:    dir,
		logger: logger.With(slog.String("component", "csv_exporter")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	if err := writeRecords(file, options.Headers, options.Records); err != nil {
		return err
	}
	return file.Close()
}

// Write streams one table as CSV to out.
func (w *CSVWriter) Write(out io.Writer, table Table, bom bool) error {
	if bom {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return writeRecords(out, table.Headers, tableRecords(table))
}

// WriteTables writes each table to <dir>/<prefix>_<table>.csv and returns
// the paths written.
func (w *CSVWriter) WriteTables(ctx context.Context, prefix string, tables []Table) ([]string, error) {
	paths := make([]string, 0, len(tables))
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		name := fmt.Sprintf("%s_%s.csv", prefix, table.Name)
		if err := w.WriteCSV(name, WriteOptions{
			Headers:   table.Headers,
			Records:   tableRecords(table),
			BOMPrefix: true,
		}); err != nil {
			return paths, fmt.Errorf("export %s: %w", table.Name, err)
		}
		paths = append(paths, w.resolvePath(name))
	}
	return paths, nil
}

func writeRecords(out io.Writer, headers []string, records [][]string) error {
	writer := csv.NewWriter(out)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func tableRecords(table Table) [][]string {
	records := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = stringify(v)
		}
		records[i] = record
	}
	return records
}

// resolvePath resolves a relative path against the export directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.dir == "" {
		return filePath
	}
	return filepath.Join(w.dir, filePath)
}
