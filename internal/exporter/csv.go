package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes tables to CSV files under a base directory
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative paths are resolved
// against baseDir.
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "csv_writer")),
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

	w.logger.Debug("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := Encode(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteWorkingFile writes a table to a new, uniquely named file in the base
// directory and returns its path. The header is always the first row.
func (w *CSVWriter) WriteWorkingFile(headers []string, records [][]string) (string, error) {
	path := filepath.Join(w.baseDir, fmt.Sprintf("run-%s.csv", uuid.NewString()))
	if err := w.WriteCSV(path, WriteOptions{Headers: headers, Records: records}); err != nil {
		return "", fmt.Errorf("write working file: %w", err)
	}
	w.logger.Info("Working file written",
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.Int("columns", len(headers)))
	return path, nil
}

// Remove deletes a file written by this writer. Missing files are ignored.
func (w *CSVWriter) Remove(path string) error {
	if err := os.Remove(w.resolvePath(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Encode writes headers and records as CSV to any writer
func Encode(dst io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := dst.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(dst)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
