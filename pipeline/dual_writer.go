// Package pipeline assembles normalized records into the catalog and writes
// it as CSV and JSON.
package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/aluiziolira/books-rpa/models"
)

// DualWriter outputs to both CSV and JSON formats.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
}

// NewDualWriter creates a new dual writer for both CSV and JSON output
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Abort()
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes records to both CSV and JSON formats
func (dw *DualWriter) Write(records []models.BookRecord) error {
	if err := dw.csvWriter.Write(records); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("JSON write failed: %w", err)
	}
	return nil
}

// Close commits both files. Both are sealed before either is renamed, and
// the CSV destination is backed up until the JSON rename succeeds, so a
// failure leaves the previous outputs in place.
func (dw *DualWriter) Close() error {
	if err := dw.csvWriter.seal(); err != nil {
		return errors.Join(fmt.Errorf("CSV close failed: %w", err), dw.Abort())
	}
	if err := dw.jsonWriter.seal(); err != nil {
		return errors.Join(fmt.Errorf("JSON close failed: %w", err), dw.Abort())
	}

	csvPath := dw.csvWriter.staged.path
	backup, err := setAside(csvPath)
	if err != nil {
		return errors.Join(err, dw.Abort())
	}
	if err := dw.csvWriter.staged.publish(); err != nil {
		return errors.Join(fmt.Errorf("CSV close failed: %w", err), restore(csvPath, backup), dw.Abort())
	}
	if err := dw.jsonWriter.staged.publish(); err != nil {
		return errors.Join(fmt.Errorf("JSON close failed: %w", err), restore(csvPath, backup), dw.jsonWriter.Abort())
	}
	if backup != "" {
		if err := os.Remove(backup); err != nil {
			return fmt.Errorf("remove CSV backup: %w", err)
		}
	}
	return nil
}

// Abort discards both staged files.
func (dw *DualWriter) Abort() error {
	return errors.Join(dw.csvWriter.Abort(), dw.jsonWriter.Abort())
}

// Validate validates both output files
func (dw *DualWriter) Validate() error {
	var errs []error

	if err := dw.csvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("CSV validation failed: %w", err))
	}

	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("JSON validation failed: %w", err))
	}

	return errors.Join(errs...)
}
