package pipeline

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aluiziolira/books-rpa/models"
)

// OutputWriter defines the interface for data output. Nothing is visible at
// the destination until Close commits; Abort discards everything.
type OutputWriter interface {
	Write(records []models.BookRecord) error
	Close() error
	Abort() error
	Validate() error
}

// stagedFile is written next to its destination and renamed into place.
// seal and publish split commit so several files can be finished before any
// of them becomes visible.
type stagedFile struct {
	path   string
	file   *os.File
	sealed bool
	done   bool
}

func stage(path string) (*stagedFile, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}
	return &stagedFile{path: path, file: f}, nil
}

// seal syncs and closes the staged file.
func (s *stagedFile) seal() error {
	if s.sealed || s.done {
		return nil
	}
	s.sealed = true
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

// publish renames the sealed file over its destination.
func (s *stagedFile) publish() error {
	if s.done {
		return nil
	}
	if err := os.Rename(s.file.Name(), s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	s.done = true
	return nil
}

func (s *stagedFile) commit() error {
	if err := s.seal(); err != nil {
		return errors.Join(err, s.abort())
	}
	if err := s.publish(); err != nil {
		return errors.Join(err, s.abort())
	}
	return nil
}

func (s *stagedFile) abort() error {
	if s.done {
		return nil
	}
	s.done = true
	var closeErr error
	if !s.sealed {
		s.sealed = true
		closeErr = s.file.Close()
	}
	if err := os.Remove(s.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged %s: %w", s.path, err)
	}
	return closeErr
}

// setAside moves an existing file at path to a hidden backup and returns the
// backup name, or "" when path does not exist.
func setAside(path string) (string, error) {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".bak-*")
	if err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	backup := f.Name()
	f.Close()
	if err := os.Rename(path, backup); err != nil {
		os.Remove(backup)
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}

// restore puts backup back at path, or removes path when there was nothing
// to back up.
func restore(path, backup string) error {
	if backup == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		return nil
	}
	if err := os.Rename(backup, path); err != nil {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return nil
}

// WriteFileAtomic stages path, fills it with write, and renames it into
// place. Nothing appears at path when write fails.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	staged, err := stage(path)
	if err != nil {
		return err
	}
	if err := write(staged.file); err != nil {
		return errors.Join(err, staged.abort())
	}
	return staged.commit()
}

func validateNonEmpty(path, label string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", label, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", label)
	}
	return nil
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	staged *stagedFile
	writer *csv.Writer
}

// NewCSVWriter stages a CSV file and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	staged, err := stage(filename)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(staged.file)
	if err := writer.Write(csvHeader); err != nil {
		staged.abort()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	return &CSVWriter{
		staged: staged,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []models.BookRecord) error {
	for _, record := range records {
		if err := cw.writer.Write(csvRow(record)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes the rows and moves the file into place.
func (cw *CSVWriter) Close() error {
	if err := cw.seal(); err != nil {
		return errors.Join(err, cw.staged.abort())
	}
	return cw.staged.commit()
}

func (cw *CSVWriter) seal() error {
	if cw.staged.sealed || cw.staged.done {
		return nil
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.staged.seal()
}

// Abort discards the staged file.
func (cw *CSVWriter) Abort() error {
	return cw.staged.abort()
}

// Validate ensures the committed file has content.
func (cw *CSVWriter) Validate() error {
	return validateNonEmpty(cw.staged.path, "csv")
}

// JSONWriter writes records as one JSON array.
type JSONWriter struct {
	staged  *stagedFile
	records []models.BookRecord
}

// NewJSONWriter stages the JSON file.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	staged, err := stage(filename)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{staged: staged}, nil
}

// Write buffers records; the array is encoded on Close.
func (jw *JSONWriter) Write(records []models.BookRecord) error {
	jw.records = append(jw.records, records...)
	return nil
}

// Close encodes the buffered records and moves the file into place.
func (jw *JSONWriter) Close() error {
	if err := jw.seal(); err != nil {
		return errors.Join(err, jw.staged.abort())
	}
	return jw.staged.commit()
}

func (jw *JSONWriter) seal() error {
	if jw.staged.sealed || jw.staged.done {
		return nil
	}
	buffer := bufio.NewWriter(jw.staged.file)
	if err := NewCatalog(jw.records...).EncodeJSON(buffer); err != nil {
		return err
	}
	if err := buffer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.staged.seal()
}

// Abort discards the staged file.
func (jw *JSONWriter) Abort() error {
	jw.records = nil
	return jw.staged.abort()
}

// Validate ensures the committed file has content.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.staged.path, "json")
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
