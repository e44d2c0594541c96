package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/aluiziolira/books-rpa/models"
	"github.com/aluiziolira/books-rpa/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// Pipeline normalizes raw entries and assembles them, in encounter order,
// into the catalog handed to the writer on Close.
type Pipeline struct {
	writer  OutputWriter
	catalog *Catalog
	metrics metrics
	closed  bool
}

// NewPipeline builds a pipeline writing to writer. A nil writer keeps the
// catalog in memory only.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:  writer,
		catalog: &Catalog{},
		metrics: newMetrics(),
	}
}

// Process normalizes entry and appends it to the catalog. A *parser.ParseFailure
// is returned when the entry is dropped; the pipeline stays usable.
func (p *Pipeline) Process(page int, entry models.RawEntry) error {
	if p.closed {
		return ErrPipelineClosed
	}

	record, err := parser.Normalize(entry)
	if err != nil {
		var failure *parser.ParseFailure
		if errors.As(err, &failure) {
			p.metrics.addValidation(failure.Field)
			slog.Warn("dropping entry",
				slog.Int("page", page),
				slog.String("title", entry.Title),
				slog.String("field", failure.Field),
				slog.String("value", failure.Value),
			)
		}
		return err
	}

	p.catalog.records = append(p.catalog.records, record)
	p.metrics.processed++
	return nil
}

// Catalog returns a snapshot of the records assembled so far.
func (p *Pipeline) Catalog() *Catalog {
	return NewCatalog(p.catalog.records...)
}

// Close writes the catalog and commits the writer. Later calls are no-ops.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer == nil {
		return nil
	}

	if err := p.writer.Write(p.catalog.records); err != nil {
		return errors.Join(fmt.Errorf("write catalog: %w", err), p.writer.Abort())
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// Abort discards everything staged by the writer.
func (p *Pipeline) Abort() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.writer == nil {
		return nil
	}
	return p.writer.Abort()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

type metrics struct {
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) addValidation(kind string) {
	m.validation[kind]++
}

func (m *metrics) snapshot() map[string]interface{} {
	return map[string]interface{}{
		"processed_books":   m.processed,
		"validation_errors": maps.Clone(m.validation),
	}
}
