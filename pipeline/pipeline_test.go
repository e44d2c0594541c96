package pipeline

import (
	"errors"
	"testing"

	"github.com/aluiziolira/books-rpa/models"
	"github.com/aluiziolira/books-rpa/parser"
)

type mockWriter struct {
	batches  [][]models.BookRecord
	closed   bool
	aborted  bool
	writeErr error
}

func (mw *mockWriter) Write(records []models.BookRecord) error {
	if mw.writeErr != nil {
		return mw.writeErr
	}
	batch := make([]models.BookRecord, len(records))
	copy(batch, records)
	mw.batches = append(mw.batches, batch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.closed = true
	return nil
}

func (mw *mockWriter) Abort() error {
	mw.aborted = true
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) totalWritten() int {
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func entry(title, price string) models.RawEntry {
	return models.RawEntry{
		Title:            title,
		PriceText:        price,
		AvailabilityText: "In stock",
		RatingMarker:     "Two",
	}
}

func TestPipelineProcessSkipsParseFailures(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer)

	if err := p.Process(1, entry("Clean Architecture", "£10.00")); err != nil {
		t.Fatalf("process valid: %v", err)
	}
	err := p.Process(1, entry("Broken Price", "£??"))
	var failure *parser.ParseFailure
	if !errors.As(err, &failure) || failure.Field != parser.FieldPrice {
		t.Fatalf("expected price ParseFailure, got %v", err)
	}
	if err := p.Process(2, entry("Refactoring", "£12.50")); err != nil {
		t.Fatalf("process after failure: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := writer.totalWritten(); got != 2 {
		t.Fatalf("written records = %d, want 2", got)
	}
	if !writer.closed {
		t.Fatalf("writer should be committed")
	}

	metrics := p.GetMetrics()
	if processed := metrics["processed_books"].(int64); processed != 2 {
		t.Fatalf("processed = %d, want 2", processed)
	}
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation[parser.FieldPrice] != 1 {
		t.Fatalf("price validation errors = %d, want 1", validation[parser.FieldPrice])
	}
}

func TestPipelinePreservesEncounterOrder(t *testing.T) {
	p := NewPipeline(nil)
	titles := []string{"C", "A", "B", "A"}
	for i, title := range titles {
		if err := p.Process(1, entry(title, "£1.00")); err != nil {
			t.Fatalf("process %d: %v", i, err)
		}
	}

	records := p.Catalog().Records()
	if len(records) != len(titles) {
		t.Fatalf("records = %d, want %d", len(records), len(titles))
	}
	for i, title := range titles {
		if records[i].Title != title {
			t.Fatalf("record %d title = %q, want %q", i, records[i].Title, title)
		}
	}
}

func TestPipelineCatalogIsSnapshot(t *testing.T) {
	p := NewPipeline(nil)
	if err := p.Process(1, entry("First", "£1.00")); err != nil {
		t.Fatalf("process: %v", err)
	}
	snapshot := p.Catalog()
	if err := p.Process(1, entry("Second", "£2.00")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if snapshot.Len() != 1 {
		t.Fatalf("snapshot len = %d, want 1", snapshot.Len())
	}
	records := snapshot.Records()
	records[0].Title = "mutated"
	if snapshot.Records()[0].Title != "First" {
		t.Fatalf("Records should return a copy")
	}
}

func TestPipelineClosedRejectsProcess(t *testing.T) {
	p := NewPipeline(&mockWriter{})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(1, entry("Late", "£1.00")); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

func TestPipelineAbortDiscardsWriter(t *testing.T) {
	writer := &mockWriter{}
	p := NewPipeline(writer)
	if err := p.Process(1, entry("Book", "£1.00")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Abort(); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if !writer.aborted || writer.closed || writer.totalWritten() != 0 {
		t.Fatalf("abort should discard output: %+v", writer)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close after abort should be a no-op, got %v", err)
	}
}

func TestPipelineCloseWriteErrorAborts(t *testing.T) {
	writer := &mockWriter{writeErr: errors.New("disk full")}
	p := NewPipeline(writer)
	if err := p.Process(1, entry("Book", "£1.00")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err == nil {
		t.Fatalf("expected close error")
	}
	if !writer.aborted {
		t.Fatalf("writer should be aborted after a failed write")
	}
}
