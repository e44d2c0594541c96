package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aluiziolira/books-rpa/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleCatalog() *Catalog {
	return NewCatalog(
		models.BookRecord{Title: "A Light in the Attic", Price: 51.77, InStock: true, Rating: 3},
		models.BookRecord{Title: `Tipping the Velvet, "Deluxe"`, Price: 53.74, InStock: true, Rating: 1},
		models.BookRecord{Title: "Soumission\nsecond line", Price: 0.1, InStock: false, Rating: 1},
		models.BookRecord{Title: "Sharp <Objects> & Co", Price: 1234.5, InStock: true, Rating: 4},
		models.BookRecord{Title: "Zéro", Price: 0, InStock: false, Rating: 5},
	)
}

func TestCatalogCSVRoundTrip(t *testing.T) {
	original := sampleCatalog()

	var buf bytes.Buffer
	if err := original.EncodeCSV(&buf); err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "title,price,in_stock,rating\n") {
		t.Fatalf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	decoded, err := DecodeCSV(&buf)
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if diff := cmp.Diff(original.Records(), decoded.Records()); diff != "" {
		t.Fatalf("csv round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogJSONRoundTrip(t *testing.T) {
	original := sampleCatalog()

	var buf bytes.Buffer
	if err := original.EncodeJSON(&buf); err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if !strings.Contains(buf.String(), `"Sharp <Objects> & Co"`) {
		t.Fatalf("html characters should not be escaped: %s", buf.String())
	}

	decoded, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := cmp.Diff(original.Records(), decoded.Records()); diff != "" {
		t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
	}
	if !original.Equal(decoded) {
		t.Fatalf("Equal should hold after round trip")
	}
}

func TestCatalogEmptyRoundTrip(t *testing.T) {
	empty := NewCatalog()

	var jsonBuf bytes.Buffer
	if err := empty.EncodeJSON(&jsonBuf); err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if got := strings.TrimSpace(jsonBuf.String()); got != "[]" {
		t.Fatalf("empty json = %q, want []", got)
	}
	decoded, err := DecodeJSON(&jsonBuf)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if diff := cmp.Diff(empty.Records(), decoded.Records(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("empty json mismatch: %s", diff)
	}

	var csvBuf bytes.Buffer
	if err := empty.EncodeCSV(&csvBuf); err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	decoded, err = DecodeCSV(&csvBuf)
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if decoded.Len() != 0 {
		t.Fatalf("decoded len = %d, want 0", decoded.Len())
	}
}

func TestDecodeCSVRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong header", input: "name,price,in_stock,rating\nA,1,true,1\n"},
		{name: "bad price", input: "title,price,in_stock,rating\nA,cheap,true,1\n"},
		{name: "bad bool", input: "title,price,in_stock,rating\nA,1,maybe,1\n"},
		{name: "bad rating", input: "title,price,in_stock,rating\nA,1,true,four\n"},
		{name: "short row", input: "title,price,in_stock,rating\nA,1,true\n"},
		{name: "empty input", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCSV(strings.NewReader(tt.input)); err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	input := `[{"title":"A","price":1,"in_stock":true,"rating":1,"scraped_at":"now"}]`
	if _, err := DecodeJSON(strings.NewReader(input)); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
