package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/aluiziolira/books-rpa/models"
)

var csvHeader = []string{"title", "price", "in_stock", "rating"}

// Catalog is the ordered table of normalized records for one run.
type Catalog struct {
	records []models.BookRecord
}

// NewCatalog builds a catalog holding a copy of records.
func NewCatalog(records ...models.BookRecord) *Catalog {
	return &Catalog{records: slices.Clone(records)}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns a copy of the records in encounter order.
func (c *Catalog) Records() []models.BookRecord {
	return slices.Clone(c.records)
}

// Equal reports whether both catalogs hold the same records in the same order.
func (c *Catalog) Equal(other *Catalog) bool {
	return slices.Equal(c.records, other.records)
}

// EncodeCSV writes a header row followed by one row per record.
func (c *Catalog) EncodeCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range c.records {
		if err := writer.Write(csvRow(record)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// EncodeJSON writes the records as an indented JSON array.
func (c *Catalog) EncodeJSON(w io.Writer) error {
	records := c.records
	if records == nil {
		records = []models.BookRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode json records: %w", err)
	}
	return nil
}

// DecodeCSV reads a catalog written by EncodeCSV.
func DecodeCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !slices.Equal(header, csvHeader) {
		return nil, fmt.Errorf("unexpected csv header %v", header)
	}

	catalog := &Catalog{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return catalog, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		record, err := parseCSVRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		catalog.records = append(catalog.records, record)
	}
}

// DecodeJSON reads a catalog written by EncodeJSON.
func DecodeJSON(r io.Reader) (*Catalog, error) {
	var records []models.BookRecord
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json records: %w", err)
	}
	return &Catalog{records: records}, nil
}

func csvRow(record models.BookRecord) []string {
	return []string{
		record.Title,
		strconv.FormatFloat(record.Price, 'f', -1, 64),
		strconv.FormatBool(record.InStock),
		strconv.Itoa(record.Rating),
	}
}

func parseCSVRow(row []string) (models.BookRecord, error) {
	price, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("price: %w", err)
	}
	inStock, err := strconv.ParseBool(row[2])
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("in_stock: %w", err)
	}
	rating, err := strconv.Atoi(row[3])
	if err != nil {
		return models.BookRecord{}, fmt.Errorf("rating: %w", err)
	}
	return models.BookRecord{
		Title:   row[0],
		Price:   price,
		InStock: inStock,
		Rating:  rating,
	}, nil
}
