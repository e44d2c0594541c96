package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aluiziolira/books-rpa/models"
)

var (
	ErrEmptyTitle          = errors.New("title is empty")
	ErrInvalidEncoding     = errors.New("title is not valid UTF-8")
	ErrInvalidPrice        = errors.New("not a non-negative decimal")
	ErrUnknownAvailability = errors.New("unrecognized availability phrase")
	ErrUnknownRating       = errors.New("unrecognized rating marker")
)

// Field names reported by ParseFailure.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAvailability = "availability"
	FieldRating       = "rating"
)

// ParseFailure reports that one field of one entry could not be normalized.
type ParseFailure struct {
	Field string
	Value string
	Err   error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

var (
	pricePattern   = regexp.MustCompile(`^(\d+|\d{1,3}(,\d{3})+)(\.\d+)?$`)
	inStockPattern = regexp.MustCompile(`(?i)^in stock(?:\s*\(\s*(\d+)\s+available\s*\))?$`)
	outOfStock     = regexp.MustCompile(`(?i)^out of stock$`)
)

var ratings = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// Normalize converts a raw entry into a book record. No partial record is
// returned: on failure the record is the zero value.
func Normalize(raw models.RawEntry) (models.BookRecord, error) {
	title, err := ParseTitle(raw.Title)
	if err != nil {
		return models.BookRecord{}, err
	}
	price, err := ParsePrice(raw.PriceText)
	if err != nil {
		return models.BookRecord{}, err
	}
	inStock, err := ParseAvailability(raw.AvailabilityText)
	if err != nil {
		return models.BookRecord{}, err
	}
	rating, err := ParseRating(raw.RatingMarker)
	if err != nil {
		return models.BookRecord{}, err
	}
	return models.BookRecord{
		Title:   title,
		Price:   price,
		InStock: inStock,
		Rating:  rating,
	}, nil
}

// ParseTitle passes the title through unchanged, rejecting blank titles and
// titles that are not valid UTF-8. Both encodings must carry the same text.
func ParseTitle(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", &ParseFailure{Field: FieldTitle, Value: title, Err: ErrEmptyTitle}
	}
	if !utf8.ValidString(title) {
		return "", &ParseFailure{Field: FieldTitle, Value: title, Err: ErrInvalidEncoding}
	}
	return title, nil
}

// NormalizePrice removes currency symbols and surrounding whitespace.
func NormalizePrice(price string) string {
	return strings.TrimFunc(price, func(r rune) bool {
		// Â shows up when a UTF-8 pound sign is read as Latin-1.
		return unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) || r == 'Â'
	})
}

// ParsePrice parses a price such as "£51.77" into 51.77.
func ParsePrice(text string) (float64, error) {
	cleaned := NormalizePrice(text)
	if !pricePattern.MatchString(cleaned) {
		return 0, &ParseFailure{Field: FieldPrice, Value: text, Err: ErrInvalidPrice}
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", ""), 64)
	if err != nil {
		return 0, &ParseFailure{Field: FieldPrice, Value: text, Err: fmt.Errorf("%w: %v", ErrInvalidPrice, err)}
	}
	return value, nil
}

// NormalizeAvailability trims and collapses spacing in the availability text.
func NormalizeAvailability(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseAvailability classifies an availability phrase as in stock or not.
func ParseAvailability(text string) (bool, error) {
	cleaned := NormalizeAvailability(text)
	if m := inStockPattern.FindStringSubmatch(cleaned); m != nil {
		if m[1] == "" {
			return true, nil
		}
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return false, &ParseFailure{Field: FieldAvailability, Value: text, Err: err}
		}
		return count > 0, nil
	}
	if outOfStock.MatchString(cleaned) {
		return false, nil
	}
	return false, &ParseFailure{Field: FieldAvailability, Value: text, Err: ErrUnknownAvailability}
}

// ParseRating converts the textual rating to a numeric scale.
func ParseRating(marker string) (int, error) {
	if value, ok := ratings[strings.TrimSpace(marker)]; ok {
		return value, nil
	}
	return 0, &ParseFailure{Field: FieldRating, Value: marker, Err: ErrUnknownRating}
}
