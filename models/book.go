// Package models defines data structures for the scraper.
package models

import "time"

// RawEntry holds the unparsed text fields of one catalog item.
type RawEntry struct {
	Title            string
	PriceText        string
	AvailabilityText string
	RatingMarker     string
}

// BookRecord is a fully normalized catalog item.
type BookRecord struct {
	Title   string  `csv:"title" json:"title" yaml:"title"`
	Price   float64 `csv:"price" json:"price" yaml:"price"`
	InStock bool    `csv:"in_stock" json:"in_stock" yaml:"in_stock"`
	Rating  int     `csv:"rating" json:"rating" yaml:"rating"`
}

// ScraperResult holds the overall result of a scraping operation
type ScraperResult struct {
	StartTime     time.Time
	EndTime       time.Time
	PageCount     int
	ExpectedPages int
	EntryCount    int
	SkippedItems  int
	RecordCount   int
	ParseFailures map[string]int
	ErrorsByType  map[string]int
	LastPageURL   string
}
