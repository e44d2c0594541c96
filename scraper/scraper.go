package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/aluiziolira/books-rpa/config"
	"github.com/aluiziolira/books-rpa/models"
	"github.com/aluiziolira/books-rpa/parser"
	"github.com/aluiziolira/books-rpa/pipeline"
)

// Scraper drives one sequential crawl of the catalog into a pipeline.
type Scraper struct {
	cfg       *config.Config
	transport http.RoundTripper
	extractor *Extractor
	Metrics   *Metrics

	errorsByType map[string]int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	metrics := NewMetrics()
	return &Scraper{
		cfg:          cfg,
		extractor:    NewExtractor(metrics),
		Metrics:      metrics,
		errorsByType: make(map[string]int),
	}, nil
}

// WithTransport replaces the HTTP transport used by sessions opened in Run.
func (s *Scraper) WithTransport(transport http.RoundTripper) {
	s.transport = transport
}

// Run opens a session, walks every listing page, and feeds each extracted
// entry through p. The session is released before Run returns. Navigation
// and extraction failures end the run; parse failures only drop the entry.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (result *models.ScraperResult, err error) {
	result = &models.ScraperResult{
		StartTime:     time.Now(),
		ParseFailures: make(map[string]int),
	}
	defer func() {
		result.EndTime = time.Now()
		result.ErrorsByType = maps.Clone(s.errorsByType)
		if err != nil {
			s.recordFailure(err)
			result.ErrorsByType = maps.Clone(s.errorsByType)
		}
	}()

	session, err := OpenSession(s.cfg, s.transport)
	if err != nil {
		return result, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			slog.Error("close session", slog.Any("error", closeErr))
		}
	}()

	navigator, err := NewNavigator(session, s.cfg.BaseURL, s.cfg.MaxPages, s.cfg.VisitedCacheSize, s.Metrics)
	if err != nil {
		return result, err
	}

	for page, err := range navigator.Pages(ctx) {
		if err != nil {
			return result, err
		}
		result.PageCount++
		result.LastPageURL = page.URL.String()
		if page.Total > result.ExpectedPages {
			result.ExpectedPages = page.Total
		}

		entries, err := s.extractor.Entries(page)
		if err != nil {
			return result, err
		}

		found := 0
		for entry := range entries {
			found++
			if err := p.Process(page.Number, entry); err != nil {
				var failure *parser.ParseFailure
				if !errors.As(err, &failure) {
					return result, fmt.Errorf("process entry on page %d: %w", page.Number, err)
				}
				result.ParseFailures[failure.Field]++
				s.Metrics.IncParseFailure(failure.Field)
				continue
			}
			result.RecordCount++
			s.Metrics.AddRecords(1)
		}
		result.EntryCount += found
		result.SkippedItems += page.Doc.Find(listingSelector).Find(itemSelector).Length() - found

		slog.Info("page scraped",
			slog.Int("page", page.Number),
			slog.String("url", page.URL.String()),
			slog.Int("entries", found),
		)
	}

	return result, nil
}

func (s *Scraper) recordFailure(err error) {
	category := errorTypeLabel(err)
	s.errorsByType[category]++
	s.Metrics.IncError(category)

	attrs := []any{
		slog.String("kind", FailureKind(err)),
		slog.String("category", category),
		slog.Any("error", err),
	}
	if page, url, ok := FailurePage(err); ok {
		attrs = append(attrs, slog.Int("page", page), slog.String("url", url))
	}
	slog.Error("scrape failed", attrs...)
}
