package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesTotal        prometheus.Counter
	PageLoadDuration  prometheus.Histogram
	EntriesTotal      prometheus.Counter
	SkippedItemsTotal *prometheus.CounterVec
	ParseFailures     *prometheus.CounterVec
	RecordsTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_total",
			Help: "Total listing pages loaded by the session.",
		},
	)
	pageLoad := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_page_load_duration_seconds",
			Help:    "Page load latency including the settle delay.",
			Buckets: prometheus.DefBuckets,
		},
	)
	entries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_entries_extracted_total",
			Help: "Total raw entries extracted from listing pages.",
		},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_skipped_total",
			Help: "Catalog items skipped because a field element was missing.",
		},
		[]string{"field"},
	)
	parseFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_parse_failures_total",
			Help: "Entries dropped because a field could not be normalized.",
		},
		[]string{"field"},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Total normalized records added to the catalog.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of fatal scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(pages, pageLoad, entries, skipped, parseFailures, records, errorsTotal)

	return &Metrics{
		Registry:          registry,
		PagesTotal:        pages,
		PageLoadDuration:  pageLoad,
		EntriesTotal:      entries,
		SkippedItemsTotal: skipped,
		ParseFailures:     parseFailures,
		RecordsTotal:      records,
		ErrorsTotal:       errorsTotal,
	}
}

// IncPages increments the loaded pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// ObserveDuration records a page load duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.PageLoadDuration.Observe(d.Seconds())
}

// IncEntries increments the extracted entries counter.
func (m *Metrics) IncEntries() {
	if m == nil {
		return
	}
	m.EntriesTotal.Inc()
}

// IncSkipped increments the skipped items counter for a missing field.
func (m *Metrics) IncSkipped(field string) {
	if m == nil {
		return
	}
	m.SkippedItemsTotal.WithLabelValues(field).Inc()
}

// IncParseFailure increments the parse failure counter for a field.
func (m *Metrics) IncParseFailure(field string) {
	if m == nil {
		return
	}
	m.ParseFailures.WithLabelValues(field).Inc()
}

// AddRecords adds n to the records counter.
func (m *Metrics) AddRecords(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
