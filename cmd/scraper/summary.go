package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aluiziolira/books-rpa/models"
	"github.com/jedib0t/go-pretty/v6/table"
)

func printSummary(w io.Writer, result *models.ScraperResult, duration time.Duration, metrics map[string]interface{}, written outputs) {
	records := int64(0)
	if processed, ok := metrics["processed_books"].(int64); ok {
		records = processed
	}
	perSec := 0.0
	if duration.Seconds() > 0 {
		perSec = float64(records) / duration.Seconds()
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Scrape complete")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Pages", fmt.Sprintf("%d of %d", result.PageCount, result.ExpectedPages)},
		{"Entries", result.EntryCount},
		{"Skipped items", result.SkippedItems},
		{"Records", records},
		{"Parse failures", formatCounts(result.ParseFailures)},
		{"Duration", duration.Round(time.Millisecond)},
		{"Records/sec", fmt.Sprintf("%.2f", perSec)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"CSV", written.csv})
	t.AppendRow(table.Row{"JSON", written.json})
	if written.report != "" {
		t.AppendRow(table.Row{"Report", written.report})
		t.AppendRow(table.Row{"Summary", written.summary})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(counts))
	for _, key := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counts[key]))
	}
	return strings.Join(parts, " ")
}
