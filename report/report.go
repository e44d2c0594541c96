// Package report renders the PDF report and the YAML summary for an
// analyzed catalog.
package report

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/aluiziolira/books-rpa/analysis"
	"github.com/aluiziolira/books-rpa/models"
	"github.com/aluiziolira/books-rpa/pipeline"
	"github.com/go-pdf/fpdf"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

const (
	topBooks        = 5
	titleWidth      = 70
	lineHeight      = 6.0
	marginMM        = 15.0
	histogramWidth  = 180.0
	histogramHeight = 120.0
	pieRadius       = 35.0
)

var (
	highColor = rgb{214, 96, 77}
	lowColor  = rgb{67, 147, 195}
)

// Options carries the run details printed in the report header.
type Options struct {
	Source      string
	GeneratedAt time.Time
}

// Render writes a Letter-size PDF for result to w.
func Render(w io.Writer, result *analysis.Result, opts Options) error {
	if result == nil || len(result.Rows) == 0 {
		return analysis.ErrEmptyCatalog
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.SetTitle("Books to Scrape report", true)
	if !opts.GeneratedAt.IsZero() {
		pdf.SetCreationDate(opts.GeneratedAt)
		pdf.SetModificationDate(opts.GeneratedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Report - Books to Scrape", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if opts.Source != "" {
		pdf.CellFormat(0, 5, tr("Source: "+opts.Source), "", 1, "L", false, 0, "")
	}
	if !opts.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 5, "Generated: "+opts.GeneratedAt.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	s := result.Summary
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Total books: %d", s.TotalBooks),
		fmt.Sprintf("Mean price: %.2f", s.PriceMean),
		fmt.Sprintf("Median price: %.2f", s.PriceMedian),
		fmt.Sprintf("Minimum price: %.2f", s.PriceMin),
		fmt.Sprintf("Maximum price: %.2f", s.PriceMax),
		fmt.Sprintf("High value: %d   Low value: %d", s.ValueClasses[analysis.HighValue], s.ValueClasses[analysis.LowValue]),
		clusterLine(s.ClusterCenters),
	} {
		pdf.CellFormat(0, lineHeight, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	hist, err := histogramPNG(result.Prices())
	if err != nil {
		return err
	}
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("histogram", opt, bytes.NewReader(hist))
	pdf.ImageOptions("histogram", marginMM, pdf.GetY(), histogramWidth, histogramHeight, true, opt, 0, "")

	pdf.AddPage()
	section(pdf, "High value vs low value")
	y := pdf.GetY() + pieRadius + 4
	drawPie(pdf, marginMM+pieRadius+5, y, pieRadius, []slice{
		{label: string(analysis.HighValue), count: s.ValueClasses[analysis.HighValue], color: highColor},
		{label: string(analysis.LowValue), count: s.ValueClasses[analysis.LowValue], color: lowColor},
	})
	pdf.SetXY(marginMM, y+pieRadius+10)

	section(pdf, fmt.Sprintf("Top %d most expensive", topBooks))
	topTable(pdf, tr, mostExpensive(result.Rows, topBooks))

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func clusterLine(centers []float64) string {
	if len(centers) == 0 {
		return fmt.Sprintf("Price clusters: not computed (fewer than %d books)", analysis.MinClusterSize)
	}
	line := "Price cluster centers:"
	for _, c := range centers {
		line += fmt.Sprintf(" %.2f", c)
	}
	return line
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
}

func topTable(pdf *fpdf.Fpdf, tr func(string) string, rows []analysis.Row) {
	widths := []float64{10, 130, 20, 25}
	headers := []string{"#", "Title", "Price", "Class"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i, row := range rows {
		title := runewidth.Truncate(row.Record.Title, titleWidth, "...")
		cells := []string{
			fmt.Sprint(i + 1),
			tr(title),
			fmt.Sprintf("%.2f", row.Record.Price),
			string(row.Class),
		}
		for j, c := range cells {
			align := "L"
			if j == 2 {
				align = "R"
			}
			pdf.CellFormat(widths[j], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// mostExpensive returns up to n rows by descending price, keeping catalog
// order among equal prices.
func mostExpensive(rows []analysis.Row, n int) []analysis.Row {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b analysis.Row) int {
		return cmp.Compare(b.Record.Price, a.Record.Price)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// WriteFile renders the report to path. The file appears only once fully
// written.
func WriteFile(path string, result *analysis.Result, opts Options) error {
	return pipeline.WriteFileAtomic(path, func(w io.Writer) error {
		return Render(w, result, opts)
	})
}

type summaryDocument struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Source      string    `yaml:"source,omitempty"`

	analysis.Summary `yaml:",inline"`

	TopBooks []models.BookRecord `yaml:"top_books"`
}

// WriteSummaryYAML writes the statistics of result as YAML to path.
func WriteSummaryYAML(path string, result *analysis.Result, opts Options) error {
	if result == nil {
		return analysis.ErrEmptyCatalog
	}
	doc := summaryDocument{
		GeneratedAt: opts.GeneratedAt.UTC(),
		Source:      opts.Source,
		Summary:     result.Summary,
	}
	for _, row := range mostExpensive(result.Rows, topBooks) {
		doc.TopBooks = append(doc.TopBooks, row.Record)
	}

	return pipeline.WriteFileAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		return enc.Close()
	})
}
