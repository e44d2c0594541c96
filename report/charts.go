package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/go-pdf/fpdf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const histogramBins = 20

// histogramPNG renders a price histogram. Prices that are all equal get a
// single bin one unit wide centred on the value. It returns nil for no prices.
func histogramPNG(prices []float64) ([]byte, error) {
	if len(prices) == 0 {
		return nil, nil
	}

	p := plot.New()
	p.Title.Text = "Price distribution"
	p.X.Label.Text = "Price"
	p.Y.Label.Text = "Books"

	var h *plotter.Hist
	if floats.Min(prices) == floats.Max(prices) {
		h = singleBin(prices)
	} else {
		var err error
		h, err = plotter.NewHist(plotter.Values(prices), histogramBins)
		if err != nil {
			return nil, fmt.Errorf("build histogram: %w", err)
		}
	}
	p.Add(h)

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render histogram: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode histogram: %w", err)
	}
	return buf.Bytes(), nil
}

func singleBin(prices []float64) *plotter.Hist {
	v := prices[0]
	return &plotter.Hist{
		Bins:      []plotter.HistogramBin{{Min: v - 0.5, Max: v + 0.5, Weight: float64(len(prices))}},
		Width:     1,
		FillColor: color.Gray{Y: 128},
		LineStyle: plotter.DefaultLineStyle,
	}
}

type rgb struct{ r, g, b int }

type slice struct {
	label string
	count int
	color rgb
}

// pieSegments is the number of polygon edges used for a full circle.
const pieSegments = 90

// drawPie fills one polygon wedge per non-empty slice, starting at twelve
// o'clock and running clockwise, and writes a legend to the right.
func drawPie(pdf *fpdf.Fpdf, cx, cy, radius float64, slices []slice) {
	total := 0
	for _, s := range slices {
		total += s.count
	}
	if total == 0 {
		return
	}

	start := -math.Pi / 2
	for _, s := range slices {
		if s.count == 0 {
			continue
		}
		sweep := 2 * math.Pi * float64(s.count) / float64(total)
		steps := max(2, int(math.Ceil(pieSegments*sweep/(2*math.Pi))))

		points := make([]fpdf.PointType, 0, steps+2)
		points = append(points, fpdf.PointType{X: cx, Y: cy})
		for i := 0; i <= steps; i++ {
			angle := start + sweep*float64(i)/float64(steps)
			points = append(points, fpdf.PointType{
				X: cx + radius*math.Cos(angle),
				Y: cy + radius*math.Sin(angle),
			})
		}
		pdf.SetFillColor(s.color.r, s.color.g, s.color.b)
		pdf.Polygon(points, "FD")
		start += sweep
	}

	legendX := cx + radius + 10
	legendY := cy - float64(len(slices))*4
	pdf.SetFont("Helvetica", "", 10)
	for i, s := range slices {
		y := legendY + float64(i)*8
		pdf.SetFillColor(s.color.r, s.color.g, s.color.b)
		pdf.Rect(legendX, y, 5, 5, "FD")
		pdf.SetXY(legendX+7, y)
		share := 100 * float64(s.count) / float64(total)
		pdf.CellFormat(60, 5, fmt.Sprintf("%s: %d (%.1f%%)", s.label, s.count, share), "", 0, "L", false, 0, "")
	}
}
