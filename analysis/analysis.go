// Package analysis computes descriptive statistics, a median value split,
// and a two-cluster grouping over a catalog's prices.
package analysis

import (
	"errors"
	"math"
	"slices"

	"github.com/aluiziolira/books-rpa/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrEmptyCatalog is returned when there is nothing to analyze.
var ErrEmptyCatalog = errors.New("analysis: empty catalog")

// ValueClass is the side of the median a record's price falls on.
type ValueClass string

const (
	HighValue ValueClass = "High value"
	LowValue  ValueClass = "Low value"
)

// MinClusterSize is the fewest prices for which clustering runs.
const MinClusterSize = 10

const (
	clusterCount  = 2
	maxIterations = 300
)

// Summary holds the headline statistics.
type Summary struct {
	TotalBooks     int                `yaml:"total_books"`
	PriceMean      float64            `yaml:"price_mean"`
	PriceMedian    float64            `yaml:"price_median"`
	PriceMin       float64            `yaml:"price_min"`
	PriceMax       float64            `yaml:"price_max"`
	ValueClasses   map[ValueClass]int `yaml:"value_category_distribution"`
	ClusterCenters []float64          `yaml:"kmeans_centers,omitempty"`
}

// Row pairs a record with its derived labels. Cluster is -1 when clustering
// did not run.
type Row struct {
	Record  models.BookRecord
	Class   ValueClass
	Cluster int
}

// Result is the full analysis of one catalog.
type Result struct {
	Summary Summary
	Rows    []Row
}

// Prices returns the prices of all rows in order.
func (r *Result) Prices() []float64 {
	prices := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		prices[i] = row.Record.Price
	}
	return prices
}

// Analyze computes the summary and per-record labels.
func Analyze(records []models.BookRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}

	prices := make([]float64, len(records))
	for i, record := range records {
		prices[i] = record.Price
	}

	median := Median(prices)
	summary := Summary{
		TotalBooks:   len(records),
		PriceMean:    stat.Mean(prices, nil),
		PriceMedian:  median,
		PriceMin:     floats.Min(prices),
		PriceMax:     floats.Max(prices),
		ValueClasses: map[ValueClass]int{HighValue: 0, LowValue: 0},
	}

	rows := make([]Row, len(records))
	for i, record := range records {
		class := Classify(record.Price, median)
		summary.ValueClasses[class]++
		rows[i] = Row{Record: record, Class: class, Cluster: -1}
	}

	if len(prices) >= MinClusterSize {
		centers, labels := KMeans1D(prices, clusterCount)
		summary.ClusterCenters = centers
		for i := range rows {
			rows[i].Cluster = labels[i]
		}
	}

	return &Result{Summary: summary, Rows: rows}, nil
}

// Classify places price above or at/below the median.
func Classify(price, median float64) ValueClass {
	if price > median {
		return HighValue
	}
	return LowValue
}

// Median returns the middle value, averaging the two middle values for an
// even count. It returns NaN for no values.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// KMeans1D groups values into k clusters with Lloyd's algorithm. Centers
// start evenly spread between the minimum and maximum so the result is
// deterministic; they are returned ascending and labels index into them.
func KMeans1D(values []float64, k int) ([]float64, []int) {
	labels := make([]int, len(values))
	if len(values) == 0 || k <= 0 {
		return nil, labels
	}

	lo, hi := floats.Min(values), floats.Max(values)
	centers := make([]float64, k)
	if k == 1 {
		centers[0] = stat.Mean(values, nil)
		return centers, labels
	}
	floats.Span(centers, lo, hi)

	sums := make([]float64, k)
	counts := make([]int, k)
	for iter := 0; iter < maxIterations; iter++ {
		changed := iter == 0
		for i, v := range values {
			nearest := nearestCenter(centers, v)
			if nearest != labels[i] {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i, v := range values {
			sums[labels[i]] += v
			counts[labels[i]]++
		}
		for c := range centers {
			// An empty cluster keeps its previous center.
			if counts[c] > 0 {
				centers[c] = sums[c] / float64(counts[c])
			}
		}
	}

	return centers, labels
}

func nearestCenter(centers []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := math.Abs(v - center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
