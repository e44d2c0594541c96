package analysis

import (
	"math"
	"testing"

	"github.com/aluiziolira/books-rpa/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func records(prices ...float64) []models.BookRecord {
	out := make([]models.BookRecord, len(prices))
	for i, p := range prices {
		out[i] = models.BookRecord{Title: "Book", Price: p, InStock: true, Rating: 3}
	}
	return out
}

func TestAnalyzeEmptyCatalog(t *testing.T) {
	_, err := Analyze(nil)
	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "single", values: []float64{7}, want: 7},
		{name: "odd", values: []float64{3, 1, 2}, want: 2},
		{name: "even averages middle pair", values: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "duplicates", values: []float64{5, 5, 5, 5}, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Median(tt.values), 1e-12)
		})
	}
	require.True(t, math.IsNaN(Median(nil)))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	require.Equal(t, []float64{3, 1, 2}, values)
}

func TestClassify(t *testing.T) {
	require.Equal(t, HighValue, Classify(10.01, 10))
	require.Equal(t, LowValue, Classify(10, 10))
	require.Equal(t, LowValue, Classify(9.99, 10))
}

func TestAnalyzeSmallCatalogSkipsClustering(t *testing.T) {
	result, err := Analyze(records(10, 20, 30, 40))
	require.NoError(t, err)

	want := Summary{
		TotalBooks:   4,
		PriceMean:    25,
		PriceMedian:  25,
		PriceMin:     10,
		PriceMax:     40,
		ValueClasses: map[ValueClass]int{HighValue: 2, LowValue: 2},
	}
	if diff := cmp.Diff(want, result.Summary, cmpopts.EquateApprox(0, 1e-9), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	for _, row := range result.Rows {
		require.Equal(t, -1, row.Cluster)
	}
	require.Equal(t, []float64{10, 20, 30, 40}, result.Prices())
}

func TestAnalyzeClustersSeparatedPrices(t *testing.T) {
	prices := []float64{10, 11, 12, 10.5, 11.5, 50, 51, 52, 50.5, 51.5}
	result, err := Analyze(records(prices...))
	require.NoError(t, err)

	centers := result.Summary.ClusterCenters
	require.Len(t, centers, 2)
	require.InDelta(t, 11, centers[0], 1e-9)
	require.InDelta(t, 51, centers[1], 1e-9)

	for i, row := range result.Rows {
		want := 0
		if prices[i] > 30 {
			want = 1
		}
		require.Equalf(t, want, row.Cluster, "price %.2f", prices[i])
	}
	require.Equal(t, 5, result.Summary.ValueClasses[HighValue])
	require.Equal(t, 5, result.Summary.ValueClasses[LowValue])
}

func TestKMeans1DIsDeterministic(t *testing.T) {
	values := []float64{13.99, 51.77, 22.65, 17.93, 57.25, 45.17, 20.66, 54.23, 33.34, 37.59, 47.82}
	firstCenters, firstLabels := KMeans1D(values, 2)
	secondCenters, secondLabels := KMeans1D(values, 2)
	require.Equal(t, firstCenters, secondCenters)
	require.Equal(t, firstLabels, secondLabels)
	require.Less(t, firstCenters[0], firstCenters[1])
}

func TestKMeans1DIdenticalValues(t *testing.T) {
	values := []float64{20, 20, 20, 20, 20, 20, 20, 20, 20, 20}
	centers, labels := KMeans1D(values, 2)
	require.Len(t, centers, 2)
	for _, label := range labels {
		require.Equal(t, 0, label)
	}
	require.InDelta(t, 20, centers[0], 1e-12)
}
