package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"btracker/internal/model"
)

var (
	ErrBinCount = errors.New("histogram counts do not sum to total")
	ErrEdges    = errors.New("histogram edges must be non-empty and strictly increasing")
)

// DefaultHistogramEdges splits one-day percent changes into 12 bins.
var DefaultHistogramEdges = []float64{-15, -12, -9, -6, -3, 0, 3, 6, 9, 12, 15}

// NewBins builds empty bins from edges: (-Inf, e0), [e0, e1), ..., [eN, +Inf).
func NewBins(edges []float64) ([]model.HistogramBin, error) {
	if err := ValidateEdges(edges); err != nil {
		return nil, err
	}
	bins := make([]model.HistogramBin, len(edges)+1)
	for i := range bins {
		lower, upper := math.Inf(-1), math.Inf(1)
		if i > 0 {
			lower = edges[i-1]
		}
		if i < len(edges) {
			upper = edges[i]
		}
		bins[i] = model.HistogramBin{Label: binLabel(lower, upper), Lower: lower, Upper: upper}
	}
	return bins, nil
}

// ValidateEdges checks that edges are usable as bin boundaries.
func ValidateEdges(edges []float64) error {
	if len(edges) == 0 {
		return ErrEdges
	}
	for i, e := range edges {
		if !model.IsFinite(e) || (i > 0 && e <= edges[i-1]) {
			return fmt.Errorf("%w: %v", ErrEdges, edges)
		}
	}
	return nil
}

// BuildHistogram counts each row's one-day percent change into its bin.
// Bins are lower-inclusive and upper-exclusive. -Inf lands in the first bin;
// +Inf and NaN compare false against every edge and land in the last bin.
func BuildHistogram(changes []model.PriceChangeRow, edges []float64) (model.Histogram, error) {
	bins, err := NewBins(edges)
	if err != nil {
		return model.Histogram{}, err
	}
	h := model.Histogram{Bins: bins, Total: len(changes)}
	for _, c := range changes {
		v := c.PercentChange1D
		bins[binIndex(edges, v)].Count++
		if !model.IsFinite(v) {
			h.NonFinite++
		}
	}

	sum := 0
	for _, b := range bins {
		sum += b.Count
	}
	if sum != h.Total {
		return model.Histogram{}, fmt.Errorf("%w: %d != %d", ErrBinCount, sum, h.Total)
	}
	return h, nil
}

func binIndex(edges []float64, v float64) int {
	return sort.Search(len(edges), func(i int) bool { return v < edges[i] })
}

func binLabel(lower, upper float64) string {
	switch {
	case math.IsInf(lower, -1):
		return "< " + formatEdge(upper) + "%"
	case math.IsInf(upper, 1):
		return ">= " + formatEdge(lower) + "%"
	default:
		return formatEdge(lower) + "% to " + formatEdge(upper) + "%"
	}
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
