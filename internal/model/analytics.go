package model

import (
	"math"
	"time"
)

// MovingAverageRow is the windowed mean of each price field for one day,
// rounded to cents.
type MovingAverageRow struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// PriceChangeRow holds the derived deltas for one day.
type PriceChangeRow struct {
	DollarChange1D      float64
	PercentChange1D     float64
	DollarChange200W    float64
	PercentChange200W   float64
	DollarSwingSameDay  float64
	PercentSwingSameDay float64
	WMADollarChange1D   float64
	WMAPercentChange1D  float64
}

// HistogramBin counts one-day percent changes in [Lower, Upper).
// Lower is -Inf for the first bin and Upper is +Inf for the last.
type HistogramBin struct {
	Label string
	Lower float64
	Upper float64
	Count int
}

// Histogram is the ordered set of bins plus the number of values binned.
type Histogram struct {
	Bins      []HistogramBin
	Total     int
	NonFinite int // values that were +Inf, -Inf or NaN
}

// Labels returns bin labels in bin order.
func (h Histogram) Labels() []string {
	out := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = b.Label
	}
	return out
}

// Counts returns bin counts in bin order.
func (h Histogram) Counts() []float64 {
	out := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		out[i] = float64(b.Count)
	}
	return out
}

// YearlySummaryRow rolls one calendar year up. Nil fields mean the year has
// no data for them.
type YearlySummaryRow struct {
	Year        int
	Open        *float64
	High        *float64
	Low         *float64
	Close       *float64
	Volume      float64
	TradingDays int
}

// AnalyticsRow joins an observation with its derived values.
type AnalyticsRow struct {
	Observation
	MA     MovingAverageRow
	Change PriceChangeRow
}

// ChartPoint is one (x, y) pair of a plotted series.
type ChartPoint struct {
	X time.Time
	Y float64
}

// ChartSeries is a named line ordered oldest first for plotting.
type ChartSeries struct {
	Name   string
	Points []ChartPoint
}

// Result is everything one pipeline run produces.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Rows        []AnalyticsRow // newest first, aligned with the input series
	Histogram   Histogram
	Yearly      []YearlySummaryRow // newest year first
	NonFinite   int                // non-finite percent changes across all rows
}

// Latest returns the newest analytics row.
func (r *Result) Latest() AnalyticsRow { return r.Rows[0] }

// CloseSeries returns the raw close as a chronological chart series.
func (r *Result) CloseSeries() ChartSeries {
	return r.chartSeries("Close", func(row AnalyticsRow) float64 { return row.Close })
}

// MovingAverageSeries returns the moving-average close as a chronological chart series.
func (r *Result) MovingAverageSeries() ChartSeries {
	return r.chartSeries("200-Week Moving Average", func(row AnalyticsRow) float64 { return row.MA.Close })
}

func (r *Result) chartSeries(name string, value func(AnalyticsRow) float64) ChartSeries {
	points := make([]ChartPoint, len(r.Rows))
	for i := range r.Rows {
		row := r.Rows[len(r.Rows)-1-i]
		points[i] = ChartPoint{X: row.Date, Y: value(row)}
	}
	return ChartSeries{Name: name, Points: points}
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
