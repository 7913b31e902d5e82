package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"btracker/internal/model"
)

// DefaultWindow is the moving-average window in rows, roughly 200 weeks of
// daily observations.
const DefaultWindow = 1400

var ErrWindow = errors.New("window must be positive")

// MovingAverages computes one row per observation. For index i the window is
// [i, i+min(window, n-i)): the day itself and up to window-1 older days. The
// window is truncated near the oldest end, never padded. Each field is the
// arithmetic mean of the raw values, rounded to cents.
//
// Sums are kept as exact decimals and updated incrementally, walking from the
// oldest row to the newest: row i enters the window and row i+window leaves it.
func MovingAverages(series model.Series, window int) ([]model.MovingAverageRow, error) {
	if window <= 0 {
		return nil, ErrWindow
	}
	n := series.Len()
	rows := make([]model.MovingAverageRow, n)

	var sums fieldSums
	for i := n - 1; i >= 0; i-- {
		sums.add(series.At(i))
		if out := i + window; out < n {
			sums.sub(series.At(out))
		}
		rows[i] = sums.mean(WindowSize(n, i, window))
	}
	return rows, nil
}

// WindowSize returns the number of observations averaged at index i.
func WindowSize(n, i, window int) int {
	if n-i < window {
		return n - i
	}
	return window
}

type fieldSums struct {
	open, high, low, close decimal.Decimal
}

func (f *fieldSums) add(o model.Observation) {
	f.open = f.open.Add(decimal.NewFromFloat(o.Open))
	f.high = f.high.Add(decimal.NewFromFloat(o.High))
	f.low = f.low.Add(decimal.NewFromFloat(o.Low))
	f.close = f.close.Add(decimal.NewFromFloat(o.Close))
}

func (f *fieldSums) sub(o model.Observation) {
	f.open = f.open.Sub(decimal.NewFromFloat(o.Open))
	f.high = f.high.Sub(decimal.NewFromFloat(o.High))
	f.low = f.low.Sub(decimal.NewFromFloat(o.Low))
	f.close = f.close.Sub(decimal.NewFromFloat(o.Close))
}

func (f *fieldSums) mean(size int) model.MovingAverageRow {
	d := decimal.NewFromInt(int64(size))
	avg := func(sum decimal.Decimal) float64 {
		return sum.Div(d).Round(2).InexactFloat64()
	}
	return model.MovingAverageRow{
		Open:  avg(f.open),
		High:  avg(f.high),
		Low:   avg(f.low),
		Close: avg(f.close),
	}
}

func extractCloses(series model.Series) []float64 {
	closes := make([]float64, series.Len())
	for i := range closes {
		closes[i] = series.At(i).Close
	}
	return closes
}
