package calculator

import (
	"errors"
	"fmt"

	"btracker/internal/model"
)

// DefaultLongLag is the row distance of the 200-week comparison.
const DefaultLongLag = 1400

var ErrLengthMismatch = errors.New("moving averages not aligned with series")

// Lags sets how many rows back the short (1-day) and long (200-week)
// comparisons look.
type Lags struct {
	Short int
	Long  int
}

// DefaultLags returns the 1-row and 1400-row lags.
func DefaultLags() Lags {
	return Lags{Short: 1, Long: DefaultLongLag}
}

// PriceChanges derives the per-day deltas. Comparison indexes are clamped to
// the oldest row, so the oldest day compares with itself and gets zero
// deltas. A zero denominator yields ±Inf or NaN percentages, which are left
// as they are.
func PriceChanges(series model.Series, mas []model.MovingAverageRow, lags Lags) ([]model.PriceChangeRow, error) {
	n := series.Len()
	if len(mas) != n {
		return nil, fmt.Errorf("%w: %d rows for %d observations", ErrLengthMismatch, len(mas), n)
	}
	if lags.Short <= 0 || lags.Long <= 0 {
		return nil, fmt.Errorf("%w: lags %d/%d", ErrWindow, lags.Short, lags.Long)
	}

	closes := extractCloses(series)
	rows := make([]model.PriceChangeRow, n)
	for i := 0; i < n; i++ {
		o := series.At(i)
		j1 := clamp(i+lags.Short, n-1)
		jl := clamp(i+lags.Long, n-1)

		swing := o.High - o.Low
		rows[i] = model.PriceChangeRow{
			DollarChange1D:      closes[i] - closes[j1],
			PercentChange1D:     percentChange(closes[i], closes[j1]),
			DollarChange200W:    closes[i] - closes[jl],
			PercentChange200W:   percentChange(closes[i], closes[jl]),
			DollarSwingSameDay:  swing,
			PercentSwingSameDay: 100 * swing / o.Close,
			WMADollarChange1D:   mas[i].Close - mas[j1].Close,
			WMAPercentChange1D:  percentChange(mas[i].Close, mas[j1].Close),
		}
	}
	return rows, nil
}

// CountNonFinite returns how many percent values in rows are NaN or infinite.
func CountNonFinite(rows []model.PriceChangeRow) int {
	count := 0
	for _, r := range rows {
		for _, v := range []float64{r.PercentChange1D, r.PercentChange200W, r.PercentSwingSameDay, r.WMAPercentChange1D} {
			if !model.IsFinite(v) {
				count++
			}
		}
	}
	return count
}

func percentChange(current, previous float64) float64 {
	return 100 * (current/previous - 1)
}

func clamp(i, limit int) int {
	if i > limit {
		return limit
	}
	return i
}
