package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btracker/internal/model"
)

func TestPriceChanges_TwoRows(t *testing.T) {
	obs := []model.Observation{
		{Date: date(2024, 5, 2), Open: 108, High: 115, Low: 105, Close: 110, Volume: 1},
		{Date: date(2024, 5, 1), Open: 99, High: 102, Low: 98, Close: 100, Volume: 1},
	}
	s, err := model.NewSeries(obs)
	require.NoError(t, err)
	mas, err := MovingAverages(s, DefaultWindow)
	require.NoError(t, err)

	rows, err := PriceChanges(s, mas, DefaultLags())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	newest := rows[0]
	assert.Equal(t, 10.0, newest.DollarSwingSameDay)
	assert.InDelta(t, 9.0909, newest.PercentSwingSameDay, 1e-4)
	assert.Equal(t, 9.09, Round2(newest.PercentSwingSameDay))
	assert.Equal(t, 10.0, newest.DollarChange1D)
	assert.InDelta(t, 10.0, newest.PercentChange1D, 1e-9)
	// The long lag clamps to the oldest row.
	assert.Equal(t, 10.0, newest.DollarChange200W)
	assert.InDelta(t, 10.0, newest.PercentChange200W, 1e-9)
	// mas: 105 for the newest (mean of 110, 100), 100 for the oldest.
	assert.Equal(t, 5.0, newest.WMADollarChange1D)
	assert.InDelta(t, 5.0, newest.WMAPercentChange1D, 1e-9)
}

func TestPriceChanges_OldestRowComparesWithItself(t *testing.T) {
	s := dailySeries(t, date(2024, 1, 10), 120, 90, 100, 80)
	mas, err := MovingAverages(s, 2)
	require.NoError(t, err)
	rows, err := PriceChanges(s, mas, Lags{Short: 1, Long: 2})
	require.NoError(t, err)

	oldest := rows[len(rows)-1]
	assert.Equal(t, 0.0, oldest.DollarChange1D)
	assert.Equal(t, 0.0, oldest.PercentChange1D)
	assert.Equal(t, 0.0, oldest.DollarChange200W)
	assert.Equal(t, 0.0, oldest.PercentChange200W)
	assert.Equal(t, 0.0, oldest.WMADollarChange1D)
	assert.Equal(t, 0.0, oldest.WMAPercentChange1D)

	// Index 1 with long lag 2 compares against index 3.
	assert.Equal(t, 10.0, rows[1].DollarChange200W)
	assert.InDelta(t, 12.5, rows[1].PercentChange200W, 1e-9)
	// Index 2 with long lag 2 clamps to index 3.
	assert.Equal(t, 20.0, rows[2].DollarChange200W)
}

func TestPriceChanges_ZeroCloseIsNotGuarded(t *testing.T) {
	obs := []model.Observation{
		{Date: date(2024, 1, 2), High: 1, Close: 5},
		{Date: date(2024, 1, 1), Close: 0},
	}
	s, err := model.NewSeries(obs)
	require.NoError(t, err)
	mas, err := MovingAverages(s, 10)
	require.NoError(t, err)
	rows, err := PriceChanges(s, mas, DefaultLags())
	require.NoError(t, err)

	assert.True(t, math.IsInf(rows[0].PercentChange1D, 1))
	assert.True(t, math.IsNaN(rows[1].PercentChange1D))
	// newest: +Inf for 1d, 200w and wma; oldest: NaN for all four (0/0).
	assert.Equal(t, 7, CountNonFinite(rows))
}

func TestPriceChanges_Validation(t *testing.T) {
	s := dailySeries(t, date(2024, 1, 10), 1, 2)
	_, err := PriceChanges(s, make([]model.MovingAverageRow, 1), DefaultLags())
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = PriceChanges(s, make([]model.MovingAverageRow, 2), Lags{Short: 0, Long: 1})
	assert.ErrorIs(t, err, ErrWindow)
}
