package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btracker/internal/model"
)

func yearlyFixture(t *testing.T) model.Series {
	t.Helper()
	obs := []model.Observation{
		{Date: date(2021, 12, 31), High: 60, Low: 50, Close: 55, Volume: 100},
		{Date: date(2021, 6, 1), High: 70, Low: 40, Close: 45, Volume: 200},
		{Date: date(2020, 12, 30), High: 30, Low: 25, Close: 28, Volume: 5},
		{Date: date(2020, 3, 3), High: 35, Low: 20, Close: 22, Volume: 7},
		{Date: date(2019, 1, 1), High: 12, Low: 8, Close: 10, Volume: 1},
	}
	s, err := model.NewSeries(obs)
	require.NoError(t, err)
	return s
}

func TestYearlySummary_Exact(t *testing.T) {
	rows, err := YearlySummary(yearlyFixture(t), PolicyExact)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []int{2021, 2020, 2019}, []int{rows[0].Year, rows[1].Year, rows[2].Year})

	y2021 := rows[0]
	assert.Nil(t, y2021.Open)
	require.NotNil(t, y2021.Close)
	assert.Equal(t, 55.0, *y2021.Close)
	assert.Equal(t, 70.0, *y2021.High)
	assert.Equal(t, 40.0, *y2021.Low)
	assert.Equal(t, 300.0, y2021.Volume)
	assert.Equal(t, 2, y2021.TradingDays)

	y2020 := rows[1]
	assert.Nil(t, y2020.Open)
	assert.Nil(t, y2020.Close, "Dec 30 is not Dec 31")
	assert.Equal(t, 12.0, y2020.Volume)

	y2019 := rows[2]
	require.NotNil(t, y2019.Open)
	assert.Equal(t, 10.0, *y2019.Open)
	assert.Equal(t, 1.0, y2019.Volume)
}

func TestYearlySummary_FirstLast(t *testing.T) {
	rows, err := YearlySummary(yearlyFixture(t), PolicyFirstLast)
	require.NoError(t, err)

	y2020 := rows[1]
	require.NotNil(t, y2020.Open)
	require.NotNil(t, y2020.Close)
	assert.Equal(t, 22.0, *y2020.Open)
	assert.Equal(t, 28.0, *y2020.Close)
}

func TestYearlySummary_EmptyYear(t *testing.T) {
	obs := []model.Observation{
		{Date: date(2022, 2, 1), High: 5, Low: 4, Close: 4.5, Volume: 3},
		{Date: date(2019, 2, 1), High: 2, Low: 1, Close: 1.5, Volume: 3},
	}
	s, err := model.NewSeries(obs)
	require.NoError(t, err)

	rows, err := YearlySummary(s, PolicyExact)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, r := range rows[1:3] {
		assert.Nil(t, r.High)
		assert.Nil(t, r.Low)
		assert.Zero(t, r.Volume)
		assert.Zero(t, r.TradingDays)
	}
}

func TestYearlySummary_Validation(t *testing.T) {
	_, err := YearlySummary(yearlyFixture(t), YearlyPolicy("nearest"))
	assert.Error(t, err)

	_, err = YearlySummary(model.Series{}, PolicyExact)
	assert.ErrorIs(t, err, model.ErrEmptySeries)
}

func TestCheckYearsDescending(t *testing.T) {
	obs := []model.Observation{
		{Date: date(2020, 1, 1)},
		{Date: date(2021, 1, 1)},
	}
	assert.ErrorIs(t, checkYearsDescending(obs), ErrUnsorted)
	assert.NoError(t, checkYearsDescending(obs[:1]))
}
