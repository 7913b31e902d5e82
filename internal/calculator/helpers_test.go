package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"btracker/internal/model"
)

// dailySeries builds a series of consecutive days ending at newest, where
// closes[0] is the newest close. High/low bracket the close by 1.
func dailySeries(t *testing.T, newest time.Time, closes ...float64) model.Series {
	t.Helper()
	obs := make([]model.Observation, len(closes))
	for i, c := range closes {
		obs[i] = model.Observation{
			Date:   newest.AddDate(0, 0, -i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 10,
		}
	}
	s, err := model.NewSeries(obs)
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
