package calculator

import (
	"errors"
	"fmt"
	"time"

	"btracker/internal/model"
)

var ErrUnsorted = errors.New("observations are not in descending year order")

// YearlyPolicy selects which day supplies a year's open and close.
type YearlyPolicy string

const (
	// PolicyExact takes the close of the literal Jan 1 and Dec 31 rows and
	// leaves open/close empty when either day is missing.
	PolicyExact YearlyPolicy = "exact"
	// PolicyFirstLast takes the close of the first and last trading day
	// present in the year.
	PolicyFirstLast YearlyPolicy = "first_last"
)

// Valid reports whether p is a known policy.
func (p YearlyPolicy) Valid() bool {
	return p == PolicyExact || p == PolicyFirstLast
}

// YearlySummary produces one row per calendar year between the oldest and the
// newest observation, newest year first. Years without observations get a row
// with no open, high, low or close and zero volume.
func YearlySummary(series model.Series, policy YearlyPolicy) ([]model.YearlySummaryRow, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("unknown yearly policy %q", policy)
	}
	if series.Len() == 0 {
		return nil, model.ErrEmptySeries
	}
	obs := series.Observations()
	if err := checkYearsDescending(obs); err != nil {
		return nil, err
	}

	newest := obs[0].Date.Year()
	oldest := obs[len(obs)-1].Date.Year()
	rows := make([]model.YearlySummaryRow, newest-oldest+1)
	for i := range rows {
		rows[i].Year = newest - i
	}

	for _, o := range obs {
		row := &rows[newest-o.Date.Year()]
		if row.High == nil || o.High > *row.High {
			row.High = float64Ptr(o.High)
		}
		if row.Low == nil || o.Low < *row.Low {
			row.Low = float64Ptr(o.Low)
		}
		row.Volume += o.Volume
		row.TradingDays++

		switch policy {
		case PolicyExact:
			if isMonthDay(o.Date, time.January, 1) {
				row.Open = float64Ptr(o.Close)
			}
			if isMonthDay(o.Date, time.December, 31) {
				row.Close = float64Ptr(o.Close)
			}
		case PolicyFirstLast:
			// Newest first: the first row seen is the year's last day and
			// the last row seen is its first day.
			if row.Close == nil {
				row.Close = float64Ptr(o.Close)
			}
			row.Open = float64Ptr(o.Close)
		}
	}
	return rows, nil
}

func checkYearsDescending(obs []model.Observation) error {
	for i := 1; i < len(obs); i++ {
		if obs[i].Date.Year() > obs[i-1].Date.Year() {
			return fmt.Errorf("%w: %d follows %d at row %d", ErrUnsorted, obs[i].Date.Year(), obs[i-1].Date.Year(), i)
		}
	}
	return nil
}

func isMonthDay(t time.Time, m time.Month, d int) bool {
	return t.Month() == m && t.Day() == d
}

func float64Ptr(v float64) *float64 { return &v }
