package model

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptySeries   = errors.New("series has no observations")
	ErrDuplicateDate = errors.New("duplicate observation date")
	ErrNonFinite     = errors.New("observation has a non-finite value")
)

// Observation is one trading day of OHLC data plus volume.
type Observation struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds observations ordered newest first: index 0 is the most recent
// day and the last index is the oldest. It can only be built through
// NewSeries, so every holder can rely on the ordering and on unique dates.
type Series struct {
	obs []Observation
}

// NewSeries validates obs and returns it as a newest-first Series. The input
// may be in either chronological or reverse-chronological order.
func NewSeries(obs []Observation) (Series, error) {
	if len(obs) == 0 {
		return Series{}, ErrEmptySeries
	}
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	for _, o := range sorted {
		if !IsFinite(o.Open) || !IsFinite(o.High) || !IsFinite(o.Low) || !IsFinite(o.Close) || !IsFinite(o.Volume) {
			return Series{}, fmt.Errorf("%w: %s", ErrNonFinite, o.Date.Format("2006-01-02"))
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	for i := 1; i < len(sorted); i++ {
		if sameDay(sorted[i-1].Date, sorted[i].Date) {
			return Series{}, fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date.Format("2006-01-02"))
		}
	}
	return Series{obs: sorted}, nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.obs) }

// At returns the observation at index i (0 = newest).
func (s Series) At(i int) Observation { return s.obs[i] }

// Newest returns the most recent observation.
func (s Series) Newest() Observation { return s.obs[0] }

// Oldest returns the earliest observation.
func (s Series) Oldest() Observation { return s.obs[len(s.obs)-1] }

// Observations returns a copy of the underlying newest-first slice.
func (s Series) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
