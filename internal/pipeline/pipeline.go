package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"btracker/internal/calculator"
	"btracker/internal/config"
	"btracker/internal/model"
	"btracker/internal/runstate"
)

// Settings are the analytics parameters of one run.
type Settings struct {
	Window       int
	Lags         calculator.Lags
	Edges        []float64
	YearlyPolicy calculator.YearlyPolicy
}

// DefaultSettings returns the 1400-row window, 1/1400-row lags, the twelve
// default histogram bins and exact-date yearly open/close.
func DefaultSettings() Settings {
	return Settings{
		Window:       calculator.DefaultWindow,
		Lags:         calculator.DefaultLags(),
		Edges:        calculator.DefaultHistogramEdges,
		YearlyPolicy: calculator.PolicyExact,
	}
}

// SettingsFromConfig reads Settings from the analytics section.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Window:       cfg.Analytics.Window,
		Lags:         calculator.Lags{Short: cfg.Analytics.ShortLag, Long: cfg.Analytics.LongLag},
		Edges:        cfg.Analytics.HistogramEdges,
		YearlyPolicy: calculator.YearlyPolicy(cfg.Analytics.YearlyPolicy),
	}
}

// Digest identifies the settings; outputs built under a different digest
// are stale.
func (st Settings) Digest() (string, error) {
	return runstate.JSONDigest(st)
}

// Run computes every analytics output for series. The moving average, price
// change and histogram chain runs alongside the yearly rollup; both only read
// the series. Any stage error fails the whole run.
func Run(ctx context.Context, series model.Series, st Settings) (*model.Result, error) {
	if series.Len() == 0 {
		return nil, model.ErrEmptySeries
	}

	var (
		mas     []model.MovingAverageRow
		changes []model.PriceChangeRow
		hist    model.Histogram
		yearly  []model.YearlySummaryRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if mas, err = calculator.MovingAverages(series, st.Window); err != nil {
			return fmt.Errorf("moving averages: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if changes, err = calculator.PriceChanges(series, mas, st.Lags); err != nil {
			return fmt.Errorf("price changes: %w", err)
		}
		if hist, err = calculator.BuildHistogram(changes, st.Edges); err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if yearly, err = calculator.YearlySummary(series, st.YearlyPolicy); err != nil {
			return fmt.Errorf("yearly summary: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]model.AnalyticsRow, series.Len())
	for i := range rows {
		rows[i] = model.AnalyticsRow{Observation: series.At(i), MA: mas[i], Change: changes[i]}
	}

	return &model.Result{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Rows:        rows,
		Histogram:   hist,
		Yearly:      yearly,
		NonFinite:   calculator.CountNonFinite(changes),
	}, nil
}
