package exporter

import (
	"fmt"
	"path/filepath"

	"btracker/internal/config"
	"btracker/internal/model"
)

// Artifacts lists the files one export produced.
type Artifacts struct {
	AnalyticsCSV string
	HistogramCSV string
	YearlyCSV    string
	Workbook     string
}

// Export writes the three CSV tables and the chart workbook for res into
// dir, normally a Staging directory.
func Export(res *model.Result, cfg *config.Config, dir string) (Artifacts, error) {
	var (
		a   Artifacts
		err error
	)
	w := NewCSVWriter(dir)
	w.BOM = cfg.Output.CSVBOM
	if a.AnalyticsCSV, err = w.WriteAnalytics(cfg.Output.AnalyticsCSV, res.Rows); err != nil {
		return a, fmt.Errorf("analytics csv: %w", err)
	}
	if a.HistogramCSV, err = w.WriteHistogram(cfg.Output.HistogramCSV, res.Histogram); err != nil {
		return a, fmt.Errorf("histogram csv: %w", err)
	}
	if a.YearlyCSV, err = w.WriteYearly(cfg.Output.YearlyCSV, res.Yearly); err != nil {
		return a, fmt.Errorf("yearly csv: %w", err)
	}

	wb, err := NewWorkbook(cfg.Output.ChartWidth, cfg.Output.ChartHeight)
	if err != nil {
		return a, err
	}
	defer wb.Close()

	if err := wb.WriteTables(res); err != nil {
		return a, fmt.Errorf("workbook tables: %w", err)
	}
	if err := DrawCharts(wb, res, cfg.Output.Title); err != nil {
		return a, err
	}
	a.Workbook = filepath.Join(dir, cfg.Output.Workbook)
	if err := wb.SaveAs(a.Workbook); err != nil {
		return a, err
	}
	return a, nil
}

// DrawCharts sends the linear and logarithmic price charts and the
// histogram to sink.
func DrawCharts(sink ChartSink, res *model.Result, title string) error {
	closes, mas := res.CloseSeries(), res.MovingAverageSeries()
	if err := sink.LineChart(title, false, closes, mas); err != nil {
		return fmt.Errorf("linear chart: %w", err)
	}
	if err := sink.LineChart(title+" (log scale)", true, closes, mas); err != nil {
		return fmt.Errorf("log chart: %w", err)
	}
	if err := sink.BarChart("1-Day % Change", res.Histogram.Labels(), res.Histogram.Counts()); err != nil {
		return fmt.Errorf("histogram chart: %w", err)
	}
	return nil
}
