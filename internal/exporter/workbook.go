package exporter

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"btracker/internal/calculator"
	"btracker/internal/model"
)

// ChartSink draws (x, y) series.
type ChartSink interface {
	LineChart(title string, logScale bool, series ...model.ChartSeries) error
	BarChart(title string, labels []string, values []float64) error
}

const (
	analyticsSheet = "Analytics"
	histogramSheet = "Histogram"
	yearlySheet    = "Yearly"
	chartsSheet    = "Charts"
)

// Workbook is an xlsx report: one sheet per analytics table plus native
// spreadsheet charts. It implements ChartSink.
type Workbook struct {
	f      *excelize.File
	width  uint
	height uint
	charts int
}

var _ ChartSink = (*Workbook)(nil)

// NewWorkbook creates an empty workbook whose charts are width x height pixels.
func NewWorkbook(width, height int) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", analyticsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{histogramSheet, yearlySheet, chartsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}
	return &Workbook{f: f, width: uint(width), height: uint(height)}, nil
}

// WriteTables fills the Analytics, Histogram and Yearly sheets.
func (w *Workbook) WriteTables(res *model.Result) error {
	analytics := make([][]interface{}, len(res.Rows))
	for i, r := range res.Rows {
		analytics[i] = []interface{}{
			r.Date.Format(DateFormat),
			cellNumber(r.Open), cellNumber(r.High), cellNumber(r.Low), cellNumber(r.Close), cellNumber(r.Volume),
			cellNumber(r.MA.Open), cellNumber(r.MA.High), cellNumber(r.MA.Low), cellNumber(r.MA.Close),
			cellNumber(r.Change.WMADollarChange1D), cellNumber(r.Change.WMAPercentChange1D),
			cellNumber(r.Change.DollarChange200W), cellNumber(r.Change.PercentChange200W),
			cellNumber(r.Change.DollarSwingSameDay), cellNumber(r.Change.PercentSwingSameDay),
			cellNumber(r.Change.DollarChange1D), cellNumber(r.Change.PercentChange1D),
		}
	}
	if err := w.writeTable(analyticsSheet, AnalyticsHeaders, analytics); err != nil {
		return err
	}

	hist := make([][]interface{}, 0, len(res.Histogram.Bins)+1)
	for _, b := range res.Histogram.Bins {
		hist = append(hist, []interface{}{b.Label, b.Count})
	}
	hist = append(hist, []interface{}{"Total", res.Histogram.Total})
	if err := w.writeTable(histogramSheet, HistogramHeaders, hist); err != nil {
		return err
	}

	yearly := make([][]interface{}, len(res.Yearly))
	for i, y := range res.Yearly {
		yearly[i] = []interface{}{
			y.Year, cellOptional(y.Open), cellOptional(y.High), cellOptional(y.Low), cellOptional(y.Close),
			cellNumber(y.Volume), y.TradingDays,
		}
	}
	return w.writeTable(yearlySheet, YearlyHeaders, yearly)
}

// LineChart writes the series to a data sheet and plots them on the Charts
// sheet. All series must share the x values of the first one.
func (w *Workbook) LineChart(title string, logScale bool, series ...model.ChartSeries) error {
	if len(series) == 0 || len(series[0].Points) == 0 {
		return fmt.Errorf("line chart %q: no data", title)
	}
	n := len(series[0].Points)
	headers := []string{"Date"}
	for _, s := range series {
		if len(s.Points) != n {
			return fmt.Errorf("line chart %q: series %q has %d points, want %d", title, s.Name, len(s.Points), n)
		}
		headers = append(headers, s.Name)
	}

	rows := make([][]interface{}, n)
	for i := range rows {
		row := []interface{}{series[0].Points[i].X.Format(DateFormat)}
		for _, s := range series {
			row = append(row, cellNumber(s.Points[i].Y))
		}
		rows[i] = row
	}

	sheet, err := w.dataSheet(headers, rows)
	if err != nil {
		return err
	}
	chartSeries := make([]excelize.ChartSeries, len(series))
	for i := range series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		chartSeries[i] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheet, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, n+1),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, col, col, n+1),
			Marker:     excelize.ChartMarker{Symbol: "none"},
		}
	}
	chart := &excelize.Chart{
		Type:      excelize.Line,
		Series:    chartSeries,
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: w.width, Height: w.height},
	}
	if logScale {
		chart.YAxis.LogBase = 10
	}
	return w.addChart(chart)
}

// BarChart writes labels and values to a data sheet and plots them as columns.
func (w *Workbook) BarChart(title string, labels []string, values []float64) error {
	if len(labels) == 0 || len(labels) != len(values) {
		return fmt.Errorf("bar chart %q: %d labels for %d values", title, len(labels), len(values))
	}
	rows := make([][]interface{}, len(labels))
	for i := range labels {
		rows[i] = []interface{}{labels[i], cellNumber(values[i])}
	}
	sheet, err := w.dataSheet([]string{"Label", title}, rows)
	if err != nil {
		return err
	}
	n := len(labels)
	return w.addChart(&excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", sheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, n+1),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheet, n+1),
		}},
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: w.width, Height: w.height},
	})
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	log.Printf("[INFO] wrote %s (%d charts)", path, w.charts)
	return nil
}

func (w *Workbook) Close() error { return w.f.Close() }

func (w *Workbook) writeTable(sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return w.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (w *Workbook) dataSheet(headers []string, rows [][]interface{}) (string, error) {
	name := fmt.Sprintf("ChartData%d", w.charts+1)
	if _, err := w.f.NewSheet(name); err != nil {
		return "", fmt.Errorf("new sheet %s: %w", name, err)
	}
	if err := w.writeTable(name, headers, rows); err != nil {
		return "", err
	}
	return name, nil
}

func (w *Workbook) addChart(chart *excelize.Chart) error {
	// Stack charts vertically; a default row is 20 pixels tall.
	row := 1 + w.charts*(int(w.height)/20+2)
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.AddChart(chartsSheet, cell, chart); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	w.charts++
	return nil
}

// cellNumber keeps finite values numeric (rounded to cents) and writes
// non-finite ones as text, which xlsx cannot store as numbers.
func cellNumber(v float64) interface{} {
	if !model.IsFinite(v) {
		return FormatDecimal(v)
	}
	return calculator.Round2(v)
}

func cellOptional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return cellNumber(*v)
}
