package exporter

import (
	"strconv"

	"btracker/internal/model"
)

// AnalyticsHeaders names the columns of the per-day analytics table.
var AnalyticsHeaders = []string{
	"Date", "Open", "High", "Low", "Close", "Volume",
	"WMA Open", "WMA High", "WMA Low", "WMA Close",
	"WMA $ Change 1D", "WMA % Change 1D",
	"$ Change 200W", "% Change 200W",
	"$ Swing Same Day", "% Swing Same Day",
	"$ Change 1D", "% Change 1D",
}

// AnalyticsRecords renders one record per row, newest first.
func AnalyticsRecords(rows []model.AnalyticsRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Date.Format(DateFormat),
			FormatDecimal(r.Open),
			FormatDecimal(r.High),
			FormatDecimal(r.Low),
			FormatDecimal(r.Close),
			FormatVolume(r.Volume),
			FormatDecimal(r.MA.Open),
			FormatDecimal(r.MA.High),
			FormatDecimal(r.MA.Low),
			FormatDecimal(r.MA.Close),
			FormatDecimal(r.Change.WMADollarChange1D),
			FormatDecimal(r.Change.WMAPercentChange1D),
			FormatDecimal(r.Change.DollarChange200W),
			FormatDecimal(r.Change.PercentChange200W),
			FormatDecimal(r.Change.DollarSwingSameDay),
			FormatDecimal(r.Change.PercentSwingSameDay),
			FormatDecimal(r.Change.DollarChange1D),
			FormatDecimal(r.Change.PercentChange1D),
		}
	}
	return records
}

var HistogramHeaders = []string{"1-Day % Change", "Days"}

// HistogramRecords renders one record per bin followed by a Total record.
func HistogramRecords(h model.Histogram) [][]string {
	records := make([][]string, 0, len(h.Bins)+1)
	for _, b := range h.Bins {
		records = append(records, []string{b.Label, strconv.Itoa(b.Count)})
	}
	return append(records, []string{"Total", strconv.Itoa(h.Total)})
}

var YearlyHeaders = []string{"Year", "Open", "High", "Low", "Close", "Volume", "Trading Days"}

// YearlyRecords renders one record per year, newest first. Missing values
// are left empty.
func YearlyRecords(rows []model.YearlySummaryRow) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			strconv.Itoa(r.Year),
			FormatOptional(r.Open),
			FormatOptional(r.High),
			FormatOptional(r.Low),
			FormatOptional(r.Close),
			FormatVolume(r.Volume),
			strconv.Itoa(r.TradingDays),
		}
	}
	return records
}
