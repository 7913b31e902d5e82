package exporter

import (
	"math"

	"github.com/shopspring/decimal"

	"btracker/internal/model"
)

// DateFormat is used for every date column.
const DateFormat = "2006-01-02"

// FormatDecimal renders v with two decimal places. Non-finite values are
// written as NaN, +Inf or -Inf.
func FormatDecimal(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatOptional renders a possibly missing value; nil becomes an empty string.
func FormatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatDecimal(*v)
}

// FormatVolume renders volume without a fractional part.
func FormatVolume(v float64) string {
	if !model.IsFinite(v) {
		return FormatDecimal(v)
	}
	return decimal.NewFromFloat(v).Round(0).String()
}
