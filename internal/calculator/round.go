package calculator

import (
	"github.com/shopspring/decimal"

	"btracker/internal/model"
)

// Round2 rounds v half away from zero to two decimal places. Non-finite
// values are returned unchanged.
func Round2(v float64) float64 {
	if !model.IsFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
