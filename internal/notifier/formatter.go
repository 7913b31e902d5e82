package notifier

import (
	"fmt"
	"html"
	"strings"

	"btracker/internal/exporter"
	"btracker/internal/model"
)

// FormatRunSummary formats the newest day's analytics as a Telegram message.
func FormatRunSummary(title string, res *model.Result) string {
	var b strings.Builder
	latest := res.Latest()

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(title), latest.Date.Format(exporter.DateFormat)))
	b.WriteString(fmt.Sprintf("Close: %s\n", exporter.FormatDecimal(latest.Close)))
	b.WriteString(fmt.Sprintf("1-day change: %s (%s%%)\n",
		exporter.FormatDecimal(latest.Change.DollarChange1D), exporter.FormatDecimal(latest.Change.PercentChange1D)))
	b.WriteString(fmt.Sprintf("Same-day swing: %s (%s%%)\n",
		exporter.FormatDecimal(latest.Change.DollarSwingSameDay), exporter.FormatDecimal(latest.Change.PercentSwingSameDay)))
	b.WriteString(fmt.Sprintf("200-week change: %s (%s%%)\n\n",
		exporter.FormatDecimal(latest.Change.DollarChange200W), exporter.FormatDecimal(latest.Change.PercentChange200W)))

	b.WriteString(fmt.Sprintf("200-week MA: %s\n", exporter.FormatDecimal(latest.MA.Close)))
	if latest.MA.Close != 0 {
		dev := (latest.Close - latest.MA.Close) / latest.MA.Close * 100
		b.WriteString(fmt.Sprintf("Distance from MA: %+.1f%%\n", dev))
	}
	b.WriteString(fmt.Sprintf("MA 1-day change: %s (%s%%)\n",
		exporter.FormatDecimal(latest.Change.WMADollarChange1D), exporter.FormatDecimal(latest.Change.WMAPercentChange1D)))

	if len(res.Yearly) > 0 {
		y := res.Yearly[0]
		b.WriteString(fmt.Sprintf("\n📅 <b>%d</b>: high %s | low %s | %d days\n",
			y.Year, orNA(y.High), orNA(y.Low), y.TradingDays))
	}
	if res.NonFinite > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d percent changes divided by a zero price\n", res.NonFinite))
	}
	return b.String()
}

func orNA(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return exporter.FormatDecimal(*v)
}
