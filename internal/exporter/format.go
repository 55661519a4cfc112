package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fraction digits to print any float64 exactly.
const exactDigits = 1074

// DurationMetric is displayed as minutes and seconds.
const DurationMetric = "Avg Session Duration"

// percentMetrics hold fractions that are displayed as percentages.
var percentMetrics = map[string]bool{
	"Engagement Rate":                         true,
	"% of users clicking on to further pages": true,
	"% of users clicking to partner pages":    true,
}

// IsPercentMetric reports whether metric values are fractions shown as %.
func IsPercentMetric(metric string) bool {
	return percentMetrics[metric]
}

// FormatValue formats a metric value for display.
func FormatValue(value float64, metric string) string {
	if value == 0 {
		return "0"
	}

	if IsPercentMetric(metric) {
		return ToFixed(value*100, 1) + "%"
	}

	if metric == DurationMetric {
		minutes := math.Floor(value / 60)
		seconds := math.Floor(math.Mod(value, 60))
		return fmt.Sprintf("%.0f:%02.0f", minutes, seconds)
	}

	switch {
	case value >= 1e9:
		return ToFixed(value/1e9, 1) + "B"
	case value >= 1e6:
		return ToFixed(value/1e6, 1) + "M"
	case value >= 1e3:
		return ToFixed(value/1e3, 1) + "K"
	}
	return ToFixed(value, 0)
}

// FormatChange formats a percentage change with an explicit sign, as the
// dashboard cards show it.
func FormatChange(percent float64) string {
	sign := ""
	if percent >= 0 {
		sign = "+"
	}
	return sign + ToFixed(percent, 1) + "%"
}

// formatFloat renders a raw value with the shortest exact representation.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToFixed formats x with places fraction digits as JavaScript's
// Number.prototype.toFixed does: the exact binary value is rounded and ties
// go away from zero, so 1.25 gives "1.3" while 1.005 gives "1.00".
func ToFixed(x float64, places int32) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}

	exact := decimal.RequireFromString(strconv.FormatFloat(x, 'f', exactDigits, 64))
	s := exact.StringFixed(places)
	if x < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}
