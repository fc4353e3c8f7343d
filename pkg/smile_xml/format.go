package smile_xml

import (
	"math"
	"strconv"
	"strings"
)

// formatMeasure normalizes a raw measurement to its published precision.
// Small values keep two decimals, mid-range one, large values none. Energy
// totals reported in Wh are converted to kWh, and unitless ratios in (0, 1]
// are scaled to percent.
func formatMeasure(value float64, unit string) (float64, string) {
	switch unit {
	case unitWh:
		return round(value/1000, 3), unitKWh
	case unitNone, unitPercent:
		// Ratios in (0, 1] come in unscaled.
		if value > 0 && value <= 1 {
			return round(value*100, 1), unitPercent
		}
	}
	abs := math.Abs(value)
	switch {
	case abs < 10:
		return round(value, 2), unit
	case abs < 100:
		return round(value, 1), unit
	default:
		return math.Round(value), unit
	}
}

func parseSetpoint(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
