package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 for CSV output with four decimal places, so
// rates like 0.4 round-trip as 0.4000 rather than scientific notation.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatRate formats an optional numeric value; absent values export as an
// empty cell.
func formatRate(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatInt formats an int64 value for CSV output.
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatBool formats a boolean value for CSV output.
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
