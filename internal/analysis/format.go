package analysis

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as m:ss, e.g. 180 -> "3:00". Used for
// interval notation and rest summaries.
func FormatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDistance renders meters in erg shorthand: whole kilometers as
// "2k", hundred-meter kilometers as "1.5k", everything else as "750m".
func FormatDistance(meters float64) string {
	m := int(math.Round(meters))
	if m >= 1000 && m%1000 == 0 {
		return fmt.Sprintf("%dk", m/1000)
	}
	if m >= 1000 && m%100 == 0 {
		return fmt.Sprintf("%.1fk", float64(m)/1000)
	}
	return fmt.Sprintf("%dm", m)
}

// FormatPace renders pace tenths as M:SS.d per 500 m, e.g. 1052 -> "1:45.2".
func FormatPace(paceTenths float64) string {
	secs := paceTenths / 10
	mins := int(secs) / 60
	rem := secs - float64(mins*60)
	return fmt.Sprintf("%d:%04.1f", mins, rem)
}
