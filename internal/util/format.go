// Package util holds the number formatting shared by the terminal views.
package util

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats a duration as m:ss, or h:mm:ss from one hour up.
// Negative durations format as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatDecibel formats a loudness reading with two decimals. Silence
// (negative infinity) and NaN read "-inf dB".
func FormatDecibel(db float64) string {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return "-inf dB"
	}
	return fmt.Sprintf("%.2f dB", db)
}

// FormatPercent formats a 0..1 ratio as a percentage with two decimals.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}
