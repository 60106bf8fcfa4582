package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olivier-w/pitchtrace/internal/pipeline"
	"github.com/olivier-w/pitchtrace/internal/pitch"
	"github.com/olivier-w/pitchtrace/internal/util"
)

func renderProgressBar(elapsed, total float64, width int) string {
	if width < 10 {
		width = 10
	}
	barWidth := width - 2 // leave some margin

	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	ratio = math.Max(0, math.Min(ratio, 1))

	filled := int(ratio * float64(barWidth))
	return strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
}

func renderClipProgress(elapsed, total time.Duration, width int) string {
	e, t := util.FormatDuration(elapsed), util.FormatDuration(total)
	bar := renderProgressBar(elapsed.Seconds(), total.Seconds(), width-len(e)-len(t)-2)
	return fmt.Sprintf("%s %s %s", timeStyle.Render(e), bar, timeStyle.Render(t))
}

// formatPitch renders "220.00 Hz (A3 +2¢)", or a placeholder when the
// sample is absent.
func formatPitch(s pipeline.Snapshot) string {
	if !s.Present() {
		return "-- Hz (" + pitch.NoPitch + ")"
	}
	cents := int(math.Round(pitch.Cents(s.Pitch)))
	return fmt.Sprintf("%.2f Hz (%s %+d¢)", s.Pitch, pitch.NoteName(s.Pitch), cents)
}

func renderStats(s pipeline.Snapshot) string {
	return labelStyle.Render("Pitch: ") + pitchStyle.Render(formatPitch(s)) +
		"  " + labelStyle.Render("Clarity: ") + statusStyle.Render(util.FormatPercent(s.Clarity)) +
		"  " + labelStyle.Render("Decibel: ") + statusStyle.Render(util.FormatDecibel(s.Decibel))
}
