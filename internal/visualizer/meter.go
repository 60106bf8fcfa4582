package visualizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/muesli/termenv"
)

// Meter scale in dB.
const (
	meterFloorDB = -80.0
	meterCeilDB  = 0.0
)

// LoudnessMeter renders the current level as a horizontal bar with a marker
// at the loudness gate. The bar eases toward each new reading; the readings
// themselves are shown unsmoothed.
type LoudnessMeter struct {
	gateDB  float64
	level   springValue
	profile termenv.Profile
	output  string
}

// NewLoudnessMeter creates a meter for a redraw rate of fps.
func NewLoudnessMeter(gateDB float64, color bool, fps int) *LoudnessMeter {
	if fps < 1 {
		fps = 30
	}
	return &LoudnessMeter{
		gateDB:  gateDB,
		level:   newSpringValue(fps, 8.0, 1.0),
		profile: resolveProfile(color),
	}
}

func (m *LoudnessMeter) Name() string { return "loudness" }

func (m *LoudnessMeter) Update(in Input, width, height int) {
	level := clamp01(m.level.step(dbToLevel(in.Decibel)))

	barWidth := width - 15 // " dB  " prefix and " -123.4 dB" suffix
	if barWidth < 10 {
		barWidth = 10
	}
	bar := renderMeterBar(level, dbToLevel(m.gateDB), barWidth, m.profile)
	m.output = fmt.Sprintf(" dB  %s %s", bar, formatDB(in.Decibel))
}

func (m *LoudnessMeter) View() string {
	return m.output
}

// dbToLevel maps a reading onto the meter's 0..1 scale.
func dbToLevel(db float64) float64 {
	if math.IsNaN(db) {
		return 0
	}
	return clamp01((db - meterFloorDB) / (meterCeilDB - meterFloorDB))
}

func formatDB(db float64) string {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return "  -inf dB"
	}
	return fmt.Sprintf("%6.1f dB", db)
}

func renderMeterBar(level, gate float64, width int, profile termenv.Profile) string {
	filled := int(level * float64(width))
	gatePos := int(gate * float64(width))
	if gatePos >= width {
		gatePos = width - 1
	}

	bar := make([]rune, width)
	for i := range width {
		switch {
		case i == gatePos:
			bar[i] = '│'
		case i < filled:
			bar[i] = '█'
		default:
			bar[i] = '─'
		}
	}
	if profile == termenv.Ascii {
		return string(bar)
	}

	var sb strings.Builder
	color := newANSIState(profile)
	for i, ch := range bar {
		switch {
		case i == gatePos:
			color.set(&sb, gateColor)
		case i < gatePos:
			color.set(&sb, quietColor)
		default:
			t := float64(i-gatePos) / float64(max(width-gatePos, 1))
			if t < 0.6 {
				color.set(&sb, lerpColor(meterLow, meterMid, t/0.6))
			} else {
				color.set(&sb, lerpColor(meterMid, meterHigh, (t-0.6)/0.4))
			}
		}
		sb.WriteRune(ch)
	}
	color.reset(&sb)
	return sb.String()
}
