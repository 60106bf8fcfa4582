package visualizer

import (
	"math"

	"github.com/olivier-w/pitchtrace/internal/pitch"
)

// OctaveGrid holds the frequencies of C1 through C8.
type OctaveGrid [8]float64

// Octaves is the fixed display range.
var Octaves = newOctaveGrid()

func newOctaveGrid() OctaveGrid {
	var g OctaveGrid
	for i := range g {
		g[i] = pitch.C0 * math.Pow(2, float64(i+1))
	}
	return g
}

// Low returns C1.
func (g OctaveGrid) Low() float64 { return g[0] }

// High returns C8.
func (g OctaveGrid) High() float64 { return g[len(g)-1] }

// Label returns the note name of gridline i, "C1" through "C8".
func (g OctaveGrid) Label(i int) string {
	return pitch.NoteName(g[i])
}

// Viewport describes the vertical drawing area in pixels, with y growing
// downwards. It is rebuilt from the current size on every redraw.
type Viewport struct {
	Height       float64
	MarginTop    float64
	MarginBottom float64
}

// MapToPixelY maps freq onto the viewport, linear in log-frequency. C1 lands
// on Height-MarginBottom and C8 on MarginTop. Anything below C1, including
// zero, negative and NaN input, is drawn at C1. Frequencies above C8 map above
// MarginTop and are left for the caller to clip.
func (v Viewport) MapToPixelY(freq float64) float64 {
	lo, hi := Octaves.Low(), Octaves.High()
	if !(freq >= lo) {
		freq = lo
	}
	bottom := v.Height - v.MarginBottom
	t := math.Log(freq/lo) / math.Log(hi/lo)
	return bottom + (v.MarginTop-bottom)*t
}
