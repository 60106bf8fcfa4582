package visualizer

import (
	"math"
	"strings"

	"github.com/muesli/termenv"

	"github.com/olivier-w/pitchtrace/internal/pitch"
)

const labelGutter = 3 // "C4 "

// TraceOptions configures a Trace.
type TraceOptions struct {
	VisiblePoints  int     // samples spanning the area left of the cursor
	CursorFraction float64 // cursor position as a fraction of the plot width
	MarginTop      int     // dots
	MarginBottom   int     // dots
	Color          bool
}

// DefaultTraceOptions returns the standard layout.
func DefaultTraceOptions() TraceOptions {
	return TraceOptions{
		VisiblePoints:  100,
		CursorFraction: 1.0 / 3.0,
		MarginTop:      4,
		MarginBottom:   4,
		Color:          true,
	}
}

// Trace renders the recent pitch history as a braille line plot on a
// log-frequency axis with C1..C8 gridlines and a "now" cursor. The newest
// sample sits just left of the cursor and older samples scroll left.
type Trace struct {
	opts    TraceOptions
	profile termenv.Profile
	output  string
}

// NewTrace creates a trace renderer.
func NewTrace(opts TraceOptions) *Trace {
	if opts.VisiblePoints < 1 {
		opts.VisiblePoints = 100
	}
	if !(opts.CursorFraction > 0 && opts.CursorFraction <= 1) {
		opts.CursorFraction = 1.0 / 3.0
	}
	return &Trace{opts: opts, profile: resolveProfile(opts.Color)}
}

func (t *Trace) Name() string { return "pitch trace" }

func (t *Trace) Update(in Input, width, height int) {
	if height < 1 {
		t.output = ""
		return
	}
	canvas := newDotCanvas(width-labelGutter, height)
	vp := t.viewport(canvas)
	t.drawGrid(canvas, vp)
	t.drawCursor(canvas)
	t.drawSamples(canvas, vp, in.Samples)
	t.output = t.render(canvas, vp)
}

func (t *Trace) View() string {
	return t.output
}

func (t *Trace) viewport(c *dotCanvas) Viewport {
	return Viewport{
		Height:       float64(c.h - 1),
		MarginTop:    float64(t.opts.MarginTop),
		MarginBottom: float64(t.opts.MarginBottom),
	}
}

// band returns the drawable dot rows.
func (t *Trace) band(c *dotCanvas) (top, bottom int) {
	return t.opts.MarginTop, c.h - 1 - t.opts.MarginBottom
}

func (t *Trace) cursorX(c *dotCanvas) int {
	return int(float64(c.w) * t.opts.CursorFraction)
}

func (t *Trace) drawGrid(c *dotCanvas, vp Viewport) {
	for _, freq := range Octaves {
		y := int(math.Round(vp.MapToPixelY(freq)))
		for x := 0; x < c.w; x += 2 {
			c.set(x, y, layerGrid)
		}
	}
}

func (t *Trace) drawCursor(c *dotCanvas) {
	x := t.cursorX(c)
	for y := range c.h {
		c.set(x, y, layerCursor)
	}
}

// drawSamples connects consecutive present samples. An absent sample breaks
// the line, and a present sample with no present neighbour draws nothing.
func (t *Trace) drawSamples(c *dotCanvas, vp Viewport, samples []pitch.Sample) {
	cursor := float64(t.cursorX(c))
	step := cursor / float64(t.opts.VisiblePoints)
	top, bottom := t.band(c)
	if top > bottom {
		return
	}

	n := len(samples)
	first := max(n-t.opts.VisiblePoints-1, 1)
	for i := first; i < n; i++ {
		a, b := samples[i-1], samples[i]
		if !a.Present || !b.Present {
			continue
		}
		x0 := cursor - float64(n-i+1)*step
		x1 := cursor - float64(n-i)*step
		y0 := vp.MapToPixelY(a.Pitch)
		y1 := vp.MapToPixelY(b.Pitch)
		x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1, float64(top), float64(bottom))
		if !ok {
			continue
		}
		c.line(
			int(math.Round(x0)), int(math.Round(y0)),
			int(math.Round(x1)), int(math.Round(y1)),
			top, bottom, layerTrace,
		)
	}
}

// clipSegment trims a segment to the rows [top, bottom].
func clipSegment(x0, y0, x1, y1, top, bottom float64) (float64, float64, float64, float64, bool) {
	if math.IsNaN(y0) || math.IsNaN(y1) || math.IsInf(y0, 0) || math.IsInf(y1, 0) {
		return 0, 0, 0, 0, false
	}
	if (y0 < top && y1 < top) || (y0 > bottom && y1 > bottom) {
		return 0, 0, 0, 0, false
	}
	if y0 == y1 {
		return x0, y0, x1, y1, true
	}
	ta := (top - y0) / (y1 - y0)
	tb := (bottom - y0) / (y1 - y0)
	lo := math.Max(0, math.Min(ta, tb))
	hi := math.Min(1, math.Max(ta, tb))
	if lo > hi {
		return 0, 0, 0, 0, false
	}
	dx, dy := x1-x0, y1-y0
	return x0 + lo*dx, y0 + lo*dy, x0 + hi*dx, y0 + hi*dy, true
}

func (t *Trace) render(c *dotCanvas, vp Viewport) string {
	labels := make([]string, c.rows)
	for i, freq := range Octaves {
		y := int(math.Round(vp.MapToPixelY(freq)))
		if y < 0 || y >= c.h {
			continue
		}
		labels[y/4] = Octaves.Label(i)
	}

	var sb strings.Builder
	color := newANSIState(t.profile)
	for row := range c.rows {
		if row > 0 {
			sb.WriteByte('\n')
		}
		label := labels[row]
		if label == "" {
			sb.WriteString(strings.Repeat(" ", labelGutter))
		} else {
			color.set(&sb, gridColor)
			sb.WriteString(label)
			sb.WriteString(strings.Repeat(" ", labelGutter-len(label)))
			color.reset(&sb)
		}
		c.writeRow(&sb, row, &color, layerColor)
	}
	return sb.String()
}
