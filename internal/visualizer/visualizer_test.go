package visualizer

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/muesli/termenv"

	"github.com/olivier-w/pitchtrace/internal/pitch"
)

func TestOctaveGrid(t *testing.T) {
	if math.Abs(Octaves.Low()-32.7) > 1e-9 {
		t.Fatalf("expected C1 at 32.7 Hz, got %v", Octaves.Low())
	}
	if math.Abs(Octaves.High()-4185.6) > 1e-9 {
		t.Fatalf("expected C8 at 4185.6 Hz, got %v", Octaves.High())
	}
	for i := range Octaves {
		want := "C" + string(rune('1'+i))
		if got := Octaves.Label(i); got != want {
			t.Fatalf("Label(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestMapToPixelYEndpoints(t *testing.T) {
	vp := Viewport{Height: 100, MarginTop: 10, MarginBottom: 20}
	if got := vp.MapToPixelY(Octaves.Low()); math.Abs(got-80) > 1e-9 {
		t.Fatalf("expected C1 at y=80, got %v", got)
	}
	if got := vp.MapToPixelY(Octaves.High()); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected C8 at y=10, got %v", got)
	}
	if got := vp.MapToPixelY(Octaves[3]); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected C4 at y=50, got %v", got)
	}
}

func TestMapToPixelYOctavesAreEvenlySpaced(t *testing.T) {
	vp := Viewport{Height: 700, MarginTop: 0, MarginBottom: 0}
	for i := 1; i < len(Octaves); i++ {
		gap := vp.MapToPixelY(Octaves[i-1]) - vp.MapToPixelY(Octaves[i])
		if math.Abs(gap-100) > 1e-9 {
			t.Fatalf("expected 100px per octave, got %v between C%d and C%d", gap, i, i+1)
		}
	}
}

func TestMapToPixelYClampsBelowC1(t *testing.T) {
	vp := Viewport{Height: 100, MarginTop: 10, MarginBottom: 20}
	for _, freq := range []float64{0, -5, 20, math.NaN(), math.Inf(-1)} {
		if got := vp.MapToPixelY(freq); got != vp.MapToPixelY(Octaves.Low()) {
			t.Fatalf("expected %v Hz to clamp to C1, got y=%v", freq, got)
		}
	}
}

func TestMapToPixelYLeavesAboveC8Unclamped(t *testing.T) {
	vp := Viewport{Height: 100, MarginTop: 10, MarginBottom: 20}
	if got := vp.MapToPixelY(8000); !(got < 10) {
		t.Fatalf("expected 8000 Hz above the top margin, got y=%v", got)
	}
}

func TestMapToPixelYIsMonotonic(t *testing.T) {
	vp := Viewport{Height: 60, MarginTop: 4, MarginBottom: 4}
	prev := math.Inf(1)
	for freq := 33.0; freq < 4000; freq *= 1.07 {
		y := vp.MapToPixelY(freq)
		if !(y < prev) {
			t.Fatalf("expected y to decrease with frequency at %v Hz: %v >= %v", freq, y, prev)
		}
		prev = y
	}
}

func TestMapToPixelYZeroHeight(t *testing.T) {
	got := Viewport{}.MapToPixelY(440)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected a finite value for a zero viewport, got %v", got)
	}
}

func voiced(freqs ...float64) []pitch.Sample {
	out := make([]pitch.Sample, len(freqs))
	for i, f := range freqs {
		out[i] = pitch.Sample{Time: float64(i) * 0.05, Pitch: f, Present: f > 0}
	}
	return out
}

// testTrace lays out a 100-cell plot (200 dots) with the cursor at dot 100
// and one dot per sample.
func testTrace() (*Trace, *dotCanvas, Viewport) {
	tr := NewTrace(TraceOptions{
		VisiblePoints:  100,
		CursorFraction: 0.5,
		MarginTop:      4,
		MarginBottom:   4,
	})
	c := newDotCanvas(100, 10)
	return tr, c, tr.viewport(c)
}

func traceDotsInColumn(c *dotCanvas, x int) int {
	n := 0
	for y := range c.h {
		if c.at(x, y) == layerTrace {
			n++
		}
	}
	return n
}

func TestTracePlacesNewestSampleLeftOfCursor(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(440, 440, 440, 440, 440))

	y := int(math.Round(vp.MapToPixelY(440)))
	for x := 95; x <= 99; x++ {
		if c.at(x, y) != layerTrace {
			t.Fatalf("expected trace dot at (%d,%d)", x, y)
		}
	}
	if traceDotsInColumn(c, 94) != 0 || traceDotsInColumn(c, 100) != 0 {
		t.Fatal("expected no trace outside the sampled span")
	}
}

func TestTraceAbsentSampleBreaksLine(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(220, 220, 0, 220, 220))

	if traceDotsInColumn(c, 97) != 0 {
		t.Fatal("expected a gap at the absent sample")
	}
	for _, x := range []int{95, 96, 98, 99} {
		if traceDotsInColumn(c, x) == 0 {
			t.Fatalf("expected trace dots at column %d", x)
		}
	}
}

func TestTraceIsolatedSampleDrawsNothing(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(0, 330, 0))
	for x := range c.w {
		if traceDotsInColumn(c, x) != 0 {
			t.Fatalf("expected no trace for a lone sample, found dots at column %d", x)
		}
	}
}

func TestTraceClipsAboveC8(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(6000, 7000, 8000))
	for x := range c.w {
		if traceDotsInColumn(c, x) != 0 {
			t.Fatalf("expected pitches above C8 to be clipped, found dots at column %d", x)
		}
	}
}

func TestTraceClipsRisingSegmentAtTopMargin(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(2000, 20000))
	top, _ := tr.band(c)
	for x := range c.w {
		for y := 0; y < top; y++ {
			if c.at(x, y) == layerTrace {
				t.Fatalf("expected no trace in the top margin, found (%d,%d)", x, y)
			}
		}
	}
	if traceDotsInColumn(c, 98) == 0 {
		t.Fatal("expected the visible part of the segment to be drawn")
	}
}

func TestTraceClampsLowPitchToBottom(t *testing.T) {
	tr, c, vp := testTrace()
	tr.drawSamples(c, vp, voiced(10, 10))
	_, bottom := tr.band(c)
	if c.at(98, bottom) != layerTrace || c.at(99, bottom) != layerTrace {
		t.Fatalf("expected sub-C1 pitch on the bottom row %d", bottom)
	}
}

func TestTraceScrollsOldSamplesOffscreen(t *testing.T) {
	tr, c, vp := testTrace()
	freqs := make([]float64, 200)
	for i := range freqs {
		freqs[i] = 440
	}
	tr.drawSamples(c, vp, voiced(freqs...))
	if traceDotsInColumn(c, 0) == 0 || traceDotsInColumn(c, 99) == 0 {
		t.Fatal("expected the visible window to span the plot left of the cursor")
	}
	if traceDotsInColumn(c, 101) != 0 {
		t.Fatal("expected nothing right of the cursor")
	}
}

func TestTraceViewLayout(t *testing.T) {
	opts := DefaultTraceOptions()
	opts.Color = false
	tr := NewTrace(opts)
	tr.Update(Input{Samples: voiced(220, 221, 222, 223)}, 80, 12)

	lines := strings.Split(tr.View(), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n != 80 {
			t.Fatalf("expected row %d to be 80 columns, got %d", i, n)
		}
	}
	view := tr.View()
	for _, label := range []string{"C1", "C4", "C8"} {
		if !strings.Contains(view, label) {
			t.Fatalf("expected gridline label %s in view", label)
		}
	}
	if strings.Contains(view, "\x1b[") {
		t.Fatal("expected no escape sequences with color disabled")
	}
}

func TestTraceTinyAreaDoesNotPanic(t *testing.T) {
	tr := NewTrace(DefaultTraceOptions())
	tr.Update(Input{Samples: voiced(440, 440)}, 0, 1)
	tr.Update(Input{Samples: voiced(440, 440)}, 2, 0)
	if tr.View() != "" {
		t.Fatalf("expected empty view for zero height, got %q", tr.View())
	}
}

func TestTraceMarginsTallerThanAreaDrawNoTrace(t *testing.T) {
	tr := NewTrace(TraceOptions{
		VisiblePoints:  100,
		CursorFraction: 0.5,
		MarginTop:      40,
		MarginBottom:   40,
	})
	c := newDotCanvas(100, 10)
	tr.drawSamples(c, tr.viewport(c), voiced(220, 330, 440, 550))
	for x := range c.w {
		if traceDotsInColumn(c, x) != 0 {
			t.Fatalf("expected no trace dots, found one in column %d", x)
		}
	}
	tr.Update(Input{Samples: voiced(220, 330, 440, 550)}, 60, 5)
	if tr.View() == "" {
		t.Fatal("expected grid and cursor to still render")
	}
}

func TestDBToLevel(t *testing.T) {
	cases := []struct {
		db, want float64
	}{
		{math.Inf(-1), 0},
		{math.NaN(), 0},
		{-120, 0},
		{-40, 0.5},
		{0, 1},
		{12, 1},
	}
	for _, tc := range cases {
		if got := dbToLevel(tc.db); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("dbToLevel(%v) = %v, want %v", tc.db, got, tc.want)
		}
	}
}

func TestLoudnessMeterSettlesOnReading(t *testing.T) {
	m := NewLoudnessMeter(-40, false, 30)
	for range 300 {
		m.Update(Input{Decibel: -20}, 60, 1)
	}
	if math.Abs(m.level.pos-0.75) > 0.01 {
		t.Fatalf("expected meter to settle near 0.75, got %v", m.level.pos)
	}
	view := m.View()
	if !strings.Contains(view, "-20.0 dB") {
		t.Fatalf("expected the raw reading in %q", view)
	}
	if !strings.ContainsRune(view, '│') {
		t.Fatalf("expected a gate marker in %q", view)
	}
}

func TestLoudnessMeterShowsSilence(t *testing.T) {
	m := NewLoudnessMeter(-40, false, 30)
	m.Update(Input{Decibel: math.Inf(-1)}, 40, 1)
	if !strings.Contains(m.View(), "-inf dB") {
		t.Fatalf("expected silence label, got %q", m.View())
	}
	if strings.ContainsRune(m.View(), '█') {
		t.Fatalf("expected an empty bar, got %q", m.View())
	}
}

func TestColorSequenceFollowsProfile(t *testing.T) {
	if got := colorSequence(termenv.TrueColor, traceColor); got != "\x1b[38;2;255;165;0m" {
		t.Fatalf("expected truecolor orange, got %q", got)
	}
	if got := colorSequence(termenv.ANSI256, traceColor); !strings.HasPrefix(got, "\x1b[38;5;") {
		t.Fatalf("expected a 256-color sequence, got %q", got)
	}
}

func TestANSIStateSkipsRepeatedColors(t *testing.T) {
	var sb strings.Builder
	state := newANSIState(termenv.TrueColor)
	state.set(&sb, gridColor)
	sb.WriteString("a")
	state.set(&sb, gridColor)
	sb.WriteString("b")
	state.reset(&sb)

	if got := strings.Count(sb.String(), "\x1b["); got != 2 {
		t.Fatalf("expected one color and one reset, got %d escapes in %q", got, sb.String())
	}

	sb.Reset()
	off := newANSIState(termenv.Ascii)
	off.set(&sb, gridColor)
	off.reset(&sb)
	if sb.Len() != 0 {
		t.Fatalf("expected no escapes without color, got %q", sb.String())
	}
}
