package visualizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

type colorRGB struct {
	R uint8
	G uint8
	B uint8
}

func (c colorRGB) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c colorRGB) key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerpColor(a, b colorRGB, t float64) colorRGB {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return colorRGB{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// Palette.
var (
	traceColor  = colorRGB{R: 255, G: 165, B: 0}
	cursorColor = colorRGB{R: 74, G: 144, B: 226}
	gridColor   = colorRGB{R: 88, G: 88, B: 110}
	gateColor   = colorRGB{R: 255, G: 252, B: 210}
	quietColor  = colorRGB{R: 96, G: 96, B: 110}

	meterLow  = colorRGB{R: 60, G: 224, B: 116}
	meterMid  = colorRGB{R: 240, G: 198, B: 72}
	meterHigh = colorRGB{R: 242, G: 96, B: 86}
)

func layerColor(layer uint8) colorRGB {
	switch layer {
	case layerTrace:
		return traceColor
	case layerCursor:
		return cursorColor
	default:
		return gridColor
	}
}

// resolveProfile returns the profile lipgloss detected for the terminal, or
// Ascii when color is turned off.
func resolveProfile(enabled bool) termenv.Profile {
	if !enabled {
		return termenv.Ascii
	}
	return lipgloss.ColorProfile()
}

const noColor = ^uint32(0)

// ansiState emits a foreground sequence only when the color changes, so runs
// of same-colored cells share one escape.
type ansiState struct {
	profile termenv.Profile
	current uint32
}

func newANSIState(profile termenv.Profile) ansiState {
	return ansiState{profile: profile, current: noColor}
}

func (s *ansiState) set(sb *strings.Builder, c colorRGB) {
	if s.profile == termenv.Ascii || c.key() == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c))
	s.current = c.key()
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == termenv.Ascii || s.current == noColor {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	s.current = noColor
}

var seqCache sync.Map

// colorSequence converts c down to what profile supports and returns its
// foreground escape.
func colorSequence(profile termenv.Profile, c colorRGB) string {
	key := uint64(profile)<<32 | uint64(c.key())
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	if params := profile.Color(c.hex()).Sequence(false); params != "" {
		seq = termenv.CSI + params + "m"
	}
	seqCache.Store(key, seq)
	return seq
}
