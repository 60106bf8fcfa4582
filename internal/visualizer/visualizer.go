// Package visualizer draws pipeline output for the terminal: the scrolling
// log-scaled pitch trace and the loudness meter.
package visualizer

import "github.com/olivier-w/pitchtrace/internal/pitch"

// Input is what a panel needs from one pipeline snapshot.
type Input struct {
	Samples []pitch.Sample // oldest to newest
	Decibel float64
}

// Panel renders pipeline output as text.
type Panel interface {
	Name() string
	Update(in Input, width, height int)
	View() string
}
