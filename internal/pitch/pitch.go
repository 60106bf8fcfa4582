// Package pitch turns raw audio frames into display-ready pitch samples:
// loudness in dB, a fundamental frequency estimate with a clarity score, the
// gate deciding whether that estimate is trustworthy, and note naming.
package pitch

import "errors"

var (
	// ErrMalformedFrame is returned for empty frames or frames containing
	// NaN or infinite samples.
	ErrMalformedFrame = errors.New("pitch: malformed frame")

	// ErrSampleRate is returned for a non-positive or non-finite sample rate.
	ErrSampleRate = errors.New("pitch: unsupported sample rate")
)

// Frame is a window of mono samples in [-1, 1].
type Frame []float64

// Estimate is a fundamental frequency with its clarity in [0, 1].
// Frequency is meaningless when Clarity is low.
type Estimate struct {
	Frequency float64
	Clarity   float64
}

// Estimator produces one Estimate per frame. Implementations must be
// deterministic for a given input.
type Estimator interface {
	Estimate(frame Frame, sampleRate float64) (Estimate, error)
}

// Sample is one plotted point. An absent sample breaks the trace rather
// than being interpolated across.
type Sample struct {
	Time    float64 // seconds since the pipeline started
	Pitch   float64 // Hz, zero when absent
	Present bool
}
