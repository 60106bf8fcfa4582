package pitch

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Loudness returns the frame's level in dB (20·log10 of the RMS).
// Silence, including an empty frame, yields negative infinity.
func Loudness(frame Frame) float64 {
	if len(frame) == 0 {
		return math.Inf(-1)
	}
	rms := math.Sqrt(floats.Dot(frame, frame) / float64(len(frame)))
	return 20 * math.Log10(rms)
}
