package pitch

import (
	"math"
	"strconv"
)

// C0 is the reference frequency of the lowest C, in Hz.
const C0 = 16.35

// NoPitch is shown instead of a note name when there is no pitch.
const NoPitch = "--"

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// halfSteps returns the number of equal-tempered semitones from C0 to the
// note nearest freq.
func halfSteps(freq float64) int {
	return int(math.Round(12 * math.Log2(freq/C0)))
}

func validPitch(freq float64) bool {
	return freq > 0 && !math.IsInf(freq, 0)
}

// NoteName returns the nearest equal-tempered note with its octave, such as
// "A4". Zero, negative and non-finite frequencies return NoPitch.
// Frequencies below C0 resolve into negative octaves.
func NoteName(freq float64) string {
	if !validPitch(freq) {
		return NoPitch
	}
	n := halfSteps(freq)
	octave := floorDiv(n, 12)
	index := n - octave*12
	return noteNames[index] + strconv.Itoa(octave)
}

// Cents returns how far freq lies from its nearest note, in [-50, 50].
// It returns 0 wherever NoteName returns NoPitch.
func Cents(freq float64) float64 {
	if !validPitch(freq) {
		return 0
	}
	nearest := C0 * math.Pow(2, float64(halfSteps(freq))/12)
	return 1200 * math.Log2(freq/nearest)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
