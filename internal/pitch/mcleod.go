package pitch

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// DefaultCutoff is the fraction of the highest NSDF key maximum that the
// chosen peak must reach.
const DefaultCutoff = 0.9

// McLeod estimates pitch with the McLeod Pitch Method: a normalized square
// difference function (NSDF) computed from an FFT autocorrelation, key
// maximum picking, and parabolic interpolation of the chosen peak. The peak
// height is the clarity.
//
// A McLeod reuses scratch buffers between calls and must not be shared
// across goroutines.
type McLeod struct {
	Cutoff float64

	padded []float64
	nsdf   []float64
	peaks  []int
}

// NewMcLeod returns an estimator using DefaultCutoff.
func NewMcLeod() *McLeod {
	return &McLeod{Cutoff: DefaultCutoff}
}

// Estimate implements Estimator. A frame without any periodic structure
// yields a zero Estimate and no error.
func (m *McLeod) Estimate(frame Frame, sampleRate float64) (Estimate, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return Estimate{}, fmt.Errorf("%w: %v", ErrSampleRate, sampleRate)
	}
	if len(frame) == 0 {
		return Estimate{}, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}
	for i, v := range frame {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Estimate{}, fmt.Errorf("%w: sample %d is %v", ErrMalformedFrame, i, v)
		}
	}

	m.computeNSDF(frame)
	m.findKeyMaxima()
	if len(m.peaks) == 0 {
		return Estimate{}, nil
	}

	highest := 0.0
	for _, p := range m.peaks {
		highest = math.Max(highest, m.nsdf[p])
	}
	cutoff := m.Cutoff * highest
	for _, p := range m.peaks {
		if m.nsdf[p] < cutoff {
			continue
		}
		period, clarity := parabolicPeak(m.nsdf, p)
		if period <= 0 {
			return Estimate{}, nil
		}
		return Estimate{
			Frequency: sampleRate / period,
			Clarity:   math.Min(clarity, 1),
		}, nil
	}
	return Estimate{}, nil
}

// computeNSDF fills m.nsdf with n'(τ) = 2·r(τ) / m(τ), where r is the
// autocorrelation and m(τ) = Σ x[j]² + x[j+τ]² over the overlapping range.
func (m *McLeod) computeNSDF(frame Frame) {
	n := len(frame)
	size := nextPow2(2 * n)
	if cap(m.padded) < size {
		m.padded = make([]float64, size)
	}
	padded := m.padded[:size]
	copy(padded, frame)
	clear(padded[n:])

	// Wiener-Khinchin: the inverse FFT of the power spectrum is the
	// autocorrelation. Zero-padding to 2n keeps it linear, not circular.
	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		spectrum[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	acf := fft.IFFT(spectrum)

	if cap(m.nsdf) < n {
		m.nsdf = make([]float64, n)
	}
	m.nsdf = m.nsdf[:n]

	sq := 2 * real(acf[0])
	for tau := range n {
		if tau > 0 {
			a, b := frame[n-tau], frame[tau-1]
			sq -= a*a + b*b
		}
		if sq > 0 {
			m.nsdf[tau] = 2 * real(acf[tau]) / sq
		} else {
			m.nsdf[tau] = 0
		}
	}
}

// findKeyMaxima records the highest local maximum of each positive lobe of
// the NSDF, skipping the lobe around τ = 0.
func (m *McLeod) findKeyMaxima() {
	m.peaks = m.peaks[:0]
	nsdf := m.nsdf
	n := len(nsdf)

	pos := 0
	for pos < (n-1)/3 && nsdf[pos] > 0 {
		pos++
	}
	for pos < n-1 && nsdf[pos] <= 0 {
		pos++
	}
	if pos == 0 {
		pos = 1
	}

	cur := 0
	for pos < n-1 {
		if nsdf[pos] > nsdf[pos-1] && nsdf[pos] >= nsdf[pos+1] {
			if cur == 0 || nsdf[pos] > nsdf[cur] {
				cur = pos
			}
		}
		pos++
		if pos < n-1 && nsdf[pos] <= 0 {
			if cur > 0 {
				m.peaks = append(m.peaks, cur)
				cur = 0
			}
			for pos < n-1 && nsdf[pos] <= 0 {
				pos++
			}
		}
	}
	if cur > 0 {
		m.peaks = append(m.peaks, cur)
	}
}

// parabolicPeak fits a parabola through y[i-1], y[i], y[i+1] and returns the
// vertex. i must have neighbours on both sides.
func parabolicPeak(y []float64, i int) (x, peak float64) {
	a, b, c := y[i-1], y[i], y[i+1]
	den := a - 2*b + c
	if den == 0 {
		return float64(i), b
	}
	shift := (a - c) / (2 * den)
	return float64(i) + shift, b - (a-c)*shift/4
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
