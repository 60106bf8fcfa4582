package audio

import (
	"math"
	"time"
)

// Default sweep range, C2 to C6.
const (
	SweepLow    = 65.41
	SweepHigh   = 1046.5
	SweepPeriod = 20 * time.Second
)

// SynthOptions configures the synthetic sources.
type SynthOptions struct {
	Amplitude    float64 // peak level, default 0.5
	VibratoRate  float64 // Hz, sine only
	VibratoDepth float64 // cents, sine only
	Now          func() time.Time
}

// Synth is a clock-driven tone generator. Every sample is a pure function of
// its time offset from when the source was created, so no hardware or
// goroutine is involved.
type Synth struct {
	sampleRate float64
	amplitude  float64
	phase      func(t float64) float64
	start      time.Time
	now        func() time.Time
}

func newSynth(sampleRate float64, opts SynthOptions, phase func(float64) float64) *Synth {
	if opts.Amplitude <= 0 {
		opts.Amplitude = 0.5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Synth{
		sampleRate: sampleRate,
		amplitude:  opts.Amplitude,
		phase:      phase,
		start:      opts.Now(),
		now:        opts.Now,
	}
}

// NewSine returns a steady tone at freq, with optional vibrato.
func NewSine(freq, sampleRate float64, opts SynthOptions) *Synth {
	rate, depth := opts.VibratoRate, opts.VibratoDepth
	return newSynth(sampleRate, opts, func(t float64) float64 {
		p := 2 * math.Pi * freq * t
		if rate > 0 && depth != 0 {
			// Integrated f·(1 + c·sin(2πrt)), zero at t=0.
			c := math.Pow(2, depth/1200) - 1
			p += freq * c / rate * (1 - math.Cos(2*math.Pi*rate*t))
		}
		return p
	})
}

// NewSweep returns an exponential chirp from lo to hi over period, then
// starts over.
func NewSweep(lo, hi float64, period time.Duration, sampleRate float64, opts SynthOptions) *Synth {
	T := period.Seconds()
	k := math.Log(hi / lo)
	return newSynth(sampleRate, opts, func(t float64) float64 {
		tau := math.Mod(t, T)
		return 2 * math.Pi * lo * T / k * (math.Exp(k*tau/T) - 1)
	})
}

// SampleRate implements Source.
func (s *Synth) SampleRate() float64 { return s.sampleRate }

// Latest implements Source.
func (s *Synth) Latest(dst []float64) int {
	end := int(s.now().Sub(s.start).Seconds() * s.sampleRate)
	n := 0
	for i := range dst {
		idx := end - len(dst) + i
		if idx < 0 {
			dst[i] = 0
			continue
		}
		dst[i] = s.amplitude * math.Sin(s.phase(float64(idx)/s.sampleRate))
		n++
	}
	return n
}

// Close implements Source.
func (s *Synth) Close() error { return nil }
