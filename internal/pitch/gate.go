package pitch

// Default gate thresholds. A frame must be strictly louder than
// DefaultLoudnessFloor and strictly clearer than DefaultClarityFloor.
const (
	DefaultLoudnessFloor = -40.0
	DefaultClarityFloor  = 0.9
)

// Outcome records which path a frame took through the gate.
type Outcome uint8

const (
	OutcomeQuiet   Outcome = iota // at or below the loudness floor
	OutcomeUnclear                // estimated, clarity at or below the floor
	OutcomeFault                  // the estimator failed on this frame
	OutcomeVoiced                 // accepted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQuiet:
		return "quiet"
	case OutcomeUnclear:
		return "unclear"
	case OutcomeFault:
		return "fault"
	case OutcomeVoiced:
		return "voiced"
	default:
		return "unknown"
	}
}

// Verdict is the gate's decision for one frame. Pitch and Clarity are zero
// unless the outcome is OutcomeVoiced.
type Verdict struct {
	Outcome Outcome
	Pitch   float64
	Clarity float64
	Err     error // set for OutcomeFault
}

// Present reports whether the frame yields a plotted pitch.
func (v Verdict) Present() bool {
	return v.Outcome == OutcomeVoiced
}

// Sample stamps the verdict with a time.
func (v Verdict) Sample(t float64) Sample {
	return Sample{Time: t, Pitch: v.Pitch, Present: v.Present()}
}

// Gate decides per frame whether a pitch estimate is trustworthy enough to
// display. The loudness check runs first so silent frames never reach the
// estimator.
type Gate struct {
	LoudnessFloor float64 // dB
	ClarityFloor  float64
}

// DefaultGate returns a Gate with the default thresholds.
func DefaultGate() Gate {
	return Gate{
		LoudnessFloor: DefaultLoudnessFloor,
		ClarityFloor:  DefaultClarityFloor,
	}
}

// Evaluate applies the gate. estimate is only called when db is above the
// loudness floor. NaN loudness is treated as silence.
func (g Gate) Evaluate(db float64, estimate func() (Estimate, error)) Verdict {
	if !(db > g.LoudnessFloor) {
		return Verdict{Outcome: OutcomeQuiet}
	}

	est, err := estimate()
	if err != nil {
		return Verdict{Outcome: OutcomeFault, Err: err}
	}
	if !(est.Clarity > g.ClarityFloor) {
		return Verdict{Outcome: OutcomeUnclear}
	}
	return Verdict{
		Outcome: OutcomeVoiced,
		Pitch:   est.Frequency,
		Clarity: est.Clarity,
	}
}
