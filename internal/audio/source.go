// Package audio provides the sample sources the pitch pipeline reads from:
// a live microphone, a decoded audio file and synthetic test tones.
package audio

import (
	"errors"
	"fmt"
)

// ErrAudioUnavailable reports that an audio input could not be acquired.
var ErrAudioUnavailable = errors.New("audio unavailable")

// Source is a rolling view of the most recent mono audio.
type Source interface {
	// SampleRate returns the sampling rate in Hz.
	SampleRate() float64
	// Latest fills dst with the newest samples in chronological order. When
	// fewer than len(dst) samples exist, the front of dst is zeroed. It
	// returns the number of real samples written.
	Latest(dst []float64) int
	// Close releases the input. It is safe to call more than once.
	Close() error
}

func unavailable(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrAudioUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %w", ErrAudioUnavailable, what, err)
}

// fillTail copies src into the end of dst, zeroing whatever is left in front.
func fillTail[T float32 | float64](dst []float64, src []T) int {
	if len(src) > len(dst) {
		src = src[len(src)-len(dst):]
	}
	pad := len(dst) - len(src)
	clear(dst[:pad])
	for i, v := range src {
		dst[pad+i] = float64(v)
	}
	return len(src)
}
