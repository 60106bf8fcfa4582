package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/olivier-w/pitchtrace/internal/pitch"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func estimate(t *testing.T, frame []float64, sampleRate float64) pitch.Estimate {
	t.Helper()
	est, err := pitch.NewMcLeod().Estimate(frame, sampleRate)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	return est
}

// writeWAV writes a 16-bit PCM file where channel 0 carries a sine at freq
// and any other channel is silent.
func writeWAV(t *testing.T, freq float64, sampleRate, channels int, dur time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	frames := int(dur.Seconds() * float64(sampleRate))
	data := make([]int, frames*channels)
	for i := range frames {
		v := 0.6 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		data[i*channels] = int(v * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestFillTailPadsFront(t *testing.T) {
	dst := []float64{9, 9, 9, 9, 9}
	n := fillTail(dst, []float32{1, 2})
	if n != 2 {
		t.Fatalf("expected 2 samples, got %d", n)
	}
	want := []float64{0, 0, 0, 1, 2}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dst)
		}
	}
}

func TestFillTailKeepsNewest(t *testing.T) {
	dst := make([]float64, 3)
	n := fillTail(dst, []float64{1, 2, 3, 4, 5})
	if n != 3 || dst[0] != 3 || dst[2] != 5 {
		t.Fatalf("expected newest three samples, got n=%d %v", n, dst)
	}
}

func TestDecodeF32LE(t *testing.T) {
	b := make([]byte, 10)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(-0.25))
	got := decodeF32LE(nil, b)
	if len(got) != 2 || got[0] != 0.5 || got[1] != -0.25 {
		t.Fatalf("expected [0.5 -0.25] ignoring trailing bytes, got %v", got)
	}
}

func TestEncodeF32LERoundTripsThroughDecode(t *testing.T) {
	got := decodeF32LE(nil, encodeF32LE([]float64{0.125, -1}))
	if len(got) != 2 || got[0] != 0.125 || got[1] != -1 {
		t.Fatalf("unexpected samples %v", got)
	}
}

func TestSineSourceCarriesItsFrequency(t *testing.T) {
	clock := newFakeClock()
	src := NewSine(220, 44100, SynthOptions{Now: clock.now})
	clock.advance(time.Second)

	frame := make([]float64, 2048)
	if n := src.Latest(frame); n != 2048 {
		t.Fatalf("expected a full window, got %d", n)
	}
	got := estimate(t, frame, src.SampleRate())
	if math.Abs(got.Frequency-220) > 2 || got.Clarity <= 0.9 {
		t.Fatalf("expected clear 220 Hz, got %+v", got)
	}
	if db := pitch.Loudness(frame); !(db > pitch.DefaultLoudnessFloor) {
		t.Fatalf("expected sine above the loudness gate, got %.2f dB", db)
	}
}

func TestSineSourceStartsSilent(t *testing.T) {
	clock := newFakeClock()
	src := NewSine(440, 44100, SynthOptions{Now: clock.now})

	frame := make([]float64, 2048)
	if n := src.Latest(frame); n != 0 {
		t.Fatalf("expected no samples at start, got %d", n)
	}
	if !math.IsInf(pitch.Loudness(frame), -1) {
		t.Fatal("expected a silent frame at start")
	}

	clock.advance(10 * time.Millisecond)
	if n := src.Latest(frame); n != 441 {
		t.Fatalf("expected 441 samples after 10ms, got %d", n)
	}
	for i := range 2048 - 441 {
		if frame[i] != 0 {
			t.Fatalf("expected zero padding at %d, got %v", i, frame[i])
		}
	}
}

func TestSineVibratoStaysNearCenter(t *testing.T) {
	clock := newFakeClock()
	src := NewSine(330, 44100, SynthOptions{Now: clock.now, VibratoRate: 5, VibratoDepth: 30})
	clock.advance(2 * time.Second)

	frame := make([]float64, 2048)
	src.Latest(frame)
	got := estimate(t, frame, 44100)
	if math.Abs(got.Frequency-330) > 330*0.03 {
		t.Fatalf("expected pitch within vibrato depth of 330 Hz, got %.2f", got.Frequency)
	}
}

func TestSweepRisesExponentially(t *testing.T) {
	clock := newFakeClock()
	src := NewSweep(SweepLow, SweepHigh, SweepPeriod, 44100, SynthOptions{Now: clock.now})
	frame := make([]float64, 2048)

	clock.advance(SweepPeriod / 2)
	src.Latest(frame)
	mid := estimate(t, frame, 44100)
	want := math.Sqrt(SweepLow * SweepHigh)
	if math.Abs(mid.Frequency-want) > want*0.03 {
		t.Fatalf("expected about %.1f Hz halfway, got %.2f", want, mid.Frequency)
	}

	clock.advance(SweepPeriod / 4)
	src.Latest(frame)
	later := estimate(t, frame, 44100)
	if !(later.Frequency > mid.Frequency) {
		t.Fatalf("expected the sweep to rise, got %.2f then %.2f", mid.Frequency, later.Frequency)
	}
}

func TestDecodeWAVTakesFirstChannel(t *testing.T) {
	path := writeWAV(t, 440, 22050, 2, 500*time.Millisecond)
	clip, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if clip.SampleRate != 22050 {
		t.Fatalf("expected 22050 Hz, got %d", clip.SampleRate)
	}
	if len(clip.Samples) != 11025 {
		t.Fatalf("expected 11025 mono samples, got %d", len(clip.Samples))
	}
	if clip.Duration() != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", clip.Duration())
	}
	got := estimate(t, clip.Samples[:2048], 22050)
	if math.Abs(got.Frequency-440) > 4 {
		t.Fatalf("expected 440 Hz on channel 0, got %.2f", got.Frequency)
	}
}

func TestFileSourceFollowsClock(t *testing.T) {
	path := writeWAV(t, 440, 44100, 1, time.Second)
	clock := newFakeClock()
	src, err := OpenFile(path, FileOptions{Now: clock.now})
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer src.Close()

	frame := make([]float64, 2048)
	if n := src.Latest(frame); n != 0 {
		t.Fatalf("expected nothing before the clock moves, got %d", n)
	}

	clock.advance(500 * time.Millisecond)
	if n := src.Latest(frame); n != 2048 {
		t.Fatalf("expected a full window mid-clip, got %d", n)
	}
	got := estimate(t, frame, src.SampleRate())
	if math.Abs(got.Frequency-440) > 4 || got.Clarity <= 0.9 {
		t.Fatalf("expected clear 440 Hz, got %+v", got)
	}
	if src.Elapsed() != 500*time.Millisecond {
		t.Fatalf("expected 500ms elapsed, got %v", src.Elapsed())
	}

	clock.advance(2 * time.Second)
	if n := src.Latest(frame); n != 0 {
		t.Fatalf("expected silence past the end, got %d samples", n)
	}
	if !math.IsInf(pitch.Loudness(frame), -1) {
		t.Fatal("expected a silent frame past the end")
	}
	if src.Elapsed() != time.Second {
		t.Fatalf("expected elapsed to stop at the clip length, got %v", src.Elapsed())
	}
}

func TestOpenFileErrorsAreUnavailable(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.wav")
	if err := os.WriteFile(bogus, []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.wav"), bogus, text} {
		_, err := OpenFile(path, FileOptions{})
		if !errors.Is(err, ErrAudioUnavailable) {
			t.Fatalf("expected ErrAudioUnavailable for %s, got %v", filepath.Base(path), err)
		}
	}
}

// writeFLACHeader writes a STREAMINFO-only FLAC file that claims total
// samples but carries no frames.
func writeFLACHeader(t *testing.T, total uint64) string {
	t.Helper()
	info := make([]byte, 34)
	binary.BigEndian.PutUint16(info[0:], 4096) // min block size
	binary.BigEndian.PutUint16(info[2:], 4096) // max block size
	// 20 bits sample rate, 3 bits channels-1, 5 bits bps-1, 36 bits samples.
	packed := uint64(44100)<<44 | uint64(15)<<36 | total&(1<<36-1)
	binary.BigEndian.PutUint64(info[10:], packed)

	data := append([]byte("fLaC"), 0x80, 0, 0, byte(len(info)))
	data = append(data, info...)
	path := filepath.Join(t.TempDir(), "empty.flac")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeFLACIgnoresOversizedSampleCount(t *testing.T) {
	path := writeFLACHeader(t, 1<<36-1)

	if _, err := DecodeFile(path); err == nil {
		t.Fatal("expected an error for a FLAC file without frames")
	}
	if _, err := OpenFile(path, FileOptions{}); !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
}

func TestDecodeFLACTruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cut.flac")
	if err := os.WriteFile(path, []byte("fLaC\x80\x00\x00\x22\x10\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path, FileOptions{}); !errors.Is(err, ErrAudioUnavailable) {
		t.Fatalf("expected ErrAudioUnavailable, got %v", err)
	}
}

func TestSourcesCloseIdempotently(t *testing.T) {
	path := writeWAV(t, 220, 8000, 1, 100*time.Millisecond)
	f, err := OpenFile(path, FileOptions{})
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	for _, src := range []Source{f, NewSine(220, 8000, SynthOptions{})} {
		if err := src.Close(); err != nil {
			t.Fatalf("first Close() error = %v", err)
		}
		if err := src.Close(); err != nil {
			t.Fatalf("second Close() error = %v", err)
		}
	}
}
