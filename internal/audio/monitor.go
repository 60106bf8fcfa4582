package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const monitorBytesPerSample = 4 // float32 mono

// countingReader wraps an io.Reader and tracks bytes read.
type countingReader struct {
	reader io.Reader
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

var (
	globalOtoCtx  *oto.Context
	otoOnce       sync.Once
	otoInitErr    error
	otoSampleRate int
)

// initOto creates the process-wide playback context. oto allows one context
// per process, so every monitored clip must share its sample rate.
func initOto(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatFloat32LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoSampleRate = sampleRate
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if sampleRate != otoSampleRate {
		return nil, fmt.Errorf("playback already running at %d Hz", otoSampleRate)
	}
	return globalOtoCtx, nil
}

// monitor plays a clip aloud and reports how far playback has progressed.
type monitor struct {
	player  *oto.Player
	counter *countingReader
}

func startMonitor(clip Clip) (*monitor, error) {
	ctx, err := initOto(clip.SampleRate)
	if err != nil {
		return nil, err
	}
	cr := &countingReader{reader: bytes.NewReader(encodeF32LE(clip.Samples))}
	m := &monitor{player: ctx.NewPlayer(cr), counter: cr}
	m.player.Play()
	return m, nil
}

// position returns the index of the sample currently audible. Bytes handed
// to oto but still queued in its buffer are not counted as played.
func (m *monitor) position() int {
	played := m.counter.Pos() - int64(m.player.BufferedSize())
	return int(max(played, 0) / monitorBytesPerSample)
}

func (m *monitor) close() error {
	m.player.Pause()
	return m.player.Close()
}

func encodeF32LE(samples []float64) []byte {
	out := make([]byte, len(samples)*monitorBytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*monitorBytesPerSample:], math.Float32bits(float32(s)))
	}
	return out
}
