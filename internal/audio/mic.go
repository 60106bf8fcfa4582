package audio

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/olivier-w/pitchtrace/internal/ring"
)

// MicOptions configures OpenMicrophone.
type MicOptions struct {
	SampleRate int // Hz, default 44100
	WindowSize int // samples the pipeline reads per tick
	Logger     *slog.Logger
}

// Microphone captures mono float32 audio from the default input device.
// The device callback appends into a ring that Latest copies out of.
type Microphone struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	capture    *ring.Ring[float32]
	sampleRate float64
	logger     *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenMicrophone initializes and starts the default capture device. Any
// failure is reported as ErrAudioUnavailable.
func OpenMicrophone(opts MicOptions) (*Microphone, error) {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = 2048
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, unavailable("init audio context", err)
	}

	m := &Microphone{
		ctx:        ctx,
		capture:    ring.New[float32](max(2*opts.WindowSize, 4096)),
		sampleRate: float64(opts.SampleRate),
		logger:     logger,
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = uint32(opts.SampleRate)
	config.Alsa.NoMMap = 1

	var scratch []float32
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if len(input) == 0 {
				return
			}
			scratch = decodeF32LE(scratch[:0], input)
			m.capture.Push(scratch...)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		m.freeContext()
		return nil, unavailable("init capture device", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		m.freeContext()
		return nil, unavailable("start capture device", err)
	}
	m.device = device

	logger.Info("microphone started", "sample_rate", opts.SampleRate)
	return m, nil
}

// SampleRate implements Source.
func (m *Microphone) SampleRate() float64 { return m.sampleRate }

// Latest implements Source.
func (m *Microphone) Latest(dst []float64) int {
	return fillTail(dst, m.capture.Last(len(dst)))
}

// Close stops and releases the device.
func (m *Microphone) Close() error {
	m.closeOnce.Do(func() {
		if m.device != nil {
			if err := m.device.Stop(); err != nil {
				m.closeErr = err
			}
			m.device.Uninit()
		}
		if err := m.freeContext(); err != nil && m.closeErr == nil {
			m.closeErr = err
		}
		m.logger.Info("microphone stopped")
	})
	return m.closeErr
}

func (m *Microphone) freeContext() error {
	err := m.ctx.Uninit()
	m.ctx.Free()
	return err
}

// decodeF32LE appends the little-endian float32 samples in b to dst.
func decodeF32LE(dst []float32, b []byte) []float32 {
	for i := 0; i+4 <= len(b); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return dst
}
