// Package pipeline runs the scheduled pitch extraction loop. Every tick it
// reads the newest audio window, measures loudness, gates and estimates
// pitch, appends one sample to the rolling window and publishes an immutable
// snapshot for the display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/pitchtrace/internal/audio"
	"github.com/olivier-w/pitchtrace/internal/observe"
	"github.com/olivier-w/pitchtrace/internal/pitch"
	"github.com/olivier-w/pitchtrace/internal/ring"
)

var (
	// ErrStopped is returned by Start after Stop. A stopped pipeline cannot
	// be restarted; build a new one.
	ErrStopped = errors.New("pipeline: stopped")

	// ErrRunning is returned by a second call to Start.
	ErrRunning = errors.New("pipeline: already running")
)

// Options configures a Pipeline. Zero and nil fields take their defaults.
type Options struct {
	Interval   time.Duration // default 50ms
	WindowSize int           // samples per frame, default 2048
	Capacity   int           // samples kept for display, default 200
	Gate       *pitch.Gate   // nil means pitch.DefaultGate()
	Logger     *slog.Logger
	Metrics    *observe.Metrics
	Now        func() time.Time
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		Interval:   50 * time.Millisecond,
		WindowSize: 2048,
		Capacity:   200,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	if o.WindowSize <= 0 {
		o.WindowSize = d.WindowSize
	}
	if o.Capacity <= 0 {
		o.Capacity = d.Capacity
	}
	gate := pitch.DefaultGate()
	if o.Gate != nil {
		gate = *o.Gate
	}
	o.Gate = &gate
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = observe.DefaultMetrics()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Snapshot is the state after one tick. Pitch and Clarity are zero unless
// the latest sample is present. Window is shared between readers and must
// not be modified.
type Snapshot struct {
	Time    float64 // seconds since Start
	Pitch   float64
	Clarity float64
	Decibel float64
	Outcome pitch.Outcome
	Window  []pitch.Sample // oldest to newest
}

// Present reports whether the latest sample carries a pitch.
func (s Snapshot) Present() bool { return s.Outcome == pitch.OutcomeVoiced }

// Pipeline owns an audio source and an estimator and drives them from a
// single goroutine, so passes never overlap.
type Pipeline struct {
	src    audio.Source
	est    pitch.Estimator
	opts   Options
	logger *slog.Logger

	frame  pitch.Frame
	window *ring.Ring[pitch.Sample]
	snap   atomic.Pointer[Snapshot]
	origin time.Time

	stopping atomic.Bool

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	stopOnce sync.Once
	closeErr error
}

// New creates a pipeline reading from src. The pipeline takes ownership of
// src and closes it on Stop.
func New(src audio.Source, est pitch.Estimator, opts Options) *Pipeline {
	opts = opts.withDefaults()
	p := &Pipeline{
		src:    src,
		est:    est,
		opts:   opts,
		logger: opts.Logger.With("component", "pipeline"),
		frame:  make(pitch.Frame, opts.WindowSize),
		window: ring.New[pitch.Sample](opts.Capacity),
	}
	p.snap.Store(&Snapshot{Decibel: math.Inf(-1), Outcome: pitch.OutcomeQuiet})
	return p
}

// Start records the time origin and begins ticking. The loop runs until ctx
// is cancelled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrRunning
	}
	p.started = true
	p.origin = p.opts.Now()

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.run(ctx)

	p.logger.Info("pipeline started",
		"interval", p.opts.Interval,
		"window_size", p.opts.WindowSize,
		"sample_rate", p.src.SampleRate(),
	)
	return nil
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			p.tick(ctx, p.opts.Now())
		}
	}
}

// tick runs one full pass.
func (p *Pipeline) tick(ctx context.Context, now time.Time) {
	began := time.Now()

	p.src.Latest(p.frame)
	db := pitch.Loudness(p.frame)
	v := p.opts.Gate.Evaluate(db, p.estimate)

	switch v.Outcome {
	case pitch.OutcomeFault:
		p.logger.Warn("pitch estimate failed", "err", v.Err)
	default:
		p.logger.Debug("frame gated", "outcome", v.Outcome, "db", db, "pitch", v.Pitch)
	}

	if p.stopping.Load() {
		return
	}
	t := now.Sub(p.origin).Seconds()
	p.window.Push(v.Sample(t))
	p.snap.Store(&Snapshot{
		Time:    t,
		Pitch:   v.Pitch,
		Clarity: v.Clarity,
		Decibel: db,
		Outcome: v.Outcome,
		Window:  p.window.Snapshot(),
	})

	p.opts.Metrics.RecordTick(ctx, time.Since(began), db, v.Outcome.String())
}

// estimate runs the estimator on the current frame. A panic is reported as
// an error so it only costs this frame.
func (p *Pipeline) estimate() (est pitch.Estimate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("estimator panic: %v", r)
		}
	}()
	return p.est.Estimate(p.frame, p.src.SampleRate())
}

// Snapshot returns the most recently published state. It never blocks the
// producer.
func (p *Pipeline) Snapshot() Snapshot {
	return *p.snap.Load()
}

// Stop ends the loop, waits for any pass in flight, and closes the source.
// No sample is appended once Stop has been called. Stop is idempotent and
// returns the source's close error.
func (p *Pipeline) Stop() error {
	p.stopOnce.Do(func() {
		p.stopping.Store(true)

		p.mu.Lock()
		p.stopped = true
		cancel, done := p.cancel, p.done
		p.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		p.closeErr = p.src.Close()
		p.logger.Info("pipeline stopped", "samples", p.window.Len())
	})
	return p.closeErr
}
