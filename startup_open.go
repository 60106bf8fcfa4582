package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/olivier-w/pitchtrace/internal/audio"
	"github.com/olivier-w/pitchtrace/internal/config"
	"github.com/olivier-w/pitchtrace/internal/media"
	"github.com/olivier-w/pitchtrace/internal/observe"
	"github.com/olivier-w/pitchtrace/internal/pipeline"
	"github.com/olivier-w/pitchtrace/internal/pitch"
	"github.com/olivier-w/pitchtrace/internal/ui"
	"github.com/olivier-w/pitchtrace/internal/visualizer"
)

// openFunc acquires the audio input and returns the live view over it. An
// empty path means the configured input; otherwise path names a file.
type openFunc func(path string) (ui.Model, error)

// liveSet tracks started pipelines so main can stop them however the program
// exits, including when acquisition finishes after the UI has gone.
type liveSet struct {
	mu     sync.Mutex
	closed bool
	pipes  []*pipeline.Pipeline
}

// add records p. It returns false once stopAll has run; the caller then owns
// stopping p.
func (s *liveSet) add(p *pipeline.Pipeline) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pipes = append(s.pipes, p)
	return true
}

func (s *liveSet) stopAll() error {
	s.mu.Lock()
	s.closed = true
	pipes := s.pipes
	s.pipes = nil
	s.mu.Unlock()

	var errs []error
	for _, p := range pipes {
		if err := p.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newOpener(ctx context.Context, cfg *config.Config, live *liveSet, logger *slog.Logger) openFunc {
	return func(path string) (ui.Model, error) {
		input := cfg.Input
		if path != "" {
			input.Kind = config.InputFile
			input.Path = path
		}

		src, view, err := openSource(input, cfg.Pipeline.WindowSize, logger)
		if err != nil {
			logger.Error("audio input failed", "kind", input.Kind, "err", err)
			return ui.Model{}, err
		}

		p := pipeline.New(src, pitch.NewMcLeod(), pipeline.Options{
			Interval:   cfg.Pipeline.TickInterval,
			WindowSize: cfg.Pipeline.WindowSize,
			Capacity:   cfg.Pipeline.Capacity,
			Gate: &pitch.Gate{
				LoudnessFloor: cfg.Pipeline.LoudnessGateDB,
				ClarityFloor:  cfg.Pipeline.ClarityGate,
			},
			Logger:  logger,
			Metrics: observe.DefaultMetrics(),
		})
		if !live.add(p) {
			if err := p.Stop(); err != nil {
				logger.Warn("pipeline stop failed", "err", err)
			}
			return ui.Model{}, context.Canceled
		}
		if err := p.Start(ctx); err != nil {
			return ui.Model{}, fmt.Errorf("start pipeline: %w", err)
		}

		view.Trace = visualizer.TraceOptions{
			VisiblePoints:  cfg.Display.VisiblePoints,
			CursorFraction: cfg.Display.CursorFraction,
			MarginTop:      cfg.Display.MarginTop,
			MarginBottom:   cfg.Display.MarginBottom,
			Color:          cfg.Display.Color,
		}
		view.GateDB = cfg.Pipeline.LoudnessGateDB
		view.Redraw = cfg.Display.RedrawInterval
		view.Logger = logger
		return ui.New(p, view), nil
	}
}

// openSource opens the input and fills in how the live view labels it.
func openSource(in config.InputConfig, window int, logger *slog.Logger) (audio.Source, ui.Options, error) {
	rate := float64(in.SampleRate)

	switch in.Kind {
	case config.InputMic:
		mic, err := audio.OpenMicrophone(audio.MicOptions{
			SampleRate: in.SampleRate,
			WindowSize: window,
			Logger:     logger,
		})
		if err != nil {
			return nil, ui.Options{}, err
		}
		return mic, ui.Options{
			Title:    "microphone",
			Subtitle: fmt.Sprintf("%d Hz", in.SampleRate),
		}, nil

	case config.InputFile:
		f, err := audio.OpenFile(in.Path, audio.FileOptions{Monitor: in.Monitor, Logger: logger})
		if err != nil {
			return nil, ui.Options{}, err
		}
		meta := media.ReadMetadata(in.Path)
		opts := ui.Options{Title: meta.Display(), Clip: f}
		if meta.Album != "" {
			opts.Subtitle = meta.Album
		}
		return f, opts, nil

	case config.InputSine:
		return audio.NewSine(in.Frequency, rate, audio.SynthOptions{}), ui.Options{
			Title:    fmt.Sprintf("sine %.2f Hz", in.Frequency),
			Subtitle: pitch.NoteName(in.Frequency),
		}, nil

	case config.InputSweep:
		return audio.NewSweep(audio.SweepLow, audio.SweepHigh, audio.SweepPeriod, rate, audio.SynthOptions{}), ui.Options{
			Title: fmt.Sprintf("sweep %s..%s", pitch.NoteName(audio.SweepLow), pitch.NoteName(audio.SweepHigh)),
		}, nil
	}

	return nil, ui.Options{}, fmt.Errorf("unknown input kind %q", in.Kind)
}
