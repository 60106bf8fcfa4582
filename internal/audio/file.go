package audio

import (
	"log/slog"
	"sync"
	"time"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	// Monitor plays the clip aloud and follows the playback position
	// instead of the wall clock.
	Monitor bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// File replays a decoded clip as if it were arriving live. The read position
// advances with the clock from the moment the file is opened; past the end
// the source is silent.
type File struct {
	clip    Clip
	start   time.Time
	now     func() time.Time
	monitor *monitor
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenFile decodes path and starts the clip. Open, decode and playback
// failures are reported as ErrAudioUnavailable.
func OpenFile(path string, opts FileOptions) (*File, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	clip, err := DecodeFile(path)
	if err != nil {
		return nil, unavailable("open "+path, err)
	}

	f := &File{clip: clip, now: now, logger: logger}
	if opts.Monitor {
		m, err := startMonitor(clip)
		if err != nil {
			return nil, unavailable("start playback", err)
		}
		f.monitor = m
	}
	f.start = now()

	logger.Info("file opened",
		"path", path,
		"sample_rate", clip.SampleRate,
		"duration", clip.Duration(),
		"monitor", opts.Monitor,
	)
	return f, nil
}

// SampleRate implements Source.
func (f *File) SampleRate() float64 { return float64(f.clip.SampleRate) }

// Duration returns the clip length.
func (f *File) Duration() time.Duration { return f.clip.Duration() }

// Position returns the current read position in samples.
func (f *File) Position() int {
	if f.monitor != nil {
		return f.monitor.position()
	}
	elapsed := f.now().Sub(f.start).Seconds()
	return int(max(elapsed, 0) * float64(f.clip.SampleRate))
}

// Elapsed returns the current read position as a duration.
func (f *File) Elapsed() time.Duration {
	secs := float64(min(f.Position(), len(f.clip.Samples))) / float64(f.clip.SampleRate)
	return time.Duration(secs * float64(time.Second))
}

// Latest implements Source.
func (f *File) Latest(dst []float64) int {
	pos := f.Position()
	if pos >= len(f.clip.Samples) {
		clear(dst)
		return 0
	}
	return fillTail(dst, f.clip.Samples[:pos])
}

// Close stops playback if the clip is being monitored.
func (f *File) Close() error {
	f.closeOnce.Do(func() {
		if f.monitor != nil {
			f.closeErr = f.monitor.close()
		}
	})
	return f.closeErr
}
