// Package config holds the tunable parameters of pitchtrace and loads them
// from YAML.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level. An empty level is Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InputKind selects the audio source.
type InputKind string

const (
	InputMic   InputKind = "mic"
	InputFile  InputKind = "file"
	InputSine  InputKind = "sine"
	InputSweep InputKind = "sweep"
)

// IsValid reports whether k is a recognised input kind.
func (k InputKind) IsValid() bool {
	switch k {
	case InputMic, InputFile, InputSine, InputSweep:
		return true
	}
	return false
}

// Config is the root configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Display  DisplayConfig  `yaml:"display"`
	Input    InputConfig    `yaml:"input"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PipelineConfig tunes the extraction loop.
type PipelineConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	WindowSize     int           `yaml:"window_size"`
	LoudnessGateDB float64       `yaml:"loudness_gate_db"`
	ClarityGate    float64       `yaml:"clarity_gate"`
	Capacity       int           `yaml:"capacity"`
}

// DisplayConfig tunes the terminal view. Margins are in braille dots
// (four per row).
type DisplayConfig struct {
	MarginTop      int           `yaml:"margin_top"`
	MarginBottom   int           `yaml:"margin_bottom"`
	VisiblePoints  int           `yaml:"visible_points"`
	CursorFraction float64       `yaml:"cursor_fraction"`
	RedrawInterval time.Duration `yaml:"redraw_interval"`
	Color          bool          `yaml:"color"`
}

// InputConfig selects and parameterizes the audio source.
type InputConfig struct {
	Kind       InputKind `yaml:"kind"`
	Path       string    `yaml:"path"`
	Frequency  float64   `yaml:"frequency"` // sine only
	SampleRate int       `yaml:"sample_rate"`
	Monitor    bool      `yaml:"monitor"` // file only
}

// LogConfig controls logging. Without a file, logs are discarded because the
// terminal belongs to the UI.
type LogConfig struct {
	Level LogLevel `yaml:"level"`
	File  string   `yaml:"file"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			TickInterval:   50 * time.Millisecond,
			WindowSize:     2048,
			LoudnessGateDB: -40,
			ClarityGate:    0.9,
			Capacity:       200,
		},
		Display: DisplayConfig{
			MarginTop:      4,
			MarginBottom:   4,
			VisiblePoints:  100,
			CursorFraction: 1.0 / 3.0,
			RedrawInterval: 33 * time.Millisecond,
			Color:          true,
		},
		Input: InputConfig{
			Kind:       InputMic,
			Frequency:  220,
			SampleRate: 44100,
		},
		Log: LogConfig{
			Level: LogInfo,
		},
	}
}
