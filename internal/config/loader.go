package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path over the defaults and
// returns the validated result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. Unknown keys are rejected. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Pipeline
	p := cfg.Pipeline
	if p.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.tick_interval %v must be positive", p.TickInterval))
	}
	if p.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.window_size %d must be positive", p.WindowSize))
	}
	if p.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.capacity %d must be positive", p.Capacity))
	}
	if math.IsNaN(p.LoudnessGateDB) || math.IsInf(p.LoudnessGateDB, 0) {
		errs = append(errs, fmt.Errorf("pipeline.loudness_gate_db %v must be finite", p.LoudnessGateDB))
	}
	if !(p.ClarityGate >= 0 && p.ClarityGate <= 1) {
		errs = append(errs, fmt.Errorf("pipeline.clarity_gate %.2f is out of range [0, 1]", p.ClarityGate))
	}

	// Display
	d := cfg.Display
	if d.MarginTop < 0 || d.MarginBottom < 0 {
		errs = append(errs, fmt.Errorf("display margins %d/%d must not be negative", d.MarginTop, d.MarginBottom))
	}
	if d.VisiblePoints <= 0 {
		errs = append(errs, fmt.Errorf("display.visible_points %d must be positive", d.VisiblePoints))
	} else if d.VisiblePoints > p.Capacity && p.Capacity > 0 {
		errs = append(errs, fmt.Errorf("display.visible_points %d exceeds pipeline.capacity %d", d.VisiblePoints, p.Capacity))
	}
	if !(d.CursorFraction > 0 && d.CursorFraction <= 1) {
		errs = append(errs, fmt.Errorf("display.cursor_fraction %.2f is out of range (0, 1]", d.CursorFraction))
	}
	if d.RedrawInterval <= 0 {
		errs = append(errs, fmt.Errorf("display.redraw_interval %v must be positive", d.RedrawInterval))
	}

	// Input
	in := cfg.Input
	if !in.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("input.kind %q is invalid; valid values: mic, file, sine, sweep", in.Kind))
	}
	if in.Kind == InputFile && in.Path == "" {
		errs = append(errs, errors.New("input.path is required for file input"))
	}
	if in.Kind == InputSine && !(in.Frequency > 0) {
		errs = append(errs, fmt.Errorf("input.frequency %v must be positive for sine input", in.Frequency))
	}
	if in.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("input.sample_rate %d must be positive", in.SampleRate))
	}
	if in.Monitor && in.Kind != InputFile {
		errs = append(errs, fmt.Errorf("input.monitor only applies to file input, not %q", in.Kind))
	}

	// Log
	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}
