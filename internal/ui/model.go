package ui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/pitchtrace/internal/pipeline"
	"github.com/olivier-w/pitchtrace/internal/visualizer"
)

// Pipeline is the part of *pipeline.Pipeline the live view drives.
type Pipeline interface {
	Snapshot() pipeline.Snapshot
	Stop() error
}

// ClipProgress reports how far a file input has been read.
type ClipProgress interface {
	Elapsed() time.Duration
	Duration() time.Duration
}

// Options configures the live view.
type Options struct {
	Title    string
	Subtitle string
	Trace    visualizer.TraceOptions
	GateDB   float64
	Redraw   time.Duration
	Clip     ClipProgress // nil for live inputs
	Logger   *slog.Logger
}

// Model is the Bubbletea model for the live pitch view. It never touches the
// audio path; every redraw reads the pipeline's latest snapshot.
type Model struct {
	pipe   Pipeline
	clip   ClipProgress
	logger *slog.Logger
	redraw time.Duration

	title    string
	subtitle string

	trace *visualizer.Trace
	meter *visualizer.LoudnessMeter

	snap     pipeline.Snapshot
	frozen   bool
	width    int
	height   int
	quitting bool

	keys keyMap
	help help.Model
}

// New creates the live view for a running pipeline.
func New(p Pipeline, opts Options) Model {
	if opts.Redraw <= 0 {
		opts.Redraw = 33 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	fps := int(time.Second / opts.Redraw)

	h := help.New()
	h.Styles.ShortKey = helpStyle
	h.Styles.ShortDesc = helpStyle
	h.Styles.FullKey = helpStyle
	h.Styles.FullDesc = helpStyle

	m := Model{
		pipe:     p,
		clip:     opts.Clip,
		logger:   opts.Logger,
		redraw:   opts.Redraw,
		title:    opts.Title,
		subtitle: opts.Subtitle,
		trace:    visualizer.NewTrace(opts.Trace),
		meter:    visualizer.NewLoudnessMeter(opts.GateDB, opts.Trace.Color, fps),
		snap:     p.Snapshot(),
		keys:     defaultKeyMap(),
		help:     h,
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(redrawCmd(m.redraw), tea.SetWindowTitle(windowTitle(m.title)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			if err := m.pipe.Stop(); err != nil {
				m.logger.Warn("pipeline stop failed", "err", err)
			}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		case key.Matches(msg, m.keys.Freeze):
			m.frozen = !m.frozen
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.refresh()
		return m, nil

	case redrawMsg:
		if m.quitting {
			return m, nil
		}
		if !m.frozen {
			m.snap = m.pipe.Snapshot()
		}
		m.refresh()
		return m, redrawCmd(m.redraw)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.refresh()
		return m, nil
	}

	return m, nil
}

// refresh redraws the panels from the held snapshot.
func (m *Model) refresh() {
	w, _ := m.size()
	in := visualizer.Input{Samples: m.snap.Window, Decibel: m.snap.Decibel}
	m.trace.Update(in, w, m.traceHeight())
	m.meter.Update(in, w, 1)
}

func (m Model) size() (int, int) {
	w, h := m.width, m.height
	if w < 30 {
		w = 80
	}
	if h < 12 {
		h = 24
	}
	return w, h
}

// traceHeight gives the plot whatever rows the text lines leave over.
func (m Model) traceHeight() int {
	_, h := m.size()
	fixed := 8
	if m.subtitle != "" {
		fixed++
	}
	if m.clip != nil {
		fixed++
	}
	return max(h-fixed, 3)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	w, _ := m.size()

	header := headerStyle.Render("pitchtrace")
	if m.title != "" {
		header += "  " + titleStyle.Render(m.title)
	}

	stats := renderStats(m.snap)
	if m.frozen {
		stats += "  " + statusStyle.Render("❚❚ frozen")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + header + "\n")
	if m.subtitle != "" {
		b.WriteString("  " + labelStyle.Render(m.subtitle) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + stats + "\n")
	b.WriteString("\n")
	b.WriteString(m.trace.View() + "\n")
	b.WriteString(m.meter.View() + "\n")
	if m.clip != nil {
		b.WriteString("  " + renderClipProgress(m.clip.Elapsed(), m.clip.Duration(), w-4) + "\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + m.help.View(m.keys) + "\n")
	return b.String()
}

func windowTitle(title string) string {
	if title == "" {
		return "pitchtrace"
	}
	return title + " — pitchtrace"
}
