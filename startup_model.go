package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/pitchtrace/internal/audio"
	"github.com/olivier-w/pitchtrace/internal/ui"
)

type startupPhase uint8

const (
	phaseBrowse startupPhase = iota
	phaseAcquiring
	phaseFailed
)

type startupResolvedMsg struct {
	model ui.Model
	err   error
}

type startupModel struct {
	open    openFunc
	browser ui.BrowserModel
	phase   startupPhase
	label   string
	err     error
	width   int
	height  int
	spinner spinner.Model
}

// newStartupModel starts in the browser when browse is set, otherwise it
// acquires the configured input straight away.
func newStartupModel(open openFunc, browse bool, dir, label string) startupModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	m := startupModel{
		open:    open,
		phase:   phaseAcquiring,
		label:   label,
		spinner: s,
	}
	if browse {
		m.phase = phaseBrowse
		m.browser = ui.NewBrowser(dir)
	}
	return m
}

func (m startupModel) Init() tea.Cmd {
	if m.phase == phaseBrowse {
		return tea.Batch(m.browser.Init(), m.spinner.Tick)
	}
	return tea.Batch(m.spinner.Tick, m.acquireCmd(""))
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.phase == phaseBrowse {
			var cmd tea.Cmd
			m.browser, cmd = m.browser.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.phase == phaseAcquiring {
			return m, cmd
		}
		return m, nil

	case ui.BrowserCancelledMsg:
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case ui.BrowserSelectedMsg:
		m.phase = phaseAcquiring
		m.label = msg.Path
		return m, tea.Batch(m.spinner.Tick, m.acquireCmd(msg.Path))

	case startupResolvedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = msg.err
			return m, nil
		}

		cmds := []tea.Cmd{msg.model.Init()}
		if m.width > 0 || m.height > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: w, Height: h}
			})
		}
		return msg.model, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.phase != phaseBrowse && key.Matches(msg, startupQuitKey) {
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}

	if m.phase == phaseBrowse {
		var cmd tea.Cmd
		m.browser, cmd = m.browser.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m startupModel) acquireCmd(path string) tea.Cmd {
	open := m.open
	return func() tea.Msg {
		model, err := open(path)
		return startupResolvedMsg{model: model, err: err}
	}
}

func (m startupModel) View() string {
	switch m.phase {
	case phaseBrowse:
		if err := m.browser.Error(); err != nil {
			return "\n  pitchtrace\n\n  " + startupErrorStyle.Render(err.Error()) + "\n"
		}
		return m.browser.View()
	case phaseFailed:
		return m.renderFailedView()
	}
	return m.renderAcquiringView()
}

func (m startupModel) renderAcquiringView() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(startupHeaderStyle.Render("pitchtrace"))
	b.WriteString("\n\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	label := "Opening audio input..."
	if m.label != "" {
		label = "Opening " + m.label + "..."
	}
	b.WriteString(startupStatusStyle.Render(label))
	b.WriteString("\n\n  ")
	b.WriteString(startupHelp())
	b.WriteString("\n")
	return b.String()
}

func (m startupModel) renderFailedView() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(startupHeaderStyle.Render("pitchtrace"))
	b.WriteString("\n\n")
	b.WriteString(indentBlock(m.renderError(), "  "))
	b.WriteString("\n\n  ")
	b.WriteString(startupHelp())
	b.WriteString("\n")
	return b.String()
}

// renderError shows acquisition failures as "audio unavailable: ..." and
// anything else as a plain error.
func (m startupModel) renderError() string {
	if m.err == nil {
		return ""
	}
	if errors.Is(m.err, audio.ErrAudioUnavailable) {
		return startupErrorStyle.Render(m.err.Error())
	}
	return startupErrorStyle.Render("error: " + m.err.Error())
}

func startupHelp() string {
	h := startupQuitKey.Help()
	return startupHelpStyle.Render(h.Key + " " + h.Desc)
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

var startupQuitKey = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

var (
	startupHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	startupStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	startupHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
	startupErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#A00000", Dark: "#FF8080"})
)
