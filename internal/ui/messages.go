package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type redrawMsg time.Time

// BrowserSelectedMsg reports the file picked in the browser.
type BrowserSelectedMsg struct {
	Path string
}

// BrowserCancelledMsg reports that the browser was closed without a pick.
type BrowserCancelledMsg struct{}

func redrawCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return redrawMsg(t)
	})
}
