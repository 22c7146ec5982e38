package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roomdeck/internal/logtail"
)

// logState holds log view state.
type logState struct {
	entries []logtail.Entry
	follow  bool
	err     error
}

// refreshLogs reads the tail of the dashboard's own log file.
func (m Model) refreshLogs() tea.Cmd {
	if m.config == nil || m.config.LogFile == "" {
		return nil
	}
	return readLogsCmd(m.config.LogFile, LogBufferLimit)
}

func (m *Model) handleLogs(msg logsMsg) {
	if msg.err != nil {
		m.logState.err = msg.err
		return
	}
	m.logState.err = nil
	m.logState.entries = msg.entries
	m.updateLogViewport()
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.currentView = ViewRoster
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, m.refreshLogs()
		}
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	}
	return m, nil
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// Box height = m.height - 3 (header, cmdbar, status line); inner = box - 2.
	w, h := max(m.width-4, 10), max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	box := m.renderTitledBox("Log "+truncate(m.config.LogFile, max(m.width-12, 10)), m.logViewport.View(), m.width, max(m.height-3, 3), true)
	return box + "\n" + m.renderLogStatus()
}

func (m Model) renderLogStatus() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	follow := bg.text("paused", styles.WarningText)
	if m.logState.follow {
		follow = bg.text("following", styles.SuccessText)
	}
	parts := []string{
		follow,
		bg.text(fmt.Sprintf("%d lines", len(m.logState.entries)), styles.MutedText),
	}
	if m.logState.err != nil {
		parts = append(parts, bg.text(truncate(m.logState.err.Error(), 60), styles.DangerText))
	}
	return styles.Footer.Width(m.width).Render(bg.bar(parts))
}

func (m Model) renderLogContent() string {
	if len(m.logState.entries) == 0 {
		return m.theme.Styles().FaintText.Render("No log lines yet")
	}
	styles := m.theme.Styles()
	bg := newSurface(m.theme.FocusBg)
	lines := make([]string, 0, len(m.logState.entries))
	for _, e := range m.logState.entries {
		lines = append(lines, m.colorizeEntry(e, styles, bg))
	}
	return strings.Join(lines, "\n")
}

// colorizeEntry styles a parsed log line. Unparsed lines are shown as-is.
func (m Model) colorizeEntry(e logtail.Entry, styles Styles, bg surface) string {
	if e.Level == "" {
		return bg.text(e.Raw, styles.Text)
	}
	cells := make([]string, 0, 5)
	if ts := shortTime(e.Time); ts != "" {
		cells = append(cells, bg.text(ts, styles.FaintText))
	}
	cells = append(cells,
		bg.text(padRight(e.Level, 5), levelStyle(e.Level, styles).Bold(true)),
		bg.text(strings.TrimPrefix(e.Logger, "roomdeck/"), styles.AccentText),
		bg.text(e.Message, styles.Text),
	)
	if e.Fields != "" {
		cells = append(cells, bg.text(e.Fields, styles.FaintText))
	}
	return bg.columns(cells...)
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// shortTime trims an ISO timestamp down to the clock part.
func shortTime(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+9 {
		return ts[i+1 : i+9]
	}
	return ts
}
