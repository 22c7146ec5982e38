package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roomdeck/internal/detail"
)

const detailLabelWidth = 16

// openDetail switches to the detail view and starts sampling the player.
func (m *Model) openDetail(name string) {
	if name == "" {
		return
	}
	m.currentView = ViewDetail
	m.watching = name
	m.sample = detail.Sample{}
	m.lastMetrics = nil
	if m.detail != nil {
		m.detail.Watch(m.ctx, name)
	}
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
}

// leaveDetail stops sampling. It is a no-op outside the detail view.
func (m *Model) leaveDetail() {
	if m.watching == "" {
		return
	}
	if m.detail != nil {
		m.detail.Unwatch()
	}
	m.watching = ""
	m.sample = detail.Sample{}
	m.lastMetrics = nil
}

// handleSample keeps the latest sample for the watched player. Anything
// else is a stale delivery from a loop that was just replaced.
func (m *Model) handleSample(s detail.Sample) {
	if s.Player != m.watching || m.detail == nil || !m.detail.Current(s) {
		return
	}
	m.sample = s
	if s.Metrics != nil {
		m.lastMetrics = s.Metrics
	}
	m.updateDetailViewport()
}

// handleDetailKey processes keyboard input for the detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.leaveDetail()
		m.currentView = ViewRoster
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
		return m, nil
	}

	if next, cmd, ok := m.handlePlayerAction(msg, m.watching); ok {
		return next, cmd
	}
	return m, nil
}

// updateDetailViewport re-renders detail content into the viewport.
func (m *Model) updateDetailViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// Box height = m.height - 2 (header, cmdbar); inner = box - 2 borders.
	w, h := max(m.width-4, 10), max(m.height-4, 1)
	if m.detailViewport.Width == 0 {
		m.detailViewport = viewport.New(w, h)
	}
	m.detailViewport.Width = w
	m.detailViewport.Height = h
	m.detailViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.detailViewport.SetContent(m.detailContent())
}

// renderDetail renders the detail view.
func (m Model) renderDetail() string {
	title := "Player " + m.watching
	return m.renderTitledBox(title, m.detailViewport.View(), m.width, max(m.height-2, 3), true)
}

// detailContent builds the detail body: the roster entry first, then the
// most recent metrics sample.
func (m Model) detailContent() string {
	styles := m.theme.Styles()
	bg := newSurface(m.theme.FocusBg)

	var b strings.Builder
	line := func(k, v string) {
		b.WriteString(bg.field(k, bg.text(v, styles.Text), styles.MutedText) + "\n")
	}
	section := func(title string) {
		b.WriteString("\n" + bg.text(title, styles.AccentText.Bold(true)) + "\n")
	}

	p, ok := m.snapshot.Players[m.watching]
	if !ok {
		b.WriteString(bg.text("Player is no longer in the roster", styles.WarningText) + "\n")
	} else {
		state := string(p.State)
		b.WriteString(bg.field("State", bg.text(state, styles.StatusStyle(state)), styles.MutedText) + "\n")
		if p.ErrorMessage != "" {
			b.WriteString(bg.field("Error", bg.text(p.ErrorMessage, styles.DangerText), styles.MutedText) + "\n")
		}
		line("Device", p.Device)
		line("Mode", p.Mode())
		if p.Provider != "" {
			line("Provider", p.Provider)
		}
		vol := fmt.Sprintf("%s %d%%", meter(float64(p.Volume), 20), p.Volume)
		if p.Muted {
			vol += " (muted)"
		}
		line("Volume", vol)
		line("Delay", formatDelay(p.DelayMS))
		line("Clock synced", yesNo(p.ClockSynced))
		if p.ConnectedAt != nil {
			line("Connected", humanizeAgo(*p.ConnectedAt, m.now))
		}
		if rm := p.Metrics; rm != nil {
			line("Buffer", fmt.Sprintf("%s %.0f%%", meter(rm.BufferPercent(), 20), rm.BufferPercent()))
			line("Samples played", fmt.Sprintf("%d", rm.SamplesPlayed))
			line("Under/overruns", fmt.Sprintf("%d / %d", rm.Underruns, rm.Overruns))
		}
	}

	section("Live metrics")
	switch {
	case m.sample.At.IsZero():
		b.WriteString(bg.text("Waiting for metrics...", styles.FaintText) + "\n")
		return b.String()
	case m.sample.Degraded():
		msg := fmt.Sprintf("Metrics unavailable (%d failures): %v", m.sample.Failures, m.sample.Err)
		b.WriteString(bg.text(msg, styles.WarningText) + "\n")
	}

	d := m.lastMetrics
	if d == nil {
		return b.String()
	}
	line("Sync error", fmt.Sprintf("%+.2f ms", d.SyncErrorMS))
	line("Correction", d.CorrectionMode.Label())
	line("Playback", yesNo(d.PlaybackActive))
	line("Format", fmt.Sprintf("%s → %s", d.InputFormat, d.OutputFormat))
	bufPct := 0.0
	if d.Buffer.Capacity > 0 {
		bufPct = float64(d.Buffer.Level) / float64(d.Buffer.Capacity) * 100
	}
	line("Buffer", fmt.Sprintf("%s %d/%d", meter(bufPct, 20), d.Buffer.Level, d.Buffer.Capacity))

	section("Clock")
	line("Offset", fmt.Sprintf("%+.3f ms ± %.3f", d.Clock.OffsetMS, d.Clock.UncertaintyMS))
	line("Drift", fmt.Sprintf("%+.2f ppm", d.Clock.DriftPPM))
	line("Reliable", fmt.Sprintf("%s (%d measurements)", yesNo(d.Clock.Reliable), d.Clock.Measurements))

	section("Throughput")
	line("Read/output", fmt.Sprintf("%d / %d", d.Throughput.SamplesRead, d.Throughput.SamplesOutput))
	line("Dropped/inserted", fmt.Sprintf("%d / %d", d.Throughput.FramesDropped, d.Throughput.FramesInserted))

	if d.Resampler.InputRate > 0 {
		section("Resampler")
		line("Rate", fmt.Sprintf("%d → %d Hz", d.Resampler.InputRate, d.Resampler.OutputRate))
		line("Ratio", fmt.Sprintf("%.6f", d.Resampler.Ratio))
		if d.Resampler.Quality != "" {
			line("Quality", d.Resampler.Quality)
		}
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
