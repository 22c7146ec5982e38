package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roomdeck/internal/prefs"
	"github.com/five82/roomdeck/internal/supervisor"
)

// renderHeader renders the status bar: connectivity badge, roster counts,
// freshness, and any sustained-failure notice.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{
		bg.text("roomdeck", styles.Logo),
		m.renderBadge(),
	}

	if m.snapshot.HasRoster {
		total, active := len(m.snapshot.Players), 0
		for _, p := range m.snapshot.Players {
			if p.State.Active() {
				active++
			}
		}
		parts = append(parts,
			bg.stat("Players", fmt.Sprintf("%d", total), styles.MutedText, styles.Text),
			bg.stat("Active", fmt.Sprintf("%d", active), styles.MutedText, styles.SuccessText),
		)
		if ago := humanizeAgo(m.snapshot.LastUpdated, m.now); ago != "" && !compact {
			parts = append(parts, bg.text(m.snapshot.LastUpdated.Format("15:04:05")+" ("+ago+")", styles.MutedText))
		}
	}

	if notice := m.failureNotice(compact); notice != "" {
		parts = append(parts,
			bg.text("OFFLINE "+notice, styles.DangerText))
	}

	if m.flash != "" {
		parts = append(parts,
			bg.text("!", styles.WarningText.Bold(true))+bg.gap(1)+
				bg.text(truncate(m.flash, 60), styles.WarningText))
	}

	return styles.Header.Width(m.width).Render(bg.bar(parts))
}

// failureNotice describes a failure run once it has lasted long enough for
// the operator to care. Single failed ticks stay silent.
func (m Model) failureNotice(compact bool) string {
	threshold := 0
	if m.config != nil {
		threshold = m.config.NoticeAfterFailures
	}
	if !m.snapshot.NeedsNotice(threshold) {
		return ""
	}
	text := fmt.Sprintf("%d failed refreshes", m.snapshot.ConsecutiveFailures)
	if m.snapshot.LastError != nil && !compact {
		text += ": " + truncate(m.snapshot.LastError.Error(), 60)
	}
	return text
}

// badgeColor maps a connectivity phase to a theme color.
func (m Model) badgeColor(p supervisor.Phase) string {
	switch p {
	case supervisor.PhaseLiveUpdates:
		return m.theme.Success
	case supervisor.PhasePolling:
		return m.theme.Info
	case supervisor.PhaseReconnecting:
		return m.theme.Warning
	case supervisor.PhaseDisconnected:
		return m.theme.Danger
	default:
		return m.theme.Muted
	}
}

// renderBadge renders the connectivity phase as a colored pill.
func (m Model) renderBadge() string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.badgeColor(m.phase))).
		Bold(true).
		Padding(0, 1).
		Render(m.phase.Label())
}

// renderCommandBar renders the command hints bar for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newSurface(m.theme.Surface)

	bindings := m.keys.shortHelpFor(m.currentView)
	segments := make([]string, 0, len(bindings)+2)
	for _, b := range bindings {
		h := b.Help()
		segments = append(segments, bg.hint(h.Key, h.Desc, styles.AccentText, styles.MutedText))
	}

	if m.currentView == ViewRoster {
		sortLabel := "Name"
		if m.sortOrder != "" && m.sortOrder != prefs.SortByName {
			sortLabel = strings.ToUpper(m.sortOrder[:1]) + m.sortOrder[1:]
		}
		segments = append(segments, bg.hint("o", sortLabel, styles.AccentText, styles.FaintText))
	}
	segments = append(segments, bg.hint("T", m.theme.Name, styles.AccentText, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.bar(segments))
}
