package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roomdeck/internal/players"
	"github.com/five82/roomdeck/internal/prefs"
)

// Roster table column widths. Device takes whatever is left.
const (
	colName   = 18
	colState  = 12
	colVolume = 6
	colDelay  = 9
	colSync   = 6
	colMode   = 11
)

// phaseRank orders players for the state sort (lower = shown first).
func phaseRank(p players.Phase) int {
	switch p.Normalize() {
	case players.PhasePlaying:
		return 0
	case players.PhaseConnected:
		return 1
	case players.PhaseBuffering:
		return 2
	case players.PhaseStarting:
		return 3
	case players.PhaseConnecting:
		return 4
	case players.PhaseCreated:
		return 5
	case players.PhaseError:
		return 6
	case players.PhaseStopped:
		return 7
	default:
		return 8
	}
}

// sortedNames returns roster names in the requested order. Ties always fall
// back to the name so the order is stable across renders.
func sortedNames(r players.Roster, order string) []string {
	names := r.Names()
	if order == prefs.SortByState {
		sort.SliceStable(names, func(i, j int) bool {
			return phaseRank(r[names[i]].State) < phaseRank(r[names[j]].State)
		})
	}
	return names
}

// visibleNames applies sort order and the name filter.
func (m Model) visibleNames() []string {
	names := sortedNames(m.snapshot.Players, m.sortOrder)
	query := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if query == "" {
		return names
	}
	out := names[:0]
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), query) {
			out = append(out, n)
		}
	}
	return out
}

// syncSelection keeps the cursor on the same player across roster updates
// and re-sorts. When that player is gone the cursor stays on the same row.
func (m *Model) syncSelection() {
	names := m.visibleNames()
	if len(names) == 0 {
		m.selected = ""
		m.selectedRow = 0
		return
	}
	for i, n := range names {
		if n == m.selected {
			m.selectedRow = i
			return
		}
	}
	row := min(max(m.selectedRow, 0), len(names)-1)
	m.selectedRow = row
	m.selected = names[row]
}

func (m *Model) selectRow(row int) {
	names := m.visibleNames()
	if len(names) == 0 {
		return
	}
	row = min(max(row, 0), len(names)-1)
	m.selectedRow = row
	m.selected = names[row]
}

// handleRosterKey processes keyboard input for the roster view.
func (m Model) handleRosterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.selectRow(m.selectedRow + 1)
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.selectRow(m.selectedRow - 1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.selectRow(0)
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.selectRow(len(m.visibleNames()) - 1)
		return m, nil
	case key.Matches(msg, m.keys.Open):
		m.openDetail(m.selected)
		return m, nil
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filterInput.Focus()
	case msg.String() == "esc" && m.filterInput.Value() != "":
		m.filterInput.SetValue("")
		m.syncSelection()
		return m, nil
	}

	if next, cmd, ok := m.handlePlayerAction(msg, m.selected); ok {
		return next, cmd
	}
	return m, nil
}

// handleFilterKey feeds the name filter while it has focus.
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.syncSelection()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.syncSelection()
	return m, cmd
}

// renderRoster renders the player table inside a titled box.
func (m Model) renderRoster() string {
	height := max(m.height-2, 3)
	names := m.visibleNames()

	title := fmt.Sprintf("Players (%d)", len(m.snapshot.Players))
	if q := m.filterInput.Value(); q != "" || m.filtering {
		title = fmt.Sprintf("Players (%d/%d)", len(names), len(m.snapshot.Players))
	}

	innerWidth := max(m.width-2, 10)
	var lines []string
	if m.filtering || m.filterInput.Value() != "" {
		lines = append(lines, m.filterInput.View())
	}

	switch {
	case !m.snapshot.HasRoster:
		lines = append(lines, m.theme.Styles().MutedText.Render("Waiting for the first roster..."))
	case len(names) == 0:
		lines = append(lines, m.theme.Styles().MutedText.Render("No players"))
	default:
		lines = append(lines, m.renderRosterHeader(innerWidth))
		visible := max(height-2-len(lines), 1)
		offset := 0
		if m.selectedRow >= visible {
			offset = m.selectedRow - visible + 1
		}
		end := min(offset+visible, len(names))
		for i := offset; i < end; i++ {
			lines = append(lines, m.renderRosterRow(m.snapshot.Players[names[i]], innerWidth, i == m.selectedRow))
		}
	}

	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, m.currentView == ViewRoster)
}

func (m Model) renderRosterHeader(width int) string {
	styles := m.theme.Styles()
	text := cell("NAME", colName) + " " +
		cell("STATE", colState) + " " +
		cell("VOL", colVolume) + " " +
		cell("DELAY", colDelay) + " " +
		cell("SYNC", colSync) + " " +
		cell("MODE", colMode) + " " +
		"DEVICE"
	return styles.FaintText.Bold(true).Render(truncate(text, width))
}

// renderRosterRow renders one player. Selected rows use SelectionText for
// every cell so the highlight keeps its contrast.
func (m Model) renderRosterRow(p players.PlayerState, width int, selected bool) string {
	bgColor := m.theme.SurfaceAlt
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := newSurface(bgColor)
	styles := m.theme.Styles()

	var nameStyle, stateStyle, textStyle, mutedStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		nameStyle, stateStyle, textStyle, mutedStyle = sel.Bold(true), sel, sel, sel
	} else {
		nameStyle = styles.Text.Bold(true)
		stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForPhase(p.State)))
		textStyle = styles.Text
		mutedStyle = styles.MutedText
	}

	sync := "no"
	if p.ClockSynced {
		sync = "yes"
	}
	volume := fmt.Sprintf("%d%%", p.Volume)
	if p.Muted {
		volume = "muted"
	}
	device := p.Device
	if p.ErrorMessage != "" && p.State.Normalize() == players.PhaseError {
		device = p.ErrorMessage
	}
	deviceWidth := max(width-colName-colState-colVolume-colDelay-colSync-colMode-6, 4)

	row := bg.columns(
		bg.text(cell(p.Name, colName), nameStyle),
		bg.text(cell(string(p.State), colState), stateStyle),
		bg.text(cell(volume, colVolume), textStyle),
		bg.text(cell(formatDelay(p.DelayMS), colDelay), textStyle),
		bg.text(cell(sync, colSync), mutedStyle),
		bg.text(cell(p.Mode(), colMode), mutedStyle),
		bg.text(truncate(device, deviceWidth), mutedStyle),
	)
	return bg.fill(row, width)
}

// colorForPhase returns the theme color for a player phase.
func (m Model) colorForPhase(p players.Phase) string {
	if color, ok := m.theme.StatusColors[string(p.Normalize())]; ok {
		return color
	}
	return m.theme.Text
}
