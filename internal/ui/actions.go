package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/roomdeck/internal/players"
)

// Step sizes for the adjust keys.
const (
	volumeStep = 5
	delayStep  = 10
)

// handlePlayerAction maps an action key onto a controller call for the named
// player. ok is false when msg is not an action key.
func (m Model) handlePlayerAction(msg tea.KeyMsg, name string) (tea.Model, tea.Cmd, bool) {
	if name == "" || m.controller == nil {
		return m, nil, false
	}
	p, known := m.snapshot.Players[name]
	if !known {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.volumeCmd(name, players.ClampVolume(p.Volume+volumeStep)), true
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.volumeCmd(name, players.ClampVolume(p.Volume-volumeStep)), true
	case key.Matches(msg, m.keys.DelayUp):
		return m, m.delayCmd(name, players.ClampDelay(p.DelayMS+delayStep)), true
	case key.Matches(msg, m.keys.DelayDown):
		return m, m.delayCmd(name, players.ClampDelay(p.DelayMS-delayStep)), true
	case key.Matches(msg, m.keys.Start):
		return m, m.runStateCmd(name, actionStart), true
	case key.Matches(msg, m.keys.Stop):
		return m, m.runStateCmd(name, actionStop), true
	}
	return m, nil, false
}

// handleAction applies the result of a player action. Volume and delay
// successes become local hints so the row updates before the next roster
// arrives; start and stop ask the supervisor for a fresh roster instead.
func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Warnw("player action failed", "player", msg.player, "action", msg.kind.String(), "error", msg.err)
		m.setFlash(fmt.Sprintf("%s %s: %v", msg.kind, msg.player, msg.err))
		return m, nil
	}

	switch msg.kind {
	case actionVolume:
		if m.store != nil {
			m.store.ApplyLocalVolumeHint(msg.player, msg.value)
		}
		m.setFlash(fmt.Sprintf("%s volume %d", msg.player, msg.value))
	case actionDelay:
		if m.store != nil {
			m.store.ApplyLocalDelayHint(msg.player, msg.value)
		}
		m.setFlash(fmt.Sprintf("%s delay %s", msg.player, formatDelay(msg.value)))
	case actionStart, actionStop:
		if m.conn != nil {
			if err := m.conn.Refresh(); err != nil {
				log.Debugf("refresh after %s: %v", msg.kind, err)
			}
		}
		m.setFlash(fmt.Sprintf("%s %s requested", msg.player, msg.kind))
	}
	return m, nil
}
