package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/roomdeck/internal/detail"
	"github.com/five82/roomdeck/internal/logtail"
)

// Message types
type tickMsg time.Time

type rosterChangedMsg struct{}

type phaseChangedMsg struct{}

type sampleMsg detail.Sample

type actionKind int

const (
	actionVolume actionKind = iota
	actionDelay
	actionStart
	actionStop
)

func (k actionKind) String() string {
	switch k {
	case actionVolume:
		return "volume"
	case actionDelay:
		return "delay"
	case actionStart:
		return "start"
	default:
		return "stop"
	}
}

// actionMsg reports a finished player action. value is what was actually
// sent after clamping.
type actionMsg struct {
	player string
	kind   actionKind
	value  int
	err    error
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForRoster blocks until the store signals a change. A closed feed or a
// cancelled context ends the wait with no message.
func waitForRoster(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if !wake(ctx, ch) {
			return nil
		}
		return rosterChangedMsg{}
	}
}

func waitForPhase(ctx context.Context, ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if !wake(ctx, ch) {
			return nil
		}
		return phaseChangedMsg{}
	}
}

func waitForSample(ctx context.Context, ch <-chan detail.Sample) tea.Cmd {
	return func() tea.Msg {
		select {
		case s, ok := <-ch:
			if !ok {
				return nil
			}
			return sampleMsg(s)
		case <-ctx.Done():
			return nil
		}
	}
}

func wake(ctx context.Context, ch <-chan struct{}) bool {
	select {
	case _, ok := <-ch:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (m Model) volumeCmd(name string, volume int) tea.Cmd {
	ctl, parent := m.controller, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		sent, err := ctl.SetVolume(ctx, name, volume)
		return actionMsg{player: name, kind: actionVolume, value: sent, err: err}
	}
}

func (m Model) delayCmd(name string, delayMS int) tea.Cmd {
	ctl, parent := m.controller, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		sent, err := ctl.SetOffset(ctx, name, delayMS)
		return actionMsg{player: name, kind: actionDelay, value: sent, err: err}
	}
}

func (m Model) runStateCmd(name string, kind actionKind) tea.Cmd {
	ctl, parent := m.controller, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, ActionTimeout)
		defer cancel()
		var err error
		if kind == actionStart {
			err = ctl.StartPlayer(ctx, name)
		} else {
			err = ctl.StopPlayer(ctx, name)
		}
		return actionMsg{player: name, kind: kind, err: err}
	}
}

func readLogsCmd(path string, limit int) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, limit)
		if err != nil {
			return logsMsg{err: err}
		}
		return logsMsg{entries: logtail.ParseLines(lines)}
	}
}
