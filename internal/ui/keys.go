package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	CycleSort  key.Binding
	Refresh    key.Binding
	Logs       key.Binding
	Back       key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Open   key.Binding
	Filter key.Binding

	// Player actions
	VolumeUp   key.Binding
	VolumeDown key.Binding
	DelayUp    key.Binding
	DelayDown  key.Binding
	Start      key.Binding
	Stop       key.Binding

	// Logs
	ToggleFollow key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Sort"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),
		Back: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/esc", "Back"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Details"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Filter"),
		),

		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Volume down"),
		),
		DelayUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Delay +10ms"),
		),
		DelayDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Delay -10ms"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Start"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Stop"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Follow"),
		),
	}
}

// ShortHelp returns the bindings shown in the command bar for a view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.VolumeUp, k.VolumeDown, k.Start, k.Stop, k.Filter, k.Logs, k.Help}
}

// shortHelpFor narrows the command bar to what the view handles.
func (k keyMap) shortHelpFor(v View) []key.Binding {
	switch v {
	case ViewDetail:
		return []key.Binding{k.VolumeUp, k.VolumeDown, k.DelayUp, k.DelayDown, k.Start, k.Stop, k.Back, k.Help}
	case ViewLogs:
		return []key.Binding{k.ToggleFollow, k.Up, k.Down, k.Back, k.Help}
	default:
		return k.ShortHelp()
	}
}

// FullHelp returns all bindings grouped for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.Open, k.Filter, k.Back},
		{k.VolumeUp, k.VolumeDown, k.DelayUp, k.DelayDown, k.Start, k.Stop},
		{k.Refresh, k.Logs, k.ToggleFollow, k.CycleSort, k.CycleTheme, k.Help, k.Quit},
	}
}
