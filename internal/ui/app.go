package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/roomdeck/internal/config"
	"github.com/five82/roomdeck/internal/detail"
	"github.com/five82/roomdeck/internal/logging"
	"github.com/five82/roomdeck/internal/players"
	"github.com/five82/roomdeck/internal/prefs"
	"github.com/five82/roomdeck/internal/state"
	"github.com/five82/roomdeck/internal/supervisor"
)

var log = logging.Logger("ui")

// View represents the current active view.
type View int

const (
	ViewRoster View = iota
	ViewDetail
	ViewLogs
)

// Connectivity is the part of the supervisor the UI reads.
type Connectivity interface {
	Phase() supervisor.Phase
	SubscribePhase() (<-chan struct{}, func())
	Refresh() error
}

// DetailSource is the part of the detail poller the UI drives.
type DetailSource interface {
	Watch(ctx context.Context, name string)
	Unwatch()
	Samples() <-chan detail.Sample
	Current(s detail.Sample) bool
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Conn       Connectivity
	Detail     DetailSource
	Controller players.Controller
	Config     *config.Config
	ThemeName  string
	SortOrder  string
	PrefsPath  string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	conn       Connectivity
	detail     DetailSource
	controller players.Controller
	config     *config.Config
	prefsPath  string

	// Change feeds, subscribed once in New
	rosterCh <-chan struct{}
	phaseCh  <-chan struct{}
	cancels  []func()

	// UI state
	keys        keyMap
	help        help.Model
	theme       Theme
	sortOrder   string
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	now         time.Time

	// Data state
	snapshot state.Snapshot
	phase    supervisor.Phase

	// Roster state
	selected    string
	selectedRow int
	filtering   bool
	filterInput textinput.Model

	// Detail state
	watching       string
	sample         detail.Sample
	lastMetrics    *players.DetailMetrics
	detailViewport viewport.Model

	// Log state
	logViewport viewport.Model
	logState    logState

	// Transient action feedback
	flash   string
	flashAt time.Time
}

// New creates a new Bubble Tea model and subscribes to the store and
// supervisor change feeds.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := opts.Config
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	sortOrder := opts.SortOrder
	if sortOrder == "" {
		sortOrder = prefs.SortByName
	}

	fi := textinput.New()
	fi.Placeholder = "player name"
	fi.Prompt = "/"
	fi.CharLimit = 64

	m := Model{
		ctx:         ctx,
		store:       opts.Store,
		conn:        opts.Conn,
		detail:      opts.Detail,
		controller:  opts.Controller,
		config:      cfg,
		prefsPath:   opts.PrefsPath,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(themeName),
		sortOrder:   sortOrder,
		currentView: ViewRoster,
		filterInput: fi,
		logState:    logState{follow: true},
		now:         time.Now(),
	}

	if m.store != nil {
		ch, cancel := m.store.Subscribe()
		m.rosterCh = ch
		m.cancels = append(m.cancels, cancel)
		m.snapshot = m.store.Snapshot()
	}
	if m.conn != nil {
		ch, cancel := m.conn.SubscribePhase()
		m.phaseCh = ch
		m.cancels = append(m.cancels, cancel)
		m.phase = m.conn.Phase()
	}
	m.syncSelection()
	return m
}

// Close drops the change subscriptions and stops any detail loop.
func (m Model) Close() {
	for _, cancel := range m.cancels {
		cancel()
	}
	if m.detail != nil {
		m.detail.Unwatch()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(DefaultUIInterval),
	}
	if m.rosterCh != nil {
		cmds = append(cmds, waitForRoster(m.ctx, m.rosterCh))
	}
	if m.phaseCh != nil {
		cmds = append(cmds, waitForPhase(m.ctx, m.phaseCh))
	}
	if m.detail != nil {
		cmds = append(cmds, waitForSample(m.ctx, m.detail.Samples()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.updateDetailViewport()
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case rosterChangedMsg:
		if m.store != nil {
			m.snapshot = m.store.Snapshot()
		}
		m.syncSelection()
		m.updateDetailViewport()
		return m, waitForRoster(m.ctx, m.rosterCh)

	case phaseChangedMsg:
		if m.conn != nil {
			m.phase = m.conn.Phase()
		}
		return m, waitForPhase(m.ctx, m.phaseCh)

	case sampleMsg:
		m.handleSample(detail.Sample(msg))
		return m, waitForSample(m.ctx, m.detail.Samples())

	case actionMsg:
		return m.handleAction(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDetail:
		return m.renderDetail()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderRoster()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateDetailViewport()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.CycleSort):
		m.sortOrder = prefs.NextSort(m.sortOrder)
		m.savePrefs()
		m.syncSelection()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.conn != nil {
			if err := m.conn.Refresh(); err != nil {
				m.setFlash("refresh: " + err.Error())
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		m.leaveDetail()
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleRosterKey(msg)
	}
}

// handleTick refreshes relative timestamps, expires the flash line, and
// follows the log file while the log view is open.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.now = now
	if m.flash != "" && now.Sub(m.flashAt) > flashDuration {
		m.flash = ""
	}

	cmds := []tea.Cmd{tickCmd(DefaultUIInterval)}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, m.refreshLogs())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) setFlash(text string) {
	m.flash = text
	m.flashAt = m.now
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Sort: m.sortOrder}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		log.Warnf("save prefs: %v", err)
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Context = ctx
	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
