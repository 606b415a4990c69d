package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/deckhand/internal/git"
	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/logtail"
	"github.com/five82/deckhand/internal/prefs"
	"github.com/five82/deckhand/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewContainers View = iota
	ViewLogs
	ViewChanges
	ViewDiff
)

var viewOrder = []View{ViewContainers, ViewLogs, ViewChanges, ViewDiff}

func (v View) String() string {
	switch v {
	case ViewLogs:
		return "Logs"
	case ViewChanges:
		return "Changes"
	case ViewDiff:
		return "Diff"
	default:
		return "Containers"
	}
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	Logs    logtail.Fetcher
	Git     git.DiffFetcher
	RepoDir string
	// PollTick is how often the container snapshot is re-read from Store.
	PollTick time.Duration
	// LogPoll is the delay between log fetches while the log view is shown.
	LogPoll   time.Duration
	Window    int
	ThemeName string
	Follow    bool
	PrefsPath string
	// Target opens the log view for this container on start.
	Target string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	logs      logtail.Fetcher
	git       git.DiffFetcher
	repoDir   string
	prefsPath string
	pollTick  time.Duration
	logPoll   time.Duration
	window    int
	follow    bool // default follow state for newly opened logs
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Containers state
	selectedRow int

	// Log state
	logViewport viewport.Model
	logState    logState

	// Changes state
	changes changesState

	// Diff state
	diffViewport viewport.Model
	diffState    diffState

	pendingTarget string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	logPoll := opts.LogPoll
	if logPoll <= 0 {
		logPoll = defaultLogPoll
	}

	window := opts.Window
	if window <= 0 {
		window = logtail.DefaultWindow
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Default().Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:           ctx,
		store:         opts.Store,
		logs:          opts.Logs,
		git:           opts.Git,
		repoDir:       opts.RepoDir,
		prefsPath:     prefsPath,
		pollTick:      pollTick,
		logPoll:       logPoll,
		window:        window,
		follow:        opts.Follow,
		keys:          DefaultKeyMap(),
		theme:         GetTheme(themeName),
		currentView:   ViewContainers,
		pendingTarget: strings.TrimSpace(opts.Target),
	}
	m.initLogState()
	m.initDiffState()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
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
		first := !m.ready
		m.ready = true
		m.resizeViewports()
		m.updateLogViewport()
		m.updateDiffViewport()
		if first && m.pendingTarget != "" {
			target := m.pendingTarget
			m.pendingTarget = ""
			cmd := m.openLogs(target, target)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		return m, nil

	case logTickMsg:
		cmd := m.handleLogTick(msg)
		return m, cmd

	case logFetchedMsg:
		cmd := m.handleLogFetched(msg)
		return m, cmd

	case changesLoadedMsg:
		m.handleChangesLoaded(msg)
		return m, nil

	case diffLoadedMsg:
		m.handleDiffLoaded(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle help overlay
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	// The search prompt swallows everything, including global keys.
	if m.currentView == ViewLogs && m.logState.searching {
		cmd := m.handleLogSearchInput(msg)
		return m, cmd
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
		m.logState.contentKey = 0
		m.updateLogViewport()
		m.updateDiffViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		cmd := m.setView(m.cycleView(1))
		return m, cmd

	case key.Matches(msg, m.keys.ShiftTab):
		cmd := m.setView(m.cycleView(-1))
		return m, cmd

	case key.Matches(msg, m.keys.ViewContainers):
		cmd := m.setView(ViewContainers)
		return m, cmd

	case key.Matches(msg, m.keys.ViewLogs):
		cmd := m.setView(ViewLogs)
		return m, cmd

	case key.Matches(msg, m.keys.ViewChanges):
		cmd := m.setView(ViewChanges)
		return m, cmd

	case key.Matches(msg, m.keys.ViewDiff):
		cmd := m.setView(ViewDiff)
		return m, cmd
	}

	// View-specific keys
	switch m.currentView {
	case ViewContainers:
		cmd := m.handleContainersKey(msg)
		return m, cmd
	case ViewLogs:
		cmd := m.handleLogsKey(msg)
		return m, cmd
	case ViewChanges:
		cmd := m.handleChangesKey(msg)
		return m, cmd
	case ViewDiff:
		cmd := m.handleDiffKey(msg)
		return m, cmd
	}

	return m, nil
}

// cycleView returns the view delta steps away from the current one.
func (m Model) cycleView(delta int) View {
	idx := 0
	for i, v := range viewOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	n := len(viewOrder)
	return viewOrder[((idx+delta)%n+n)%n]
}

// setView switches the active view. Leaving the log view stops its polling;
// entering it starts a fresh polling cycle with an immediate fetch.
func (m *Model) setView(v View) tea.Cmd {
	if v == m.currentView {
		return nil
	}
	prev := m.currentView
	m.currentView = v

	if prev == ViewLogs {
		m.stopLogPolling()
	}

	switch v {
	case ViewLogs:
		return m.startLogPolling(false)
	case ViewChanges:
		if !m.changes.loaded && !m.changes.loading {
			return m.loadChanges()
		}
	}
	return nil
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, Follow: m.follow}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		logger := logging.WithComponent("ui")
		logger.Warn().Err(err).Str("path", m.prefsPath).Msg("save preferences")
	}
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Fetch latest snapshot
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// resizeViewports fits the scrollable panes to the window.
// Box height = m.height - 3 (header, cmdbar, status line below);
// the inner area drops the two border rows.
func (m *Model) resizeViewports() {
	w := max(m.width-4, 1)
	h := max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
	}
	if m.diffViewport.Width == 0 {
		m.diffViewport = viewport.New(w, h)
	}
	if m.logViewport.Width != w {
		m.logState.contentKey = 0
	}
	if m.diffViewport.Width != w {
		m.diffState.rendered = false
	}
	m.logViewport.Width, m.logViewport.Height = w, h
	m.diffViewport.Width, m.diffViewport.Height = w, h
	m.logState.searchInput.Width = max(w-12, 10)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewContainers:
		return m.renderContainers()
	case ViewLogs:
		return m.renderLogs()
	case ViewChanges:
		return m.renderChanges()
	case ViewDiff:
		return m.renderDiff()
	default:
		return ""
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	popts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		popts = append(popts, tea.WithContext(opts.Context))
	}
	p := tea.NewProgram(m, popts...)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}
