// Package ui provides the Bubble Tea TUI for coinfolio.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/prefs"
	"github.com/dhkim0920/coinfolio/internal/session"
	"github.com/dhkim0920/coinfolio/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewSignIn View = iota
	ViewSignUp
	ViewPortfolios
	ViewDetail
	ViewEdit
)

// Loader is the slice of the data service the UI triggers refreshes
// through. *app.Service implements it.
type Loader interface {
	LoadPortfolios(ctx context.Context) error
	LoadDetail(ctx context.Context, portfolioID int64) error
	LoadCoins(ctx context.Context) error
	LoadPrices(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *api.Client
	Sessions  *session.Manager
	Store     *state.Store
	Loader    Loader
	PollTick   time.Duration
	ThemeName  string
	ChartRange string
	PrefsPath  string
	Log        *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    *api.Client
	sessions  *session.Manager
	store     *state.Store
	loader    Loader
	log       *zap.Logger
	prefsPath string
	pollTick  time.Duration

	// UI state
	theme       Theme
	chartRange  string
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// gen guards async completions: commands capture the value at launch
	// and their results are dropped if the model has moved on since.
	gen int

	// Data state
	snapshot state.Snapshot
	session  session.Snapshot

	// Status line
	status    string
	statusErr bool

	// Per-view state
	auth   authState
	list   listState
	detail detailState
	edit   *editState
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
	// The store is cheap to read; refresh the view at least once a second
	// so countdowns and banners stay current between polls.
	if pollTick > time.Second {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	chartRange := opts.ChartRange
	if chartRange == "" {
		chartRange = "24h"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		sessions:    opts.Sessions,
		store:       opts.Store,
		loader:      opts.Loader,
		log:         log,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		theme:       GetTheme(themeName),
		chartRange:  chartRange,
		currentView: ViewSignIn,
		auth:        newAuthState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		textinput.Blink,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.sessions != nil {
		cmds = append(cmds, fetchSessionCmd(m.sessions))
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
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case sessionMsg:
		return m.handleSession(session.Snapshot(msg))

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case loadDoneMsg:
		return m.handleLoadDone(msg)

	case saveDoneMsg:
		return m.handleSaveDone(msg)

	case mutateDoneMsg:
		return m.handleMutateDone(msg)
	}

	if cmd := m.updateFocusedInput(msg); cmd != nil {
		return m, cmd
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
	return m.renderMain()
}

// handleTick refreshes the store and session snapshots and reschedules.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.sessions != nil {
		cmds = append(cmds, fetchSessionCmd(m.sessions))
	}
	return m, tea.Batch(cmds...)
}

// handleSession routes on session state changes. Losing the session from any
// data view redirects to sign-in; gaining one from the sign-in view advances
// to the portfolio list.
func (m Model) handleSession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.session
	m.session = snap

	switch {
	case !snap.Authenticated() && !snap.Initializing() && m.currentView > ViewSignUp:
		return m.gotoSignIn("session expired, sign in again"), nil

	case snap.Authenticated() && m.currentView <= ViewSignUp && !m.auth.busy:
		// Either a restored session at startup or an expired view left
		// behind; move to data and fetch everything.
		if prev.Authenticated() {
			return m, nil
		}
		return m.gotoPortfolios()
	}
	return m, nil
}

func (m Model) handleLoadDone(msg loadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.gotoSignIn("session expired, sign in again"), nil
		}
		m.setError(msg.err.Error())
	}
	if m.store != nil {
		return m, fetchSnapshotCmd(m.store)
	}
	return m, nil
}

// gotoSignIn drops all data-view state and shows the sign-in form.
func (m Model) gotoSignIn(status string) Model {
	m.gen++
	m.currentView = ViewSignIn
	m.auth = newAuthState()
	m.edit = nil
	m.status = status
	m.statusErr = status != ""
	return m
}

// gotoPortfolios switches to the portfolio list and kicks off the initial
// data fetches.
func (m Model) gotoPortfolios() (Model, tea.Cmd) {
	m.gen++
	m.currentView = ViewPortfolios
	m.edit = nil
	m.clearStatus()
	return m, tea.Batch(
		m.loadCmd(func(ctx context.Context) error { return m.loader.LoadPortfolios(ctx) }),
		m.loadCmd(func(ctx context.Context) error { return m.loader.LoadCoins(ctx) }),
		m.loadCmd(func(ctx context.Context) error { return m.loader.LoadPrices(ctx) }),
	)
}

func (m *Model) setError(text string) {
	m.status = text
	m.statusErr = true
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type sessionMsg session.Snapshot

type authDoneMsg struct {
	gen    int
	signUp bool
	err    error
}

type loadDoneMsg struct {
	gen int
	err error
}

type saveDoneMsg struct {
	gen int
	err error
}

type mutateDoneMsg struct {
	gen  int
	verb string
	err  error
}

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

func fetchSessionCmd(sessions *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg(sessions.Snapshot())
	}
}

// loadCmd runs one loader flow off the UI goroutine, tagged with the current
// generation.
func (m Model) loadCmd(fn func(context.Context) error) tea.Cmd {
	gen := m.gen
	ctx := m.ctx
	return func() tea.Msg {
		return loadDoneMsg{gen: gen, err: fn(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
