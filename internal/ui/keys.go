package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dhkim0920/coinfolio/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Views with focused text inputs get keys before the global bindings,
	// otherwise typing an email would toggle help and cycle themes.
	switch m.currentView {
	case ViewSignIn, ViewSignUp:
		return m.handleAuthKey(msg)
	case ViewEdit:
		return m.handleEditKey(msg)
	case ViewPortfolios:
		if m.list.prompt != nil {
			return m.handlePromptKey(msg)
		}
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		// Cycle theme
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case "L":
		return m.handleLogout()

	case "R":
		return m, m.refreshCurrentView()
	}

	switch m.currentView {
	case ViewPortfolios:
		return m.handlePortfoliosKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	}

	return m, nil
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, ChartRange: m.chartRange})
}

// handleLogout tears the session down and returns to sign-in.
func (m Model) handleLogout() (tea.Model, tea.Cmd) {
	sessions := m.sessions
	ctx := m.ctx
	next := m.gotoSignIn("signed out")
	return next, func() tea.Msg {
		sessions.Logout(ctx)
		return sessionMsg(sessions.Snapshot())
	}
}

// refreshCurrentView re-fetches whatever the current view shows.
func (m Model) refreshCurrentView() tea.Cmd {
	switch m.currentView {
	case ViewPortfolios:
		return tea.Batch(
			m.loadCmd(func(ctx context.Context) error { return m.loader.LoadPortfolios(ctx) }),
			m.loadCmd(func(ctx context.Context) error { return m.loader.LoadPrices(ctx) }),
		)
	case ViewDetail:
		id := m.detail.portfolioID
		return m.loadCmd(func(ctx context.Context) error { return m.loader.LoadDetail(ctx, id) })
	}
	return nil
}

// updateFocusedInput forwards non-key messages (cursor blinks) to whichever
// text input currently has focus.
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	switch m.currentView {
	case ViewSignIn, ViewSignUp:
		var cmd tea.Cmd
		m.auth.inputs[m.auth.focus], cmd = m.auth.inputs[m.auth.focus].Update(msg)
		return cmd
	case ViewPortfolios:
		if m.list.prompt != nil {
			var cmd tea.Cmd
			m.list.prompt.input, cmd = m.list.prompt.input.Update(msg)
			return cmd
		}
	case ViewEdit:
		if m.edit != nil && m.edit.editing {
			var cmd tea.Cmd
			m.edit.input, cmd = m.edit.input.Update(msg)
			return cmd
		}
	}
	return nil
}
