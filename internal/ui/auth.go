package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	authFieldEmail = iota
	authFieldPassword
)

// authState holds the sign-in / sign-up form.
type authState struct {
	inputs [2]textinput.Model
	focus  int
	busy   bool
}

func newAuthState() authState {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 120
	email.Prompt = "> "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 120
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return authState{inputs: [2]textinput.Model{email, password}}
}

func (a *authState) focusField(idx int) {
	a.focus = idx
	for i := range a.inputs {
		if i == idx {
			a.inputs[i].Focus()
		} else {
			a.inputs[i].Blur()
		}
	}
}

// handleAuthKey processes keys on the sign-in and sign-up views.
func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.auth.busy {
		// A submit is in flight; ignore everything but quit.
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.auth.focusField((m.auth.focus + 1) % len(m.auth.inputs))
		return m, nil

	case "shift+tab", "up":
		m.auth.focusField((m.auth.focus + len(m.auth.inputs) - 1) % len(m.auth.inputs))
		return m, nil

	case "ctrl+n":
		// Toggle between sign-in and sign-up
		if m.currentView == ViewSignIn {
			m.currentView = ViewSignUp
		} else {
			m.currentView = ViewSignIn
		}
		m.clearStatus()
		return m, nil

	case "enter":
		if m.auth.focus == authFieldEmail {
			m.auth.focusField(authFieldPassword)
			return m, nil
		}
		return m.submitAuth()
	}

	var cmd tea.Cmd
	m.auth.inputs[m.auth.focus], cmd = m.auth.inputs[m.auth.focus].Update(msg)
	return m, cmd
}

// submitAuth validates the form locally and fires the network call.
func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.auth.inputs[authFieldEmail].Value())
	password := m.auth.inputs[authFieldPassword].Value()

	if email == "" || !strings.Contains(email, "@") {
		m.setError("enter a valid email address")
		m.auth.focusField(authFieldEmail)
		return m, nil
	}
	if password == "" {
		m.setError("enter a password")
		m.auth.focusField(authFieldPassword)
		return m, nil
	}

	m.auth.busy = true
	if m.currentView == ViewSignUp {
		m.setStatus("creating account...")
	} else {
		m.setStatus("signing in...")
	}

	gen := m.gen
	ctx := m.ctx
	sessions := m.sessions
	signUp := m.currentView == ViewSignUp
	return m, func() tea.Msg {
		var err error
		if signUp {
			err = sessions.SignUp(ctx, email, password)
		} else {
			err = sessions.SignIn(ctx, email, password)
		}
		return authDoneMsg{gen: gen, signUp: signUp, err: err}
	}
}

func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	m.auth.busy = false

	if msg.err != nil {
		m.setError(msg.err.Error())
		return m, nil
	}

	if msg.signUp {
		// The backend wants a fresh sign-in after registration.
		m.currentView = ViewSignIn
		m.auth.inputs[authFieldPassword].SetValue("")
		m.auth.focusField(authFieldEmail)
		m.setStatus("account created, sign in to continue")
		return m, nil
	}

	next, cmd := m.gotoPortfolios()
	return next, tea.Batch(cmd, fetchSessionCmd(m.sessions))
}

// renderAuth renders the sign-in / sign-up form.
func (m Model) renderAuth() string {
	styles := m.theme.Styles()

	title := "Sign in"
	action := "create an account"
	if m.currentView == ViewSignUp {
		title = "Create account"
		action = "sign in instead"
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.auth.inputs[authFieldEmail].View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.auth.inputs[authFieldPassword].View())
	b.WriteString("\n\n")
	if m.auth.busy {
		b.WriteString(styles.InfoText.Render("working..."))
	} else {
		b.WriteString(styles.FaintText.Render("enter submit · ctrl+n " + action))
	}

	form := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 3).
		Width(46).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.contentHeight(),
		lipgloss.Center,
		lipgloss.Center,
		form,
	)
}
