package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the header, the active view and the status footer.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent())

	body := b.String()
	footer := m.renderFooter()

	// Pin the footer to the bottom edge.
	bodyHeight := m.height - lipgloss.Height(footer)
	return lipgloss.Place(m.width, bodyHeight, lipgloss.Left, lipgloss.Top, body) + "\n" + footer
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSignIn, ViewSignUp:
		return m.renderAuth()
	case ViewPortfolios:
		return m.renderPortfolios()
	case ViewDetail:
		return m.renderDetail()
	case ViewEdit:
		return m.renderEdit()
	default:
		return ""
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	left := styles.Logo.Render(" coinfolio ")

	var parts []string
	switch {
	case m.session.Authenticated():
		parts = append(parts, styles.SuccessText.Render("signed in"))
	case m.session.Initializing():
		parts = append(parts, styles.InfoText.Render("restoring session..."))
	default:
		parts = append(parts, styles.MutedText.Render("signed out"))
	}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.DangerText.Render("offline"))
	}
	parts = append(parts, styles.FaintText.Render(m.theme.Name))

	right := strings.Join(parts, styles.FaintText.Render(" · "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	if m.status != "" {
		if m.statusErr {
			return styles.DangerText.Render(" " + m.status)
		}
		return styles.InfoText.Render(" " + m.status)
	}

	var hint string
	switch m.currentView {
	case ViewSignIn, ViewSignUp:
		hint = "tab fields · enter submit · ctrl+n sign-in/up · ctrl+c quit"
	case ViewPortfolios:
		hint = "j/k move · enter open · n new · r rename · d delete · R refresh · ? help · q quit"
	case ViewDetail:
		hint = "e edit · c chart range · R refresh · esc back · ? help · q quit"
	case ViewEdit:
		hint = "a add · x remove · enter edit · s save · esc discard"
	}
	return styles.Footer.Width(m.width).Render(hint)
}

// contentHeight is the vertical space left for the active view.
func (m Model) contentHeight() int {
	h := m.height - 4 // header, blank line, footer
	if h < 4 {
		h = 4
	}
	return h
}
