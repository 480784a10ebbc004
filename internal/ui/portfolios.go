package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/state"
)

type promptKind int

const (
	promptCreate promptKind = iota
	promptRename
	promptDelete
)

// promptState is a single-line modal over the portfolio list.
type promptState struct {
	kind        promptKind
	input       textinput.Model
	portfolioID int64
	name        string // existing name, for rename/delete
	busy        bool
}

// listState is the portfolio list view state.
type listState struct {
	selected int
	prompt   *promptState
}

func newPrompt(kind promptKind, portfolioID int64, name string) *promptState {
	in := textinput.New()
	in.CharLimit = 80
	in.Prompt = "> "
	in.Focus()
	if kind == promptRename {
		in.SetValue(name)
	}
	return &promptState{kind: kind, input: in, portfolioID: portfolioID, name: name}
}

// handlePortfoliosKey processes keys on the portfolio list.
func (m Model) handlePortfoliosKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.snapshot.Portfolios
	switch msg.String() {
	case "j", "down":
		if m.list.selected < len(rows)-1 {
			m.list.selected++
		}
	case "k", "up":
		if m.list.selected > 0 {
			m.list.selected--
		}
	case "g", "home":
		m.list.selected = 0
	case "G", "end":
		if len(rows) > 0 {
			m.list.selected = len(rows) - 1
		}

	case "enter":
		if p := m.selectedPortfolio(); p != nil {
			return m.gotoDetail(p.PortfolioID, p.Name)
		}

	case "n":
		m.list.prompt = newPrompt(promptCreate, 0, "")
		m.clearStatus()

	case "r":
		if p := m.selectedPortfolio(); p != nil {
			m.list.prompt = newPrompt(promptRename, p.PortfolioID, p.Name)
			m.clearStatus()
		}

	case "d":
		if p := m.selectedPortfolio(); p != nil {
			m.list.prompt = newPrompt(promptDelete, p.PortfolioID, p.Name)
			m.clearStatus()
		}
	}
	return m, nil
}

func (m Model) selectedPortfolio() *api.PortfolioSummary {
	rows := m.snapshot.Portfolios
	if m.list.selected < 0 || m.list.selected >= len(rows) {
		return nil
	}
	return &rows[m.list.selected]
}

// gotoDetail opens one portfolio and fetches its holdings and history.
func (m Model) gotoDetail(portfolioID int64, name string) (Model, tea.Cmd) {
	m.gen++
	m.currentView = ViewDetail
	m.detail = detailState{portfolioID: portfolioID, name: name}
	m.clearStatus()
	return m, m.loadCmd(func(ctx context.Context) error {
		return m.loader.LoadDetail(ctx, portfolioID)
	})
}

// handlePromptKey processes keys while a create/rename/delete prompt is open.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.list.prompt
	if p.busy {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.list.prompt = nil
		return m, nil

	case "enter":
		return m.submitPrompt()
	}

	if p.kind == promptDelete {
		// Delete confirms with y, anything else cancels.
		switch msg.String() {
		case "y", "Y":
			return m.submitPrompt()
		default:
			m.list.prompt = nil
			return m, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	p := m.list.prompt

	title := strings.TrimSpace(p.input.Value())
	if p.kind != promptDelete && title == "" {
		m.setError("enter a name")
		return m, nil
	}

	p.busy = true
	gen := m.gen
	ctx := m.ctx
	client := m.client

	switch p.kind {
	case promptCreate:
		return m, func() tea.Msg {
			err := client.CreatePortfolio(ctx, api.CreatePortfolioRequest{Title: title})
			return mutateDoneMsg{gen: gen, verb: "created", err: err}
		}
	case promptRename:
		id := p.portfolioID
		return m, func() tea.Msg {
			err := client.RenamePortfolio(ctx, id, title)
			return mutateDoneMsg{gen: gen, verb: "renamed", err: err}
		}
	default:
		id := p.portfolioID
		return m, func() tea.Msg {
			err := client.DeletePortfolio(ctx, id)
			return mutateDoneMsg{gen: gen, verb: "deleted", err: err}
		}
	}
}

func (m Model) handleMutateDone(msg mutateDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	m.list.prompt = nil

	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.gotoSignIn("session expired, sign in again"), nil
		}
		m.setError(msg.err.Error())
		return m, nil
	}

	m.setStatus("portfolio " + msg.verb)
	if msg.verb == "deleted" && m.list.selected > 0 {
		m.list.selected--
	}
	return m, m.loadCmd(func(ctx context.Context) error {
		return m.loader.LoadPortfolios(ctx)
	})
}

// renderPortfolios renders the portfolio list.
func (m Model) renderPortfolios() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Portfolios"))
	if m.snapshot.PortfoliosSource == state.SourcePlaceholder {
		b.WriteString("  ")
		b.WriteString(styles.Banner.Render("sample data"))
	}
	b.WriteString("\n\n")

	rows := m.snapshot.Portfolios
	if len(rows) == 0 {
		b.WriteString(styles.MutedText.Render("No portfolios yet. Press n to create one."))
	} else {
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"", "Name", "Coins"})
		for i, p := range rows {
			marker := " "
			name := p.Name
			if i == m.list.selected {
				marker = ">"
				name = styles.Selected.Render(" " + name + " ")
			}
			t.AppendRow(table.Row{marker, name, p.CoinCount})
		}
		b.WriteString(t.Render())
	}

	if m.list.prompt != nil {
		b.WriteString("\n\n")
		b.WriteString(m.renderPrompt())
	}

	return b.String()
}

func (m Model) renderPrompt() string {
	styles := m.theme.Styles()
	p := m.list.prompt

	var label, body string
	switch p.kind {
	case promptCreate:
		label = "New portfolio name"
		body = p.input.View()
	case promptRename:
		label = fmt.Sprintf("Rename %q", p.name)
		body = p.input.View()
	default:
		label = fmt.Sprintf("Delete %q?", p.name)
		body = styles.DangerText.Render("y confirm") + styles.FaintText.Render(" · any other key cancels")
	}
	if p.busy {
		body = styles.InfoText.Render("working...")
	}

	content := styles.MutedText.Render(label) + "\n" + body
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 2).
		Render(content)
}
