package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/holdings"
	"github.com/dhkim0920/coinfolio/internal/state"
)

type editCol int

const (
	colCoin editCol = iota
	colAmount
	colPrice
	colDate
)

var editCols = [...]string{"Coin", "Amount", "Buy Price", "Buy Date"}

// editState is the holdings edit view: a working copy over the saved
// snapshot, reconciled into a change set on save.
type editState struct {
	portfolioID int64
	editor      *holdings.Editor
	row         int
	col         editCol
	editing     bool
	input       textinput.Model
	busy        bool
}

// gotoEdit opens the edit view over the currently displayed holdings.
func (m Model) gotoEdit() (Model, tea.Cmd) {
	detail := m.snapshot.Detail
	if detail == nil {
		m.setError("portfolio still loading")
		return m, nil
	}
	if m.snapshot.DetailSource != state.SourceLive {
		// Sample rows carry made-up ids; a save built on them would be
		// garbage. Editing waits for a real snapshot.
		m.setError("live portfolio data unavailable, cannot edit")
		return m, nil
	}

	in := textinput.New()
	in.CharLimit = 40
	in.Prompt = ""

	m.gen++
	m.currentView = ViewEdit
	m.edit = &editState{
		portfolioID: m.detail.portfolioID,
		editor:      holdings.NewEditor(detail.Holdings),
		input:       in,
	}
	m.clearStatus()
	return m, nil
}

// handleEditKey processes keys on the edit view.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.edit
	if e == nil {
		m.currentView = ViewDetail
		return m, nil
	}
	if e.busy {
		return m, nil
	}

	if e.editing {
		switch msg.String() {
		case "esc":
			e.editing = false
			e.input.Blur()
			m.clearStatus()
			return m, nil
		case "enter":
			return m.commitCell()
		}
		var cmd tea.Cmd
		e.input, cmd = e.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		// Abandon the working copy.
		m.gen++
		m.currentView = ViewDetail
		m.edit = nil
		m.clearStatus()
		return m, nil

	case "j", "down":
		if e.row < e.editor.Len()-1 {
			e.row++
		}
	case "k", "up":
		if e.row > 0 {
			e.row--
		}
	case "h", "left":
		if e.col > colCoin {
			e.col--
		}
	case "l", "right", "tab":
		if e.col < colDate {
			e.col++
		} else {
			e.col = colCoin
		}

	case "a":
		e.editor.AddRow()
		e.row = e.editor.Len() - 1
		e.col = colCoin
		m.clearStatus()

	case "x", "d":
		if h := m.currentEditRow(); h != nil {
			e.editor.RemoveRow(h.Key())
			if e.row >= e.editor.Len() && e.row > 0 {
				e.row--
			}
			m.clearStatus()
		}

	case "enter", "i":
		return m.beginCellEdit()

	case "ctrl+s", "s":
		return m.saveEdits()
	}
	return m, nil
}

func (m Model) currentEditRow() *holdings.Holding {
	rows := m.edit.editor.Rows()
	if m.edit.row < 0 || m.edit.row >= len(rows) {
		return nil
	}
	return &rows[m.edit.row]
}

// beginCellEdit focuses the inline input, seeded with the cell's value.
func (m Model) beginCellEdit() (tea.Model, tea.Cmd) {
	e := m.edit
	h := m.currentEditRow()
	if h == nil {
		return m, nil
	}

	switch e.col {
	case colCoin:
		e.input.SetValue(h.Symbol)
	case colAmount:
		if !h.Amount.IsZero() {
			e.input.SetValue(h.Amount.String())
		} else {
			e.input.SetValue("")
		}
	case colPrice:
		if !h.PurchasePrice.IsZero() {
			e.input.SetValue(h.PurchasePrice.String())
		} else {
			e.input.SetValue("")
		}
	case colDate:
		e.input.SetValue(h.PurchaseDate.String())
	}
	e.input.CursorEnd()
	e.editing = true
	return m, e.input.Focus()
}

// commitCell parses the input and writes it into the working copy.
func (m Model) commitCell() (tea.Model, tea.Cmd) {
	e := m.edit
	h := m.currentEditRow()
	if h == nil {
		e.editing = false
		return m, nil
	}
	raw := strings.TrimSpace(e.input.Value())
	key := h.Key()

	switch e.col {
	case colCoin:
		coin := m.findCoin(raw)
		if coin == nil {
			m.setError(fmt.Sprintf("unknown coin %q", raw))
			return m, nil
		}
		e.editor.SetCoin(key, coin.ID, coin.Symbol, coin.Name)

	case colAmount:
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			m.setError("amount must be a number")
			return m, nil
		}
		e.editor.SetAmount(key, amount)

	case colPrice:
		price, err := decimal.NewFromString(raw)
		if err != nil {
			m.setError("price must be a number")
			return m, nil
		}
		e.editor.SetPrice(key, price)

	case colDate:
		date, err := holdings.ParseDate(raw)
		if err != nil {
			m.setError("date must look like 2024-01-15")
			return m, nil
		}
		e.editor.SetDate(key, date)
	}

	e.editing = false
	e.input.Blur()
	m.clearStatus()
	return m, nil
}

// findCoin matches a catalog entry by symbol or name, case-insensitively.
func (m Model) findCoin(q string) *api.Coin {
	if q == "" {
		return nil
	}
	for i := range m.snapshot.Coins {
		c := &m.snapshot.Coins[i]
		if strings.EqualFold(c.Symbol, q) || strings.EqualFold(c.Name, q) {
			return c
		}
	}
	return nil
}

// saveEdits validates the working copy, diffs it against the saved snapshot
// and sends the change set.
func (m Model) saveEdits() (tea.Model, tea.Cmd) {
	e := m.edit

	if err := e.editor.Validate(); err != nil {
		var verr *holdings.ValidationError
		if errors.As(err, &verr) {
			e.row = verr.Row
			switch verr.Field {
			case "coin":
				e.col = colCoin
			case "amount":
				e.col = colAmount
			case "purchase price":
				e.col = colPrice
			case "purchase date":
				e.col = colDate
			}
		}
		m.setError(err.Error())
		return m, nil
	}

	cs := e.editor.Diff()
	if cs.Empty() {
		m.gen++
		m.currentView = ViewDetail
		m.edit = nil
		m.setStatus("no changes")
		return m, nil
	}

	e.busy = true
	m.setStatus("saving...")
	gen := m.gen
	ctx := m.ctx
	client := m.client
	id := e.portfolioID
	return m, func() tea.Msg {
		return saveDoneMsg{gen: gen, err: client.UpdateHoldings(ctx, id, cs)}
	}
}

func (m Model) handleSaveDone(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.edit == nil {
		return m, nil
	}
	m.edit.busy = false

	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.gotoSignIn("session expired, sign in again"), nil
		}
		// Keep the working copy so nothing typed is lost.
		m.setError(msg.err.Error())
		return m, nil
	}

	m.edit.editor.Rebase()
	id := m.edit.portfolioID
	m.gen++
	m.currentView = ViewDetail
	m.edit = nil
	m.setStatus("holdings saved")
	return m, m.loadCmd(func(ctx context.Context) error {
		return m.loader.LoadDetail(ctx, id)
	})
}

// renderEdit renders the editable holdings grid.
func (m Model) renderEdit() string {
	styles := m.theme.Styles()
	e := m.edit
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Edit holdings"))
	b.WriteString("\n\n")

	colWidth := 16
	cell := lipgloss.NewStyle().Width(colWidth)

	// Header
	for _, name := range editCols {
		b.WriteString(cell.Render(styles.MutedText.Render(name)))
	}
	b.WriteString("\n")

	rows := e.editor.Rows()
	if len(rows) == 0 {
		b.WriteString(styles.MutedText.Render("No rows. Press a to add one."))
		b.WriteString("\n")
	}
	for ri, h := range rows {
		cells := [...]string{
			coinLabel(h),
			h.Amount.String(),
			h.PurchasePrice.String(),
			h.PurchaseDate.String(),
		}
		for ci, value := range cells {
			selected := ri == e.row && editCol(ci) == e.col
			if selected && e.editing {
				value = e.input.View()
			} else if selected {
				value = styles.Selected.Render(" " + value + " ")
			}
			b.WriteString(cell.Render(value))
		}
		if !h.Saved() {
			b.WriteString(styles.FaintText.Render("new"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if e.busy {
		b.WriteString(styles.InfoText.Render("saving..."))
	} else {
		b.WriteString(styles.FaintText.Render("a add · x remove · enter edit cell · s save · esc discard"))
	}
	return b.String()
}

func coinLabel(h holdings.Holding) string {
	if h.Symbol == "" {
		return "(choose coin)"
	}
	return h.Symbol
}
