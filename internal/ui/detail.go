package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/holdings"
	"github.com/dhkim0920/coinfolio/internal/state"
)

// detailState is the open-portfolio view state.
type detailState struct {
	portfolioID int64
	name        string
}

// handleDetailKey processes keys on the portfolio detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.gen++
		m.currentView = ViewPortfolios
		m.clearStatus()
		if m.store != nil {
			m.store.ClearDetail()
		}
		return m, fetchSnapshotCmd(m.store)

	case "e":
		return m.gotoEdit()

	case "c":
		m.chartRange = nextChartRange(m.chartRange)
		m.savePrefs()
		return m, nil
	}
	return m, nil
}

// renderDetail renders the chart, the holdings table and the totals.
func (m Model) renderDetail() string {
	styles := m.theme.Styles()
	detail := m.snapshot.Detail

	var b strings.Builder
	name := m.detail.name
	if detail != nil {
		name = detail.Name
	}
	b.WriteString(styles.AccentText.Bold(true).Render(name))
	if m.snapshot.DetailSource == state.SourcePlaceholder || m.snapshot.HistorySource == state.SourcePlaceholder {
		b.WriteString("  ")
		b.WriteString(styles.Banner.Render("sample data"))
	}
	b.WriteString("\n\n")

	if detail == nil {
		b.WriteString(styles.MutedText.Render("Loading portfolio..."))
		return b.String()
	}

	if chart := m.renderHistoryChart(); chart != "" {
		b.WriteString(styles.FaintText.Render("value · " + m.chartRange))
		b.WriteString("\n")
		b.WriteString(chart)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderHoldingsTable(detail.Holdings))
	return b.String()
}

func (m Model) renderHoldingsTable(hs []holdings.Holding) string {
	styles := m.theme.Styles()
	if len(hs) == 0 {
		return styles.MutedText.Render("No holdings. Press e to add some.")
	}

	prices := priceBySymbol(m.snapshot.Prices)
	alloc := holdings.Allocation(hs)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Coin", "Amount", "Buy Price", "Buy Date", "Cost", "Value", "P/L", "Alloc"})

	total := decimal.Zero
	totalCost := decimal.Zero
	for i, h := range hs {
		cost := h.Cost()
		totalCost = totalCost.Add(cost)

		value := "-"
		profit := "-"
		if price, ok := prices[strings.ToUpper(h.Symbol)]; ok {
			v := h.Amount.Mul(price)
			total = total.Add(v)
			value = formatMoney(v)
			p := v.Sub(cost)
			if p.Sign() >= 0 {
				profit = styles.SuccessText.Render("+" + formatMoney(p))
			} else {
				profit = styles.DangerText.Render("-" + formatMoney(p.Abs()))
			}
		}

		t.AppendRow(table.Row{
			h.Symbol,
			h.Amount.String(),
			formatMoney(h.PurchasePrice),
			h.PurchaseDate.String(),
			formatMoney(cost),
			value,
			profit,
			formatPercent(alloc[i]),
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", "", formatMoney(totalCost), formatMoney(total), "", ""})

	return t.Render()
}

func priceBySymbol(prices []api.CoinPrice) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		out[strings.ToUpper(p.Symbol)] = p.Price
	}
	return out
}
