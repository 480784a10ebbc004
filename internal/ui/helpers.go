package ui

import (
	"strings"

	"github.com/shopspring/decimal"
)

// formatMoney renders a dollar amount with thousands separators.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// formatPercent renders a percentage value with one decimal.
func formatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
