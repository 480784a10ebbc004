package holdings

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Holding is one coin position within a portfolio. A holding the server has
// persisted carries a non-zero PortfolioCoinID; a row the user just added in
// the editor carries only a client-generated TempKey until the next save.
type Holding struct {
	PortfolioCoinID int64
	TempKey         string

	CoinID int64
	Symbol string
	Name   string

	Amount        decimal.Decimal
	PurchasePrice decimal.Decimal
	PurchaseDate  Date
}

// Saved reports whether the holding has a server-assigned identity.
func (h Holding) Saved() bool { return h.PortfolioCoinID != 0 }

// Key returns the client-side row key: the server identity when persisted,
// the temporary key otherwise.
func (h Holding) Key() string {
	if h.Saved() {
		return "id:" + strconv.FormatInt(h.PortfolioCoinID, 10)
	}
	return h.TempKey
}

// Cost returns amount × purchase price.
func (h Holding) Cost() decimal.Decimal {
	return h.Amount.Mul(h.PurchasePrice)
}

// TotalCost sums the cost basis of all holdings.
func TotalCost(hs []Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range hs {
		total = total.Add(h.Cost())
	}
	return total
}

// Allocation returns each holding's share of the total cost basis as a
// percentage, in input order. All-zero holdings yield all-zero allocations.
func Allocation(hs []Holding) []decimal.Decimal {
	total := TotalCost(hs)
	out := make([]decimal.Decimal, len(hs))
	if total.IsZero() {
		return out
	}
	hundred := decimal.NewFromInt(100)
	for i, h := range hs {
		out[i] = h.Cost().Mul(hundred).Div(total).Round(2)
	}
	return out
}
