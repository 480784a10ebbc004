package holdings

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError describes the first invalid field found in a working copy.
// Row is the zero-based position of the offending holding.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s %s", e.Row+1, e.Field, e.Reason)
}

// NewHolding is the creation payload for a holding that has never been saved.
type NewHolding struct {
	CoinID        int64           `json:"coinId"`
	Amount        decimal.Decimal `json:"amount"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	PurchaseDate  Date            `json:"purchaseDate"`
}

// HoldingUpdate is the update payload for a persisted holding whose observed
// fields changed.
type HoldingUpdate struct {
	PortfolioCoinID int64           `json:"portfolioCoinId"`
	Amount          decimal.Decimal `json:"amount"`
	PurchasePrice   decimal.Decimal `json:"purchasePrice"`
	PurchaseDate    Date            `json:"purchaseDate"`
}

// ChangeSet is the minimal add/update/delete triple reconciling an edited
// working copy against its original snapshot. The three buckets are disjoint:
// a holding lands in at most one of them, and an unchanged holding lands in
// none.
type ChangeSet struct {
	ToAdd    []NewHolding    `json:"toAdd"`
	ToUpdate []HoldingUpdate `json:"toUpdate"`
	ToDelete []int64         `json:"toDelete"`
}

// Empty reports whether the change-set carries no operations.
func (cs ChangeSet) Empty() bool {
	return len(cs.ToAdd) == 0 && len(cs.ToUpdate) == 0 && len(cs.ToDelete) == 0
}

// Editor owns one edit session over a portfolio's holdings: an immutable
// snapshot of the list as it was when editing began, and a mutable working
// copy the user changes row by row.
type Editor struct {
	original []Holding
	working  []Holding
}

// NewEditor captures a snapshot of original and starts a working copy from a
// deep copy of it.
func NewEditor(original []Holding) *Editor {
	return &Editor{
		original: cloneHoldings(original),
		working:  cloneHoldings(original),
	}
}

// Rows returns a copy of the current working copy.
func (e *Editor) Rows() []Holding {
	return cloneHoldings(e.working)
}

// Len returns the number of rows in the working copy.
func (e *Editor) Len() int { return len(e.working) }

// AddRow appends a blank unsaved holding with today's date as the default
// purchase date and returns its row key.
func (e *Editor) AddRow() string {
	h := Holding{
		TempKey:      "tmp:" + uuid.NewString(),
		PurchaseDate: Today(),
	}
	e.working = append(e.working, h)
	return h.Key()
}

// RemoveRow deletes the row with the given key from the working copy. Removing
// a never-persisted row simply discards it. It reports whether a row matched.
func (e *Editor) RemoveRow(key string) bool {
	for i, h := range e.working {
		if h.Key() == key {
			e.working = append(e.working[:i], e.working[i+1:]...)
			return true
		}
	}
	return false
}

// SetCoin replaces the coin selection of the identified row. Identity is never
// touched.
func (e *Editor) SetCoin(key string, coinID int64, symbol, name string) bool {
	return e.edit(key, func(h *Holding) {
		h.CoinID = coinID
		h.Symbol = symbol
		h.Name = name
	})
}

// SetAmount replaces the amount of the identified row.
func (e *Editor) SetAmount(key string, amount decimal.Decimal) bool {
	return e.edit(key, func(h *Holding) { h.Amount = amount })
}

// SetPrice replaces the purchase price of the identified row.
func (e *Editor) SetPrice(key string, price decimal.Decimal) bool {
	return e.edit(key, func(h *Holding) { h.PurchasePrice = price })
}

// SetDate replaces the purchase date of the identified row.
func (e *Editor) SetDate(key string, date Date) bool {
	return e.edit(key, func(h *Holding) { h.PurchaseDate = date })
}

func (e *Editor) edit(key string, fn func(*Holding)) bool {
	for i := range e.working {
		if e.working[i].Key() == key {
			fn(&e.working[i])
			return true
		}
	}
	return false
}

// Validate checks every working-copy row and returns a *ValidationError for
// the first failure: missing coin selection, non-positive amount or price, or
// an unset purchase date. Diffing must not be attempted while Validate fails.
func (e *Editor) Validate() error {
	for i, h := range e.working {
		switch {
		case h.CoinID == 0:
			return &ValidationError{Row: i, Field: "coin", Reason: "not selected"}
		case !h.Amount.IsPositive():
			return &ValidationError{Row: i, Field: "amount", Reason: "must be greater than zero"}
		case !h.PurchasePrice.IsPositive():
			return &ValidationError{Row: i, Field: "purchase price", Reason: "must be greater than zero"}
		case h.PurchaseDate.IsZero():
			return &ValidationError{Row: i, Field: "purchase date", Reason: "not set"}
		}
	}
	return nil
}

// Diff reconciles the working copy against the snapshot.
//
//   - ToAdd: working-copy rows without a server identity.
//   - ToUpdate: rows whose identity exists in the snapshot and whose amount,
//     purchase price, or purchase date differs. Dates compare by calendar day.
//   - ToDelete: snapshot identities absent from the working copy.
//
// Rows with matching identity and no field differences appear nowhere.
func (e *Editor) Diff() ChangeSet {
	byID := make(map[int64]Holding, len(e.original))
	for _, h := range e.original {
		if h.Saved() {
			byID[h.PortfolioCoinID] = h
		}
	}

	var cs ChangeSet
	seen := make(map[int64]bool, len(e.working))
	for _, h := range e.working {
		if !h.Saved() {
			cs.ToAdd = append(cs.ToAdd, NewHolding{
				CoinID:        h.CoinID,
				Amount:        h.Amount,
				PurchasePrice: h.PurchasePrice,
				PurchaseDate:  h.PurchaseDate,
			})
			continue
		}
		seen[h.PortfolioCoinID] = true
		orig, ok := byID[h.PortfolioCoinID]
		if !ok {
			continue
		}
		if h.Amount.Equal(orig.Amount) &&
			h.PurchasePrice.Equal(orig.PurchasePrice) &&
			h.PurchaseDate == orig.PurchaseDate {
			continue
		}
		cs.ToUpdate = append(cs.ToUpdate, HoldingUpdate{
			PortfolioCoinID: h.PortfolioCoinID,
			Amount:          h.Amount,
			PurchasePrice:   h.PurchasePrice,
			PurchaseDate:    h.PurchaseDate,
		})
	}

	for _, h := range e.original {
		if h.Saved() && !seen[h.PortfolioCoinID] {
			cs.ToDelete = append(cs.ToDelete, h.PortfolioCoinID)
		}
	}
	return cs
}

// Rebase makes the working copy the new snapshot after a successful commit.
// The edit session continues from a clean state with no pending differences.
func (e *Editor) Rebase() {
	e.original = cloneHoldings(e.working)
}

func cloneHoldings(hs []Holding) []Holding {
	if len(hs) == 0 {
		return nil
	}
	dup := make([]Holding, len(hs))
	copy(dup, hs)
	return dup
}
