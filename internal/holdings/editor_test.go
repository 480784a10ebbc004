package holdings

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func savedHolding(id, coinID int64, amount, price string, date Date) Holding {
	return Holding{
		PortfolioCoinID: id,
		CoinID:          coinID,
		Amount:          dec(amount),
		PurchasePrice:   dec(price),
		PurchaseDate:    date,
	}
}

func TestDiff_NoEditsYieldsEmptyChangeSet(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	ed := NewEditor([]Holding{
		savedHolding(1, 10, "2", "100", jan1),
		savedHolding(2, 11, "0.5", "43250", jan1),
	})

	cs := ed.Diff()
	if !cs.Empty() {
		t.Fatalf("Diff = %#v, want empty change-set", cs)
	}
}

func TestDiff_AmountEditYieldsSingleUpdate(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", jan1)})

	if !ed.SetAmount("id:1", dec("3")) {
		t.Fatalf("SetAmount did not find row id:1")
	}

	cs := ed.Diff()
	if len(cs.ToAdd) != 0 || len(cs.ToDelete) != 0 {
		t.Fatalf("Diff = %#v, want only updates", cs)
	}
	if len(cs.ToUpdate) != 1 {
		t.Fatalf("ToUpdate has %d entries, want 1", len(cs.ToUpdate))
	}
	up := cs.ToUpdate[0]
	if up.PortfolioCoinID != 1 || !up.Amount.Equal(dec("3")) {
		t.Fatalf("ToUpdate[0] = %#v, want portfolioCoinId=1 amount=3", up)
	}
}

func TestDiff_RemoveAndAddRoutesToDeleteAndAdd(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", jan1)})

	if !ed.RemoveRow("id:1") {
		t.Fatalf("RemoveRow did not find row id:1")
	}
	key := ed.AddRow()
	ed.SetCoin(key, 5, "ADA", "Cardano")
	ed.SetAmount(key, dec("1"))
	ed.SetPrice(key, dec("10"))
	ed.SetDate(key, NewDate(2024, time.June, 1))

	cs := ed.Diff()
	if len(cs.ToDelete) != 1 || cs.ToDelete[0] != 1 {
		t.Fatalf("ToDelete = %v, want [1]", cs.ToDelete)
	}
	if len(cs.ToUpdate) != 0 {
		t.Fatalf("ToUpdate = %#v, want empty", cs.ToUpdate)
	}
	if len(cs.ToAdd) != 1 {
		t.Fatalf("ToAdd has %d entries, want 1", len(cs.ToAdd))
	}
	add := cs.ToAdd[0]
	if add.CoinID != 5 || !add.Amount.Equal(dec("1")) || !add.PurchasePrice.Equal(dec("10")) {
		t.Fatalf("ToAdd[0] = %#v, want coinId=5 amount=1 price=10", add)
	}
	if add.PurchaseDate != NewDate(2024, time.June, 1) {
		t.Fatalf("ToAdd[0].PurchaseDate = %v, want 2024-06-01", add.PurchaseDate)
	}
}

func TestDiff_AddThenRemoveIsANoOp(t *testing.T) {
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", NewDate(2024, time.January, 1))})

	key := ed.AddRow()
	if !ed.RemoveRow(key) {
		t.Fatalf("RemoveRow did not find freshly added row %q", key)
	}

	cs := ed.Diff()
	if !cs.Empty() {
		t.Fatalf("Diff = %#v, want empty change-set after add+remove", cs)
	}
}

func TestDiff_ReselectingSameValuesEmitsNothing(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", jan1)})

	// Writing back identical values must not look like an edit.
	ed.SetCoin("id:1", 10, "BTC", "Bitcoin")
	ed.SetAmount("id:1", dec("2.00"))
	ed.SetDate("id:1", NewDate(2024, time.January, 1))

	cs := ed.Diff()
	if !cs.Empty() {
		t.Fatalf("Diff = %#v, want empty change-set for unchanged values", cs)
	}
}

func TestDiff_DateComparesByCalendarDay(t *testing.T) {
	orig, err := ParseDate("2024-01-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", orig)})

	// Same day parsed from a timestamped form with an offset.
	same, err := ParseDate("2024-01-01T09:30:00+09:00")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	ed.SetDate("id:1", same)
	if cs := ed.Diff(); !cs.Empty() {
		t.Fatalf("Diff = %#v, want empty for same calendar day", cs)
	}
}

func TestDiff_DateChangeYieldsUpdate(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", jan1)})

	ed.SetDate("id:1", NewDate(2024, time.January, 2))
	cs := ed.Diff()
	if len(cs.ToUpdate) != 1 || cs.ToUpdate[0].PurchaseDate != NewDate(2024, time.January, 2) {
		t.Fatalf("Diff = %#v, want one update with date 2024-01-02", cs)
	}
}

func TestDiff_BucketsAreDisjointAndComplete(t *testing.T) {
	jan1 := NewDate(2024, time.January, 1)
	original := []Holding{
		savedHolding(1, 10, "2", "100", jan1),  // will be deleted
		savedHolding(2, 11, "5", "20", jan1),   // will be updated
		savedHolding(3, 12, "1", "1000", jan1), // untouched
	}
	ed := NewEditor(original)

	ed.RemoveRow("id:1")
	ed.SetAmount("id:2", dec("6"))
	key := ed.AddRow()
	ed.SetCoin(key, 99, "SOL", "Solana")
	ed.SetAmount(key, dec("4"))
	ed.SetPrice(key, dec("150"))

	cs := ed.Diff()
	if len(cs.ToDelete) != 1 || cs.ToDelete[0] != 1 {
		t.Fatalf("ToDelete = %v, want [1]", cs.ToDelete)
	}
	if len(cs.ToUpdate) != 1 || cs.ToUpdate[0].PortfolioCoinID != 2 {
		t.Fatalf("ToUpdate = %#v, want single update for id 2", cs.ToUpdate)
	}
	if len(cs.ToAdd) != 1 || cs.ToAdd[0].CoinID != 99 {
		t.Fatalf("ToAdd = %#v, want single add for coin 99", cs.ToAdd)
	}

	// id 3 was untouched and must appear nowhere.
	for _, up := range cs.ToUpdate {
		if up.PortfolioCoinID == 3 {
			t.Fatalf("untouched holding 3 appeared in ToUpdate")
		}
	}
	for _, id := range cs.ToDelete {
		if id == 3 {
			t.Fatalf("untouched holding 3 appeared in ToDelete")
		}
	}
}

func TestDiff_DuplicateCoinSelectionsPassThrough(t *testing.T) {
	ed := NewEditor(nil)
	for range 2 {
		key := ed.AddRow()
		ed.SetCoin(key, 7, "ETH", "Ethereum")
		ed.SetAmount(key, dec("1"))
		ed.SetPrice(key, dec("2650"))
	}

	cs := ed.Diff()
	if len(cs.ToAdd) != 2 {
		t.Fatalf("ToAdd has %d entries, want 2 duplicate-coin adds", len(cs.ToAdd))
	}
}

func TestAddRow_DefaultsToTodayAndUniqueKeys(t *testing.T) {
	ed := NewEditor(nil)
	k1 := ed.AddRow()
	k2 := ed.AddRow()
	if k1 == k2 {
		t.Fatalf("AddRow keys collide: %q", k1)
	}

	rows := ed.Rows()
	if len(rows) != 2 {
		t.Fatalf("Rows has %d entries, want 2", len(rows))
	}
	if rows[0].PurchaseDate != Today() {
		t.Fatalf("new row date = %v, want today", rows[0].PurchaseDate)
	}
	if rows[0].Saved() {
		t.Fatalf("new row reports Saved, want unsaved")
	}
}

func TestValidate_ReportsFirstFailure(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Editor, string)
		field  string
	}{
		{"missing coin", func(ed *Editor, key string) {
			ed.SetAmount(key, dec("1"))
			ed.SetPrice(key, dec("10"))
		}, "coin"},
		{"zero amount", func(ed *Editor, key string) {
			ed.SetCoin(key, 5, "BTC", "Bitcoin")
			ed.SetPrice(key, dec("10"))
		}, "amount"},
		{"negative price", func(ed *Editor, key string) {
			ed.SetCoin(key, 5, "BTC", "Bitcoin")
			ed.SetAmount(key, dec("1"))
			ed.SetPrice(key, dec("-3"))
		}, "purchase price"},
		{"unset date", func(ed *Editor, key string) {
			ed.SetCoin(key, 5, "BTC", "Bitcoin")
			ed.SetAmount(key, dec("1"))
			ed.SetPrice(key, dec("10"))
			ed.SetDate(key, Date{})
		}, "purchase date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ed := NewEditor(nil)
			key := ed.AddRow()
			tc.mutate(ed, key)

			err := ed.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate = %v, want *ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("Field = %q, want %q", verr.Field, tc.field)
			}
			if verr.Row != 0 {
				t.Fatalf("Row = %d, want 0", verr.Row)
			}
		})
	}
}

func TestValidate_PassesOnCompleteRows(t *testing.T) {
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", NewDate(2024, time.January, 1))})
	if err := ed.Validate(); err != nil {
		t.Fatalf("Validate returned %v, want nil", err)
	}
}

func TestRebase_MakesWorkingCopyTheNewSnapshot(t *testing.T) {
	ed := NewEditor([]Holding{savedHolding(1, 10, "2", "100", NewDate(2024, time.January, 1))})
	ed.SetAmount("id:1", dec("3"))

	if cs := ed.Diff(); len(cs.ToUpdate) != 1 {
		t.Fatalf("Diff before Rebase = %#v, want one update", cs)
	}
	ed.Rebase()
	if cs := ed.Diff(); !cs.Empty() {
		t.Fatalf("Diff after Rebase = %#v, want empty", cs)
	}
}

func TestNewEditor_SnapshotIsIsolatedFromCaller(t *testing.T) {
	original := []Holding{savedHolding(1, 10, "2", "100", NewDate(2024, time.January, 1))}
	ed := NewEditor(original)

	original[0].Amount = dec("999")
	if cs := ed.Diff(); !cs.Empty() {
		t.Fatalf("Diff = %#v, caller mutation leaked into editor", cs)
	}
}
