// Package holdings models portfolio coin positions and reconciles user edits
// into change-sets for the tracker backend.
//
// # Overview
//
// A portfolio is a set of holdings: coin, amount, purchase price, purchase
// date. The backend assigns each persisted holding a portfolioCoinId; rows the
// user has added locally but not yet saved are keyed by a client-generated
// temporary id instead.
//
// # Edit Sessions
//
// Editor owns one edit session. NewEditor captures an immutable snapshot of
// the holdings as they were when the user opened the edit view, plus a mutable
// working copy:
//
//	ed := holdings.NewEditor(detail.Holdings)
//	key := ed.AddRow()
//	ed.SetCoin(key, 5, "BTC", "Bitcoin")
//	ed.SetAmount(key, decimal.NewFromInt(1))
//	...
//	if err := ed.Validate(); err != nil { /* show inline */ }
//	cs := ed.Diff() // {ToAdd, ToUpdate, ToDelete}
//
// # Diff Semantics
//
// Diff routes every difference between snapshot and working copy into exactly
// one bucket:
//
//   - rows without a server identity → ToAdd
//   - identities present on both sides with a changed amount, price, or
//     calendar date → ToUpdate
//   - identities present only in the snapshot → ToDelete
//
// A row added and removed within the same session produces no operation at
// all, and an untouched row appears in no bucket, so diffing an unedited copy
// yields an empty change-set. Duplicate coin selections across rows are passed
// through untouched; whether they are allowed is the backend's business rule.
//
// # Validation
//
// Validate must pass before Diff's result is submitted: every row needs a
// selected coin, a positive amount, a positive purchase price, and a set
// purchase date. Failures come back as *ValidationError with the row and
// field, suitable for inline display.
//
// # Dates
//
// Purchase dates use the Date type, a plain calendar day. Equality is by
// calendar day, never by string, so "2024-01-01" and
// "2024-01-01T09:30:00+09:00" compare equal after parsing and a timezone or
// format difference alone never produces a spurious update.
//
// # Numeric Precision
//
// Amounts and prices are shopspring decimals; Cost, TotalCost, and Allocation
// do exact arithmetic rather than float math.
package holdings
