// Package state provides thread-safe state management for the tracker client.
//
// # Overview
//
// The Store is the coordination point between the background poller, the
// page-level fetch flows, and the UI. Writers replace whole datasets
// (portfolio list, selected detail, price history, coin catalog, quotes); the
// UI reads immutable snapshots on its own schedule.
//
// # Tagged Outcomes
//
// Every displayable dataset carries a Source tag:
//
//   - SourceLive: a genuine backend response
//   - SourcePlaceholder: the fetch failed and sample data is standing in
//   - SourceNone: not fetched yet
//
// The tracker deliberately degrades to placeholder data when a fetch fails so
// the view stays usable, but unlike a silent fallback the tag travels with the
// data: Snapshot.Degraded() tells the UI to label the view as sample data, and
// tests can assert which mode they are looking at.
//
// # Update Semantics
//
// On success an update replaces its dataset, clears LastError, and resets the
// consecutive-failure counter. On error the previous data is kept and the
// error recorded, so the UI always has the most recent good data to show.
// IsOffline reports two or more consecutive failures.
//
// # Concurrency Model
//
// A readers-writer lock guards the snapshot. Updates take the write lock only
// for the copy, never during network I/O. Snapshot() deep-copies slices and
// the history value maps so the UI and the poller never share mutable state.
package state
