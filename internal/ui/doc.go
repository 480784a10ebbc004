// Package ui provides the terminal user interface for coinfolio.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. A single root Model owns all view state;
// messages flow in from keyboard input, a once-a-second tick, and the
// completions of background commands (sign-in, fetches, saves). The model
// never blocks: every network call runs inside a tea.Cmd and reports back as
// a typed message.
//
// # Views
//
//   - Sign-in / Sign-up: credential form. The session manager decides when
//     this view is shown - losing the session from any data view routes
//     here, and a restored session at startup skips it entirely.
//   - Portfolios: the portfolio list with create, rename and delete prompts.
//   - Detail: one portfolio's holdings table, combined-value line chart and
//     profit/loss columns. Shows a "sample data" banner whenever the state
//     store is serving placeholder data.
//   - Edit: a working copy of the holdings grid. Cell edits accumulate
//     locally; save validates the copy, diffs it against the saved snapshot
//     and sends only the resulting change set.
//
// # Stale Completions
//
// The model carries a generation counter that is bumped on every view
// transition. Background commands capture the counter at launch and their
// results are dropped on arrival if the model has moved on, so a slow fetch
// for a closed portfolio can never clobber the current view.
//
// # External Dependencies
//
//   - state.Store: snapshot of portfolios, detail, prices and history
//   - session.Manager: authentication state and credential operations
//   - api.Client: portfolio and holdings mutations
//   - Loader: background data refresh flows
package ui
