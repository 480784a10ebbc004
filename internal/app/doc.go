// Package app wires the coinfolio program together and owns the data flows
// that run outside the UI event loop.
//
// Run is the composition root: it loads configuration, opens the log file,
// builds the API client, restores or refreshes the saved session, starts the
// background poller and hands control to the UI. Everything the UI reads
// arrives through the shared state.Store; the UI never calls the network
// directly for polled data.
//
// Service implements the degrade-gracefully policy. A failed fetch never
// blanks the screen: if live data is already present it is kept and the
// error recorded, and if nothing live has arrived yet a clearly tagged
// sample dataset stands in. Authentication failures are the one exception -
// they are returned to the caller untouched so the UI can route to the
// sign-in view.
package app
