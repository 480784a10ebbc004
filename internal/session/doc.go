// Package session owns the access-token lifecycle for the tracker client.
//
// # Overview
//
// The Manager is the single authority on authentication state. Everything else
// in the application observes it through Snapshot() and never touches the
// token directly: the api client pulls the bearer via the TokenSource
// interface, and the UI branches on Authenticated/Initializing.
//
// # State Machine
//
// States: Initializing, Authenticated, Unauthenticated. A Manager starts
// Initializing; CheckAndRefresh moves it to Authenticated (valid or
// freshly-refreshed token) or Unauthenticated (no token and refresh failed).
// A successful refresh keeps Authenticated with a new token; a failed refresh,
// logout, or explicit invalidation lands in Unauthenticated. The machine is
// long-lived; there is no terminal state.
//
// Initializing exists so callers can distinguish "not yet known" from "known
// to be logged out". The UI must check Initializing before redirecting on a
// non-authenticated snapshot, otherwise a user mid-check gets bounced to
// sign-in for no reason.
//
// # Startup Check
//
// CheckAndRefresh reads the persisted token file:
//
//   - absent: attempt one refresh anyway - the backend may still honor the
//     HTTP-only refresh cookie held by the client's cookie jar
//   - present but malformed: discard it (never retried as-is) and refresh
//   - present but expired: refresh
//   - present and valid: adopt it
//
// Every path ends with the state settled, success or not.
//
// # Single-Flight Refresh
//
// Refresh is the one operation here needing mutual exclusion. It runs under a
// singleflight.Group keyed on "refresh": while one refresh is in flight, any
// further callers (the proactive ticker, multiple 401-handling requests, the
// startup check) wait on that same call and replay its outcome instead of
// issuing duplicate network requests. Success persists the replacement token;
// failure clears local state deterministically - a network error during
// refresh is never fatal to the process, it just resolves to Unauthenticated.
//
// # Proactive Renewal
//
// RunAutoRefresh ticks once a minute while the context lives. When the token
// is authenticated and its remaining lifetime is positive but under five
// minutes, it triggers Refresh. An already-expired token is deliberately left
// to the reactive path (the api client's 401 refresh-and-retry), matching the
// policy that this tick never refreshes dead tokens.
//
// # Persistence
//
// The token is the only durable client-side state. TokenStore writes it to a
// single TOML file under the data directory with user-only permissions;
// Load treats missing or unreadable files as "no session".
package session
