// Package api provides an HTTP client for the tracker backend.
//
// # Overview
//
// This package defines the API client for the crypto portfolio tracker's REST
// backend: authentication, portfolio CRUD, the coin catalog, and price
// history. It handles HTTP communication, the backend's JSON response
// envelope, and type-safe request/response shapes.
//
// # Response Envelope
//
// Data endpoints wrap their payloads:
//
//	{"statusCode": 200, "message": "ok", "data": {...}}
//
// The client unwraps the envelope and decodes "data" into the caller's type.
// Auth endpoints are the exception - sign-in and refresh answer with the bare
// access token in the response body.
//
// # Authentication
//
// Authenticated requests carry the access token as a bearer header. The token
// comes from a TokenSource, wired in with SetTokenSource after construction
// (the session manager implements it, and itself calls back into this client
// for the refresh POST).
//
// When an authenticated request answers 401, the client asks the TokenSource
// to refresh once and retries the request once with the replacement token. A
// second 401 resolves to ErrUnauthorized, which callers treat as a dead
// session.
//
// The refresh credential itself is never handled by callers: sign-in sets an
// HTTP-only cookie, the client's cookie jar stores it, and the refresh POST
// carries it ambiently.
//
// # Error Handling
//
// Network errors and JSON decode failures are wrapped with fmt.Errorf context.
// HTTP error responses become *APIError carrying the status and, when the
// body is envelope-shaped, the backend's message for direct display.
//
// # Thread Safety
//
// The Client is safe for concurrent use once SetTokenSource has been called;
// the underlying http.Client handles connection pooling.
package api
