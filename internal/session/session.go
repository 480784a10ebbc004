package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dhkim0920/coinfolio/internal/api"
)

// State is the session's position in its lifecycle.
type State int

const (
	// StateInitializing means the startup token check has not completed yet.
	// Callers must not treat it as logged-out.
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a point-in-time view of the session for the UI.
type Snapshot struct {
	State  State
	Expiry time.Time
}

// Authenticated reports whether requests can be issued right now.
func (s Snapshot) Authenticated() bool { return s.State == StateAuthenticated }

// Initializing reports whether the startup check is still running. Callers
// that require authentication must check this before redirecting on a
// non-authenticated state.
func (s Snapshot) Initializing() bool { return s.State == StateInitializing }

// AuthAPI is the slice of the backend client the manager needs.
type AuthAPI interface {
	RefreshToken(ctx context.Context) (string, error)
	SignIn(ctx context.Context, creds api.Credentials) (string, error)
	SignUp(ctx context.Context, creds api.Credentials) error
	SignOut(ctx context.Context, token string) error
}

const (
	// autoRefreshTick is how often the proactive check inspects the token.
	autoRefreshTick = time.Minute
	// refreshAhead is how close to expiry the token may get before a
	// proactive refresh fires.
	refreshAhead = 5 * time.Minute
)

// Manager owns the access-token lifecycle: the startup validity check,
// single-flight refresh, proactive renewal, and sign-out. It implements
// api.TokenSource so the client can pull the bearer token and trigger the
// reactive refresh-and-retry path on 401s.
type Manager struct {
	authAPI AuthAPI
	store   *TokenStore
	log     *zap.Logger

	group singleflight.Group

	mu     sync.Mutex
	state  State
	token  string
	expiry time.Time

	now func() time.Time
}

// NewManager builds a Manager in the Initializing state. CheckAndRefresh must
// run before the state is meaningful.
func NewManager(authAPI AuthAPI, store *TokenStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		authAPI: authAPI,
		store:   store,
		log:     log,
		state:   StateInitializing,
		now:     time.Now,
	}
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, Expiry: m.expiry}
}

// Token implements api.TokenSource.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != ""
}

// CheckAndRefresh performs the startup validity check. It reads the persisted
// token; when the token is absent, expired, or malformed it attempts one
// refresh (the server may still honor the refresh cookie). The session is
// Initializing for the duration and lands in Authenticated or Unauthenticated
// regardless of outcome.
func (m *Manager) CheckAndRefresh(ctx context.Context) {
	m.mu.Lock()
	m.state = StateInitializing
	m.mu.Unlock()

	stored := m.store.Load()
	if stored == "" {
		m.log.Info("no stored token, attempting refresh")
		_ = m.Refresh(ctx)
		return
	}

	expiry, err := tokenExpiry(stored)
	if err != nil {
		// Malformed tokens are never retried as-is.
		m.log.Warn("stored token malformed, discarding", zap.Error(err))
		_ = m.store.Clear()
		_ = m.Refresh(ctx)
		return
	}

	if !expiry.After(m.now()) {
		m.log.Info("stored token expired, refreshing", zap.Time("expiry", expiry))
		_ = m.Refresh(ctx)
		return
	}

	m.mu.Lock()
	m.token = stored
	m.expiry = expiry
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.log.Info("stored token valid", zap.Time("expiry", expiry))
}

// Refresh obtains a new access token using the ambient refresh credential.
// Concurrent callers coalesce onto a single network request and all observe
// its outcome: success installs and persists the new token, failure clears
// all session state. The error reports why the session died.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		token, err := m.authAPI.RefreshToken(ctx)
		if err != nil {
			m.clearSession("refresh failed", err)
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		m.install(token)
		return nil, nil
	})
	return err
}

// SignIn exchanges credentials for a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	token, err := m.authAPI.SignIn(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	m.install(token)
	return nil
}

// SignUp registers an account. It does not sign the user in; the backend
// expects a fresh sign-in afterwards.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	if err := m.authAPI.SignUp(ctx, api.Credentials{Email: email, Password: password}); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

// Logout invalidates the server-side session best-effort, then clears local
// state unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token != "" {
		if err := m.authAPI.SignOut(ctx, token); err != nil {
			m.log.Warn("server sign-out failed", zap.Error(err))
		}
	}
	m.clearSession("logout", nil)
}

// RunAutoRefresh periodically inspects the token's remaining lifetime and
// refreshes it shortly before expiry. Already-expired tokens are left to the
// reactive 401 path. Returns when ctx is cancelled.
func (m *Manager) RunAutoRefresh(ctx context.Context) {
	ticker := time.NewTicker(autoRefreshTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.maybeRefresh(ctx)
		}
	}
}

func (m *Manager) maybeRefresh(ctx context.Context) {
	m.mu.Lock()
	state := m.state
	expiry := m.expiry
	m.mu.Unlock()

	if state != StateAuthenticated {
		return
	}
	remaining := expiry.Sub(m.now())
	if remaining <= 0 || remaining >= refreshAhead {
		return
	}
	m.log.Info("token close to expiry, refreshing", zap.Duration("remaining", remaining))
	if err := m.Refresh(ctx); err != nil {
		m.log.Warn("proactive refresh failed", zap.Error(err))
	}
}

// install records a fresh token in memory and on disk.
func (m *Manager) install(token string) {
	expiry, err := tokenExpiry(token)
	if err != nil {
		// The backend handed us something undecodable; keep the session
		// alive on it but without an expiry the proactive path can use.
		m.log.Warn("new token has no readable expiry", zap.Error(err))
		expiry = time.Time{}
	}
	if err := m.store.Save(token); err != nil {
		m.log.Warn("persist token failed", zap.Error(err))
	}

	m.mu.Lock()
	m.token = token
	m.expiry = expiry
	m.state = StateAuthenticated
	m.mu.Unlock()
}

// clearSession wipes memory and disk and marks the session unauthenticated.
func (m *Manager) clearSession(reason string, cause error) {
	if err := m.store.Clear(); err != nil {
		m.log.Warn("clear persisted token failed", zap.Error(err))
	}

	m.mu.Lock()
	m.token = ""
	m.expiry = time.Time{}
	m.state = StateUnauthenticated
	m.mu.Unlock()

	if cause != nil {
		m.log.Info("session cleared", zap.String("reason", reason), zap.Error(cause))
	} else {
		m.log.Info("session cleared", zap.String("reason", reason))
	}
}
