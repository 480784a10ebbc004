package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dhkim0920/coinfolio/internal/holdings"
)

// ErrUnauthorized is returned when a request still fails with 401 after one
// token refresh and one retry. Callers should treat it as a dead session.
var ErrUnauthorized = errors.New("unauthorized")

// TokenSource supplies the bearer token for authenticated requests and knows
// how to replace it when the backend rejects it. Implemented by
// session.Manager.
type TokenSource interface {
	Token() (string, bool)
	Refresh(ctx context.Context) error
}

// Client talks to the tracker backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
}

const (
	defaultUserAgent = "coinfolio/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client for the given base URL. The underlying HTTP client
// carries a cookie jar so the refresh credential set at sign-in rides along
// on refresh requests without ever being visible to callers.
func NewClient(apiBase string) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("init cookie jar: %w", err)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// SetTokenSource wires the session manager in after construction. The session
// manager itself needs the client for its refresh call, so the two are
// connected in a second step.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SignIn exchanges credentials for an access token. The backend also sets the
// long-lived refresh cookie on this response.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	return c.tokenRequest(ctx, "/api/v1/users/login", creds)
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, creds Credentials) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/v1/users/signup"}
	return c.doJSON(ctx, http.MethodPost, rel, creds, nil, false)
}

// SignOut invalidates the server-side session. It requires the current bearer
// token; callers treat failures as best-effort.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/v1/users/logout"}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	return nil
}

// RefreshToken exchanges the ambient refresh cookie for a new access token.
// No bearer token is attached; the cookie jar supplies the credential.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	return c.tokenRequest(ctx, "/api/v1/users/auth/refresh-token", struct{}{})
}

// ListPortfolios enumerates the user's portfolios.
func (c *Client) ListPortfolios(ctx context.Context) ([]PortfolioSummary, error) {
	var payload []PortfolioSummary
	rel := &url.URL{Path: "/api/v1/portfolio"}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetPortfolio fetches one portfolio's holdings.
func (c *Client) GetPortfolio(ctx context.Context, portfolioID int64) (*PortfolioDetail, error) {
	var payload serverPortfolio
	rel := &url.URL{Path: "/api/v1/portfolio/" + strconv.FormatInt(portfolioID, 10)}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload.detail(), nil
}

// CreatePortfolio creates a portfolio with its initial holdings.
func (c *Client) CreatePortfolio(ctx context.Context, req CreatePortfolioRequest) error {
	rel := &url.URL{Path: "/api/v1/portfolio"}
	return c.doJSON(ctx, http.MethodPost, rel, req, nil, true)
}

// UpdateHoldings submits an edit change-set for one portfolio as a single
// atomic request.
func (c *Client) UpdateHoldings(ctx context.Context, portfolioID int64, cs holdings.ChangeSet) error {
	rel := &url.URL{Path: "/api/v1/portfolio/" + strconv.FormatInt(portfolioID, 10) + "/coins"}
	return c.doJSON(ctx, http.MethodPatch, rel, cs, nil, true)
}

// RenamePortfolio updates a portfolio's title.
func (c *Client) RenamePortfolio(ctx context.Context, portfolioID int64, title string) error {
	rel := &url.URL{Path: "/api/v1/portfolio/" + strconv.FormatInt(portfolioID, 10)}
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	return c.doJSON(ctx, http.MethodPatch, rel, body, nil, true)
}

// DeletePortfolio marks a portfolio deleted. The backend soft-deletes, hence
// PATCH rather than DELETE.
func (c *Client) DeletePortfolio(ctx context.Context, portfolioID int64) error {
	rel := &url.URL{Path: "/api/v1/portfolio/" + strconv.FormatInt(portfolioID, 10) + "/delete"}
	return c.doJSON(ctx, http.MethodPatch, rel, struct{}{}, nil, true)
}

// ListCoins returns the selectable coin catalog.
func (c *Client) ListCoins(ctx context.Context) ([]Coin, error) {
	var payload []Coin
	rel := &url.URL{Path: "/api/v1/coin/list"}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchPrices returns current market quotes for the coin catalog.
func (c *Client) FetchPrices(ctx context.Context) ([]CoinPrice, error) {
	var payload []CoinPrice
	rel := &url.URL{Path: "/api/v1/coin/price"}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchHistory returns historical prices for the given coin ids, one series
// column per coin symbol.
func (c *Client) FetchHistory(ctx context.Context, coinIDs []string) ([]HistoryPoint, error) {
	values := url.Values{}
	for _, id := range coinIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			values.Add("coinIds", strings.ToLower(trimmed))
		}
	}
	var payload []HistoryPoint
	rel := &url.URL{Path: "/api/v1/chart/history", RawQuery: values.Encode()}
	if err := c.doJSON(ctx, http.MethodGet, rel, nil, &payload, true); err != nil {
		return nil, err
	}
	return payload, nil
}

// tokenRequest posts to an auth endpoint whose response body is the bare
// access token, either as plain text or a JSON string.
func (c *Client) tokenRequest(ctx context.Context, path string, body any) (string, error) {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", apiError(rel, resp.StatusCode, raw)
	}

	token := strings.TrimSpace(string(raw))
	var quoted string
	if json.Unmarshal(raw, &quoted) == nil && quoted != "" {
		token = quoted
	}
	if token == "" {
		return "", fmt.Errorf("api %s returned empty token", rel.String())
	}
	return token, nil
}

// doJSON performs one API call. When authed is true the current bearer token
// is attached; a 401 answer triggers one token refresh and one retry, and a
// second 401 resolves to ErrUnauthorized.
func (c *Client) doJSON(ctx context.Context, method string, rel *url.URL, reqBody, dest any, authed bool) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	status, err := c.attempt(ctx, method, rel, reqBody, dest, authed)
	if err == nil {
		return nil
	}
	if !authed || status != http.StatusUnauthorized || c.tokens == nil {
		return err
	}

	if refreshErr := c.tokens.Refresh(ctx); refreshErr != nil {
		return fmt.Errorf("%w: refresh failed: %v", ErrUnauthorized, refreshErr)
	}
	status, err = c.attempt(ctx, method, rel, reqBody, dest, authed)
	if err != nil && status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s rejected after refresh", ErrUnauthorized, rel.String())
	}
	return err
}

// attempt issues a single request and returns the HTTP status alongside the
// error so doJSON can branch on 401.
func (c *Client) attempt(ctx context.Context, method string, rel *url.URL, reqBody, dest any, authed bool) (int, error) {
	reqURL := c.baseURL.ResolveReference(rel)

	var body io.Reader = http.NoBody
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	c.setCommonHeaders(req)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if token, ok := c.currentToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, apiError(rel, resp.StatusCode, raw)
	}
	if dest == nil {
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return resp.StatusCode, fmt.Errorf("api %s returned no data", rel.String())
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response data: %w", err)
	}
	return resp.StatusCode, nil
}

func (c *Client) currentToken() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	return c.tokens.Token()
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// apiError extracts the backend's message from an error response body when it
// is envelope-shaped.
func apiError(rel *url.URL, status int, raw []byte) error {
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		return &APIError{Status: status, Message: env.Message}
	}
	return &APIError{Status: status, Message: ""}
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		return nil, fmt.Errorf("api base is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
