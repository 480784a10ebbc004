package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/holdings"
)

// staticTokens is a TokenSource with a fixed token and a controllable refresh.
type staticTokens struct {
	token      string
	refreshErr error
	refreshed  atomic.Int32
	next       string
}

func (s *staticTokens) Token() (string, bool) {
	return s.token, s.token != ""
}

func (s *staticTokens) Refresh(ctx context.Context) error {
	s.refreshed.Add(1)
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.token = s.next
	return nil
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func envelopeJSON(data any) []byte {
	raw, _ := json.Marshal(data)
	out, _ := json.Marshal(map[string]any{
		"statusCode": 200,
		"message":    "ok",
		"data":       json.RawMessage(raw),
	})
	return out
}

func TestParseBaseURL_NormalizesSchemeAndStripsPath(t *testing.T) {
	u, err := parseBaseURL("tracker.example.com:8080")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "tracker.example.com:8080" {
		t.Fatalf("parseBaseURL = %q, want http://tracker.example.com:8080", u.String())
	}

	u, err = parseBaseURL("https://example.com/base?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("   "); err == nil {
		t.Fatalf("parseBaseURL accepted empty base")
	}
}

func TestSignIn_ReturnsTokenAndSendsCredentials(t *testing.T) {
	t.Parallel()

	var gotBody Credentials
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", HttpOnly: true})
		_, _ = w.Write([]byte(`"access-1"`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	token, err := c.SignIn(testCtx(t), Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	if token != "access-1" {
		t.Fatalf("token = %q, want access-1", token)
	}
	if gotBody.Email != "a@b.c" || gotBody.Password != "pw" {
		t.Fatalf("credentials sent = %#v, want email/password", gotBody)
	}
}

func TestRefreshToken_SendsCookieNotBearer(t *testing.T) {
	t.Parallel()

	var refreshAuth string
	var refreshCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/login":
			http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", HttpOnly: true})
			_, _ = w.Write([]byte(`"access-1"`))
		case "/api/v1/users/auth/refresh-token":
			refreshAuth = r.Header.Get("Authorization")
			if c, err := r.Cookie("refreshToken"); err == nil {
				refreshCookie = c.Value
			}
			_, _ = w.Write([]byte(`"access-2"`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.SignIn(testCtx(t), Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	token, err := c.RefreshToken(testCtx(t))
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if token != "access-2" {
		t.Fatalf("token = %q, want access-2", token)
	}
	if refreshAuth != "" {
		t.Fatalf("refresh carried Authorization %q, want none", refreshAuth)
	}
	if refreshCookie != "r1" {
		t.Fatalf("refresh cookie = %q, want r1", refreshCookie)
	}
}

func TestGetPortfolio_DecodesEnvelopeAndBearer(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/portfolio/7" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write(envelopeJSON(map[string]any{
			"portfolioId": 7,
			"name":        "Main",
			"coins": []map[string]any{{
				"portfolioCoinId": 1,
				"id":              10,
				"symbol":          "BTC",
				"name":            "Bitcoin",
				"amount":          "0.5",
				"purchasePrice":   "43250",
				"purchaseDate":    "2024-01-01",
			}},
		}))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(&staticTokens{token: "tok"})

	detail, err := c.GetPortfolio(testCtx(t), 7)
	if err != nil {
		t.Fatalf("GetPortfolio returned error: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want Bearer tok", gotAuth)
	}
	if detail.PortfolioID != 7 || detail.Name != "Main" || len(detail.Holdings) != 1 {
		t.Fatalf("detail = %#v, want portfolio 7 with 1 holding", detail)
	}
	h := detail.Holdings[0]
	if h.PortfolioCoinID != 1 || h.CoinID != 10 || h.Symbol != "BTC" {
		t.Fatalf("holding = %#v, want id 1 coin 10 BTC", h)
	}
	if !h.Amount.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("amount = %v, want 0.5", h.Amount)
	}
	if h.PurchaseDate != holdings.NewDate(2024, time.January, 1) {
		t.Fatalf("purchase date = %v, want 2024-01-01", h.PurchaseDate)
	}
}

func TestDoJSON_RefreshesOnceAndRetriesOn401(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(envelopeJSON([]map[string]any{{"portfolioId": 1, "name": "A"}}))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	tokens := &staticTokens{token: "stale", next: "fresh"}
	c.SetTokenSource(tokens)

	got, err := c.ListPortfolios(testCtx(t))
	if err != nil {
		t.Fatalf("ListPortfolios returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("portfolios = %#v, want one named A", got)
	}
	if n := tokens.refreshed.Load(); n != 1 {
		t.Fatalf("refresh count = %d, want 1", n)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("request count = %d, want 2 (401 then retry)", n)
	}
}

func TestDoJSON_SecondUnauthorizedIsFatal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	tokens := &staticTokens{token: "stale", next: "still-bad"}
	c.SetTokenSource(tokens)

	_, err = c.ListPortfolios(testCtx(t))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if n := tokens.refreshed.Load(); n != 1 {
		t.Fatalf("refresh count = %d, want exactly 1", n)
	}
}

func TestDoJSON_RefreshFailureIsUnauthorized(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(&staticTokens{token: "stale", refreshErr: errors.New("refresh rejected")})

	_, err = c.ListPortfolios(testCtx(t))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateHoldings_SendsChangeSetAsPatch(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var gotBody holdings.ChangeSet
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(&staticTokens{token: "tok"})

	cs := holdings.ChangeSet{
		ToUpdate: []holdings.HoldingUpdate{{
			PortfolioCoinID: 1,
			Amount:          decimal.NewFromInt(3),
			PurchasePrice:   decimal.NewFromInt(100),
			PurchaseDate:    holdings.NewDate(2024, time.January, 1),
		}},
		ToDelete: []int64{9},
	}
	if err := c.UpdateHoldings(testCtx(t), 7, cs); err != nil {
		t.Fatalf("UpdateHoldings returned error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/v1/portfolio/7/coins" {
		t.Fatalf("request = %s %s, want PATCH /api/v1/portfolio/7/coins", gotMethod, gotPath)
	}
	if len(gotBody.ToUpdate) != 1 || gotBody.ToUpdate[0].PortfolioCoinID != 1 {
		t.Fatalf("body.ToUpdate = %#v, want one update for id 1", gotBody.ToUpdate)
	}
	if len(gotBody.ToDelete) != 1 || gotBody.ToDelete[0] != 9 {
		t.Fatalf("body.ToDelete = %v, want [9]", gotBody.ToDelete)
	}
}

func TestFetchHistory_EncodesCoinIDsAndSplitsColumns(t *testing.T) {
	t.Parallel()

	var gotQuery []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()["coinIds"]
		_, _ = w.Write(envelopeJSON([]map[string]any{
			{"time": "00:00", "BTC": 43250.5, "ETH": 2650},
			{"time": "02:00", "BTC": 43100, "ETH": 2640},
		}))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(&staticTokens{token: "tok"})

	points, err := c.FetchHistory(testCtx(t), []string{"BTC", " ETH "})
	if err != nil {
		t.Fatalf("FetchHistory returned error: %v", err)
	}
	if len(gotQuery) != 2 || gotQuery[0] != "btc" || gotQuery[1] != "eth" {
		t.Fatalf("coinIds query = %v, want [btc eth]", gotQuery)
	}
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Time != "00:00" {
		t.Fatalf("points[0].Time = %q, want 00:00", points[0].Time)
	}
	if !points[0].Values["BTC"].Equal(decimal.RequireFromString("43250.5")) {
		t.Fatalf("points[0].BTC = %v, want 43250.5", points[0].Values["BTC"])
	}
}

func TestAPIError_SurfacesBackendMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"message":"duplicate coin"}`))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(&staticTokens{token: "tok"})

	err = c.CreatePortfolio(testCtx(t), CreatePortfolioRequest{Title: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "duplicate coin" {
		t.Fatalf("APIError = %#v, want 400 duplicate coin", apiErr)
	}
}
