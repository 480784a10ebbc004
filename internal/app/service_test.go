package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/holdings"
	"github.com/dhkim0920/coinfolio/internal/state"
)

type stubBackend struct {
	portfolios    []api.PortfolioSummary
	portfolioErr  error
	detail        *api.PortfolioDetail
	detailErr     error
	coins         []api.Coin
	coinsErr      error
	prices        []api.CoinPrice
	pricesErr     error
	history       []api.HistoryPoint
	historyErr    error
	historyCoins  []string
	historyCalled int
}

func (b *stubBackend) ListPortfolios(context.Context) ([]api.PortfolioSummary, error) {
	return b.portfolios, b.portfolioErr
}

func (b *stubBackend) GetPortfolio(context.Context, int64) (*api.PortfolioDetail, error) {
	return b.detail, b.detailErr
}

func (b *stubBackend) ListCoins(context.Context) ([]api.Coin, error) {
	return b.coins, b.coinsErr
}

func (b *stubBackend) FetchPrices(context.Context) ([]api.CoinPrice, error) {
	return b.prices, b.pricesErr
}

func (b *stubBackend) FetchHistory(_ context.Context, coinIDs []string) ([]api.HistoryPoint, error) {
	b.historyCalled++
	b.historyCoins = coinIDs
	return b.history, b.historyErr
}

func TestLoadPortfoliosLive(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{portfolios: []api.PortfolioSummary{{PortfolioID: 7, Name: "Main"}}}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadPortfolios(context.Background()); err != nil {
		t.Fatalf("LoadPortfolios() = %v, want nil", err)
	}
	snap := store.Snapshot()
	if snap.PortfoliosSource != state.SourceLive {
		t.Fatalf("PortfoliosSource = %v, want %v", snap.PortfoliosSource, state.SourceLive)
	}
	if len(snap.Portfolios) != 1 || snap.Portfolios[0].Name != "Main" {
		t.Fatalf("Portfolios = %+v, want the fetched row", snap.Portfolios)
	}
}

func TestLoadPortfoliosFailureFallsBackToSample(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{portfolioErr: errors.New("connection refused")}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadPortfolios(context.Background()); err != nil {
		t.Fatalf("LoadPortfolios() = %v, want nil (error absorbed)", err)
	}
	snap := store.Snapshot()
	if snap.PortfoliosSource != state.SourcePlaceholder {
		t.Fatalf("PortfoliosSource = %v, want %v", snap.PortfoliosSource, state.SourcePlaceholder)
	}
	if len(snap.Portfolios) == 0 {
		t.Fatal("Portfolios is empty, want sample rows")
	}
	if !snap.Degraded() {
		t.Fatal("Degraded() = false, want true with sample data on screen")
	}
}

func TestLoadPortfoliosFailureKeepsLiveData(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{portfolios: []api.PortfolioSummary{{PortfolioID: 7, Name: "Main"}}}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadPortfolios(context.Background()); err != nil {
		t.Fatalf("LoadPortfolios() = %v, want nil", err)
	}
	backend.portfolioErr = errors.New("timeout")
	if err := svc.LoadPortfolios(context.Background()); err != nil {
		t.Fatalf("LoadPortfolios() after failure = %v, want nil", err)
	}

	snap := store.Snapshot()
	if snap.PortfoliosSource != state.SourceLive {
		t.Fatalf("PortfoliosSource = %v, want live data kept", snap.PortfoliosSource)
	}
	if len(snap.Portfolios) != 1 {
		t.Fatalf("Portfolios = %+v, want previous live rows kept", snap.Portfolios)
	}
	if snap.LastError == nil {
		t.Fatal("LastError = nil, want the fetch error recorded")
	}
}

func TestLoadPortfoliosUnauthorizedPassesThrough(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{portfolioErr: api.ErrUnauthorized}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	err := svc.LoadPortfolios(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("LoadPortfolios() = %v, want ErrUnauthorized", err)
	}
	if snap := store.Snapshot(); snap.PortfoliosSource == state.SourcePlaceholder {
		t.Fatal("auth failure must not be papered over with sample data")
	}
}

func TestLoadDetailFetchesHistoryForHoldingSymbols(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{
		detail: &api.PortfolioDetail{
			PortfolioID: 3,
			Name:        "Main",
			Holdings: []holdings.Holding{
				{PortfolioCoinID: 1, CoinID: 10, Symbol: "BTC", Amount: decimal.NewFromInt(1)},
				{PortfolioCoinID: 2, CoinID: 11, Symbol: "ETH", Amount: decimal.NewFromInt(2)},
			},
		},
		history: []api.HistoryPoint{{Time: "00:00", Values: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(5)}}},
	}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadDetail(context.Background(), 3); err != nil {
		t.Fatalf("LoadDetail() = %v, want nil", err)
	}
	if backend.historyCalled != 1 {
		t.Fatalf("FetchHistory called %d times, want 1", backend.historyCalled)
	}
	want := []string{"BTC", "ETH"}
	if len(backend.historyCoins) != len(want) {
		t.Fatalf("history coins = %v, want %v", backend.historyCoins, want)
	}
	for i := range want {
		if backend.historyCoins[i] != want[i] {
			t.Fatalf("history coins = %v, want %v", backend.historyCoins, want)
		}
	}
	snap := store.Snapshot()
	if snap.DetailSource != state.SourceLive || snap.HistorySource != state.SourceLive {
		t.Fatalf("sources = %v/%v, want live/live", snap.DetailSource, snap.HistorySource)
	}
}

func TestLoadDetailEmptyPortfolioSkipsHistory(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{detail: &api.PortfolioDetail{PortfolioID: 3, Name: "Empty"}}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadDetail(context.Background(), 3); err != nil {
		t.Fatalf("LoadDetail() = %v, want nil", err)
	}
	if backend.historyCalled != 0 {
		t.Fatalf("FetchHistory called %d times, want 0 for an empty portfolio", backend.historyCalled)
	}
	if src := store.Snapshot().HistorySource; src != state.SourceLive {
		t.Fatalf("HistorySource = %v, want live (empty series)", src)
	}
}

func TestLoadDetailFailureUsesSampleDetailAndHistory(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{detailErr: errors.New("boom")}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadDetail(context.Background(), 3); err != nil {
		t.Fatalf("LoadDetail() = %v, want nil (error absorbed)", err)
	}
	snap := store.Snapshot()
	if snap.DetailSource != state.SourcePlaceholder || snap.HistorySource != state.SourcePlaceholder {
		t.Fatalf("sources = %v/%v, want placeholder/placeholder", snap.DetailSource, snap.HistorySource)
	}
	if snap.Detail == nil || len(snap.Detail.Holdings) == 0 {
		t.Fatal("placeholder detail missing holdings")
	}
	if len(snap.History) == 0 {
		t.Fatal("placeholder history is empty")
	}
}

func TestLoadCoinsFailureHasNoPlaceholder(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{coinsErr: errors.New("boom")}
	store := &state.Store{}
	svc := NewService(backend, store, nil)

	if err := svc.LoadCoins(context.Background()); err != nil {
		t.Fatalf("LoadCoins() = %v, want nil (error absorbed)", err)
	}
	snap := store.Snapshot()
	if len(snap.Coins) != 0 {
		t.Fatalf("Coins = %+v, want empty (no sample catalog)", snap.Coins)
	}
	if snap.LastError == nil {
		t.Fatal("LastError = nil, want the fetch error recorded")
	}
}

func TestLoadPricesUnauthorizedPassesThrough(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{pricesErr: api.ErrUnauthorized}
	svc := NewService(backend, &state.Store{}, nil)

	if err := svc.LoadPrices(context.Background()); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("LoadPrices() = %v, want ErrUnauthorized", err)
	}
}
