package state

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/api"
)

// Source tags where a dataset came from, so degraded placeholder data is
// never mistaken for a live backend answer.
type Source int

const (
	// SourceNone means the dataset has not been fetched yet.
	SourceNone Source = iota
	// SourceLive means the dataset is a genuine backend response.
	SourceLive
	// SourcePlaceholder means the fetch failed and clearly-labeled sample
	// data is standing in so the view stays usable.
	SourcePlaceholder
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourcePlaceholder:
		return "placeholder"
	default:
		return "none"
	}
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Portfolios       []api.PortfolioSummary
	PortfoliosSource Source

	Detail       *api.PortfolioDetail
	DetailSource Source

	History       []api.HistoryPoint
	HistorySource Source

	Coins []api.Coin

	Prices       []api.CoinPrice
	PricesSource Source

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Degraded reports whether any displayed dataset is placeholder data.
func (s Snapshot) Degraded() bool {
	return s.PortfoliosSource == SourcePlaceholder ||
		s.DetailSource == SourcePlaceholder ||
		s.HistorySource == SourcePlaceholder ||
		s.PricesSource == SourcePlaceholder
}

// Store coordinates concurrent updates to the snapshot between the poller,
// the session's fetch flows, and the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// UpdatePortfolios replaces the portfolio list. On error the previous list is
// kept and the failure recorded.
func (s *Store) UpdatePortfolios(list []api.PortfolioSummary, src Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr(err) {
		return
	}
	s.snapshot.Portfolios = cloneSummaries(list)
	s.snapshot.PortfoliosSource = src
}

// UpdateDetail replaces the selected portfolio's holdings.
func (s *Store) UpdateDetail(detail *api.PortfolioDetail, src Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr(err) {
		return
	}
	s.snapshot.Detail = cloneDetail(detail)
	s.snapshot.DetailSource = src
}

// UpdateHistory replaces the price-history series for the selected portfolio.
func (s *Store) UpdateHistory(points []api.HistoryPoint, src Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr(err) {
		return
	}
	s.snapshot.History = clonePoints(points)
	s.snapshot.HistorySource = src
}

// UpdateCoins replaces the coin catalog.
func (s *Store) UpdateCoins(coins []api.Coin, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr(err) {
		return
	}
	s.snapshot.Coins = cloneCoins(coins)
}

// UpdatePrices replaces the market quotes.
func (s *Store) UpdatePrices(prices []api.CoinPrice, src Source, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr(err) {
		return
	}
	s.snapshot.Prices = clonePrices(prices)
	s.snapshot.PricesSource = src
}

// ClearDetail drops the selected portfolio when the user navigates away.
func (s *Store) ClearDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Detail = nil
	s.snapshot.DetailSource = SourceNone
	s.snapshot.History = nil
	s.snapshot.HistorySource = SourceNone
}

// recordErr handles the shared error bookkeeping. It reports whether the
// update should stop (error case keeps previous data).
func (s *Store) recordErr(err error) bool {
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return true
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
	return false
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Portfolios = cloneSummaries(s.snapshot.Portfolios)
	snap.Detail = cloneDetail(s.snapshot.Detail)
	snap.History = clonePoints(s.snapshot.History)
	snap.Coins = cloneCoins(s.snapshot.Coins)
	snap.Prices = clonePrices(s.snapshot.Prices)
	return snap
}

func cloneSummaries(items []api.PortfolioSummary) []api.PortfolioSummary {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.PortfolioSummary, len(items))
	copy(dup, items)
	return dup
}

func cloneDetail(d *api.PortfolioDetail) *api.PortfolioDetail {
	if d == nil {
		return nil
	}
	dup := *d
	if len(d.Holdings) > 0 {
		dup.Holdings = append(dup.Holdings[:0:0], d.Holdings...)
	}
	return &dup
}

func clonePoints(items []api.HistoryPoint) []api.HistoryPoint {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.HistoryPoint, len(items))
	for i, p := range items {
		dup[i].Time = p.Time
		if len(p.Values) > 0 {
			dup[i].Values = make(map[string]decimal.Decimal, len(p.Values))
			for k, v := range p.Values {
				dup[i].Values[k] = v
			}
		}
	}
	return dup
}

func cloneCoins(items []api.Coin) []api.Coin {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.Coin, len(items))
	copy(dup, items)
	return dup
}

func clonePrices(items []api.CoinPrice) []api.CoinPrice {
	if len(items) == 0 {
		return nil
	}
	dup := make([]api.CoinPrice, len(items))
	copy(dup, items)
	return dup
}
