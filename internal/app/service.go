package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/state"
)

// Backend is the slice of the api client the data flows need. *api.Client
// implements it; tests substitute a stub.
type Backend interface {
	ListPortfolios(ctx context.Context) ([]api.PortfolioSummary, error)
	GetPortfolio(ctx context.Context, portfolioID int64) (*api.PortfolioDetail, error)
	ListCoins(ctx context.Context) ([]api.Coin, error)
	FetchPrices(ctx context.Context) ([]api.CoinPrice, error)
	FetchHistory(ctx context.Context, coinIDs []string) ([]api.HistoryPoint, error)
}

// Service runs the data-fetching flows and applies the degrade-gracefully
// policy: when a fetch fails and nothing live is on screen yet, clearly
// tagged sample data stands in so the view stays usable. Authentication
// failures are never masked this way - they bubble up so the UI can route to
// sign-in.
type Service struct {
	backend Backend
	store   *state.Store
	log     *zap.Logger
}

// NewService builds a Service.
func NewService(backend Backend, store *state.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{backend: backend, store: store, log: log}
}

// LoadPortfolios refreshes the portfolio list.
func (s *Service) LoadPortfolios(ctx context.Context) error {
	list, err := s.backend.ListPortfolios(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		s.log.Warn("portfolio list fetch failed", zap.Error(err))
		if len(s.store.Snapshot().Portfolios) == 0 {
			s.store.UpdatePortfolios(placeholderPortfolios(), state.SourcePlaceholder, nil)
			return nil
		}
		s.store.UpdatePortfolios(nil, state.SourceNone, err)
		return nil
	}
	s.store.UpdatePortfolios(list, state.SourceLive, nil)
	return nil
}

// LoadDetail fetches one portfolio's holdings, then its price history.
// The two steps are ordered: the history request needs the holding symbols.
func (s *Service) LoadDetail(ctx context.Context, portfolioID int64) error {
	detail, err := s.backend.GetPortfolio(ctx, portfolioID)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		s.log.Warn("portfolio detail fetch failed",
			zap.Int64("portfolio", portfolioID), zap.Error(err))
		placeholder := placeholderDetail(portfolioID)
		s.store.UpdateDetail(placeholder, state.SourcePlaceholder, nil)
		s.store.UpdateHistory(placeholderHistory(placeholder.Holdings), state.SourcePlaceholder, nil)
		return nil
	}
	s.store.UpdateDetail(detail, state.SourceLive, nil)

	if len(detail.Holdings) == 0 {
		s.store.UpdateHistory(nil, state.SourceLive, nil)
		return nil
	}

	symbols := make([]string, 0, len(detail.Holdings))
	for _, h := range detail.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	points, err := s.backend.FetchHistory(ctx, symbols)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		s.log.Warn("price history fetch failed", zap.Error(err))
		s.store.UpdateHistory(placeholderHistory(detail.Holdings), state.SourcePlaceholder, nil)
		return nil
	}
	s.store.UpdateHistory(points, state.SourceLive, nil)
	return nil
}

// LoadCoins refreshes the selectable coin catalog. There is no placeholder
// for the catalog: without real coin ids an edit could not be saved anyway.
func (s *Service) LoadCoins(ctx context.Context) error {
	coins, err := s.backend.ListCoins(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		s.log.Warn("coin catalog fetch failed", zap.Error(err))
		s.store.UpdateCoins(nil, err)
		return nil
	}
	s.store.UpdateCoins(coins, nil)
	return nil
}

// LoadPrices refreshes market quotes.
func (s *Service) LoadPrices(ctx context.Context) error {
	prices, err := s.backend.FetchPrices(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		s.log.Warn("price fetch failed", zap.Error(err))
		if len(s.store.Snapshot().Prices) == 0 {
			s.store.UpdatePrices(placeholderPrices(), state.SourcePlaceholder, nil)
			return nil
		}
		s.store.UpdatePrices(nil, state.SourceNone, err)
		return nil
	}
	s.store.UpdatePrices(prices, state.SourceLive, nil)
	return nil
}
