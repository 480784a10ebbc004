package app

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/api"
	"github.com/dhkim0920/coinfolio/internal/holdings"
)

// Sample data shown, clearly tagged, when the backend is unreachable. The
// values mirror a small plausible portfolio so layout and charts stay
// exercisable offline.

func placeholderPortfolios() []api.PortfolioSummary {
	return []api.PortfolioSummary{
		{PortfolioID: -1, Name: "Sample portfolio", CoinCount: 4},
	}
}

func placeholderDetail(portfolioID int64) *api.PortfolioDetail {
	jan := holdings.NewDate(2024, time.January, 15)
	return &api.PortfolioDetail{
		PortfolioID: portfolioID,
		Name:        "Sample portfolio",
		Holdings: []holdings.Holding{
			{PortfolioCoinID: -1, CoinID: -1, Symbol: "BTC", Name: "Bitcoin",
				Amount: decimal.RequireFromString("0.5"), PurchasePrice: decimal.NewFromInt(43250), PurchaseDate: jan},
			{PortfolioCoinID: -2, CoinID: -2, Symbol: "ETH", Name: "Ethereum",
				Amount: decimal.NewFromInt(2), PurchasePrice: decimal.NewFromInt(2650), PurchaseDate: jan},
			{PortfolioCoinID: -3, CoinID: -3, Symbol: "ADA", Name: "Cardano",
				Amount: decimal.NewFromInt(1000), PurchasePrice: decimal.RequireFromString("0.48"), PurchaseDate: jan},
			{PortfolioCoinID: -4, CoinID: -4, Symbol: "DOT", Name: "Polkadot",
				Amount: decimal.NewFromInt(50), PurchasePrice: decimal.RequireFromString("7.25"), PurchaseDate: jan},
		},
	}
}

func placeholderPrices() []api.CoinPrice {
	return []api.CoinPrice{
		{ID: -1, Symbol: "BTC", Name: "Bitcoin", Price: decimal.NewFromInt(43250), Change24h: decimal.RequireFromString("2.3")},
		{ID: -2, Symbol: "ETH", Name: "Ethereum", Price: decimal.NewFromInt(2650), Change24h: decimal.RequireFromString("-1.2")},
		{ID: -3, Symbol: "ADA", Name: "Cardano", Price: decimal.RequireFromString("0.48"), Change24h: decimal.RequireFromString("5.8")},
		{ID: -4, Symbol: "DOT", Name: "Polkadot", Price: decimal.RequireFromString("7.25"), Change24h: decimal.RequireFromString("-0.8")},
	}
}

// placeholderHistory builds a flat series at each holding's purchase price so
// the chart renders with believable magnitudes.
func placeholderHistory(hs []holdings.Holding) []api.HistoryPoint {
	labels := []string{
		"00:00", "02:00", "04:00", "06:00", "08:00", "10:00", "12:00",
		"14:00", "16:00", "18:00", "20:00", "22:00", "24:00",
	}
	points := make([]api.HistoryPoint, len(labels))
	for i, label := range labels {
		values := make(map[string]decimal.Decimal, len(hs))
		for _, h := range hs {
			values[h.Symbol] = h.PurchasePrice
		}
		points[i] = api.HistoryPoint{Time: label, Values: values}
	}
	return points
}
