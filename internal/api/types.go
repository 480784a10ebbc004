package api

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dhkim0920/coinfolio/internal/holdings"
)

// envelope is the wrapper every data endpoint responds with.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// APIError carries the backend's status and message for a failed request.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api returned status %d", e.Status)
}

// Credentials are the sign-in/sign-up payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Coin is one entry of the selectable coin catalog.
type Coin struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CoinPrice is a current market quote for one coin.
type CoinPrice struct {
	ID        int64           `json:"id"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
}

// PortfolioSummary is one row of the user's portfolio list.
type PortfolioSummary struct {
	PortfolioID int64  `json:"portfolioId"`
	Name        string `json:"name"`
	CoinCount   int    `json:"coinCount"`
}

// serverCoin mirrors the backend's holding shape inside a portfolio detail.
type serverCoin struct {
	PortfolioCoinID int64           `json:"portfolioCoinId"`
	ID              int64           `json:"id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	PurchasePrice   decimal.Decimal `json:"purchasePrice"`
	PurchaseDate    holdings.Date   `json:"purchaseDate"`
}

type serverPortfolio struct {
	PortfolioID int64        `json:"portfolioId"`
	Name        string       `json:"name"`
	Coins       []serverCoin `json:"coins"`
}

// PortfolioDetail is one portfolio with its holdings.
type PortfolioDetail struct {
	PortfolioID int64
	Name        string
	Holdings    []holdings.Holding
}

func (sp serverPortfolio) detail() *PortfolioDetail {
	d := &PortfolioDetail{PortfolioID: sp.PortfolioID, Name: sp.Name}
	for _, c := range sp.Coins {
		d.Holdings = append(d.Holdings, holdings.Holding{
			PortfolioCoinID: c.PortfolioCoinID,
			CoinID:          c.ID,
			Symbol:          c.Symbol,
			Name:            c.Name,
			Amount:          c.Amount,
			PurchasePrice:   c.PurchasePrice,
			PurchaseDate:    c.PurchaseDate,
		})
	}
	return d
}

// CreatePortfolioRequest is the payload for creating a portfolio with its
// initial holdings.
type CreatePortfolioRequest struct {
	Title string                `json:"title"`
	Coins []holdings.NewHolding `json:"coins"`
}

// HistoryPoint is one sample of the price-history chart: a time label plus a
// value per requested coin symbol.
type HistoryPoint struct {
	Time   string
	Values map[string]decimal.Decimal
}

// UnmarshalJSON splits the backend's flat object {"time": "...", "BTC": 1.2}
// into the label and the per-coin values.
func (p *HistoryPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Values = make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		if k == "time" {
			if err := json.Unmarshal(v, &p.Time); err != nil {
				return fmt.Errorf("decode history time: %w", err)
			}
			continue
		}
		var d decimal.Decimal
		if err := json.Unmarshal(v, &d); err != nil {
			return fmt.Errorf("decode history value %q: %w", k, err)
		}
		p.Values[k] = d
	}
	return nil
}
