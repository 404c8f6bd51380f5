package market

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrQuoteUnavailable is returned when a symbol has no current price.
// Callers treat it as recoverable: a valuation pass keeps the holding's
// prior values instead of failing the whole request.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is the current market state of one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent float64         `json:"changePercent"`
	DayLow        decimal.Decimal `json:"dayLow"`
	DayHigh       decimal.Decimal `json:"dayHigh"`
	Sector        string          `json:"sector"`
}

// SearchResult is one hit from a symbol search or screener.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Sector   string `json:"sector,omitempty"`
}

// Data is the market data capability consumed by the ledger. Implementations
// are swappable at composition time (yahoo, finnhub, noop).
type Data interface {
	// GetQuote returns the current quote for one symbol, or
	// ErrQuoteUnavailable when the provider has no price for it.
	GetQuote(ctx context.Context, symbol string) (*Quote, error)

	// GetQuotes returns quotes for every symbol the provider could price.
	// Symbols that fail are simply absent from the result; the call only
	// errors when the provider itself is unreachable.
	GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)

	// Search looks up symbols matching a free-text query.
	Search(ctx context.Context, query string) ([]SearchResult, error)

	// Screener returns symbols for a provider-defined screen id.
	Screener(ctx context.Context, screenID string, count int) ([]SearchResult, error)
}
