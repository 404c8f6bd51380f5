package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paper-trading-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches quotes from the Finnhub REST API. Finnhub has no
// batched quote endpoint, so GetQuotes fans out one request per symbol.
type FinnhubClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

var _ Data = (*FinnhubClient)(nil)

// NewFinnhubClient creates a rate-limited Finnhub client.
func NewFinnhubClient(cfg *config.Market, logger *zap.Logger) *FinnhubClient {
	client := resty.New().
		SetBaseURL(finnhubBaseURL).
		SetQueryParam("token", cfg.FinnhubToken)

	return &FinnhubClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// finnhubQuote mirrors the /quote payload.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
}

// finnhubProfile mirrors the /stock/profile2 payload.
type finnhubProfile struct {
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Industry string `json:"finnhubIndustry"`
}

// GetQuote fetches the current quote for one symbol, including its sector
// from the company profile. A missing profile is tolerated.
func (c *FinnhubClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var q finnhubQuote
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&q).
		Get("/quote")
	if err != nil {
		return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote request for %s failed with status %s", symbol, resp.Status())
	}
	// Finnhub returns zeroes for unknown symbols instead of an error.
	if q.Current <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}

	quote := &Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(q.Current),
		Change:        decimal.NewFromFloat(q.Change),
		ChangePercent: q.ChangePercent,
		DayLow:        decimal.NewFromFloat(q.Low),
		DayHigh:       decimal.NewFromFloat(q.High),
	}

	var profile finnhubProfile
	profResp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&profile).
		Get("/stock/profile2")
	if err == nil && !profResp.IsError() {
		quote.Sector = profile.Industry
	} else {
		c.logger.Debug("Could not fetch company profile", zap.String("symbol", symbol))
	}

	return quote, nil
}

// GetQuotes fans out one quote request per symbol and collects the results.
// Symbols that fail are absent from the map.
func (c *FinnhubClient) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	type result struct {
		symbol string
		quote  *Quote
	}

	var wg sync.WaitGroup
	results := make(chan result, len(symbols))

	for _, s := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			q, err := c.GetQuote(ctx, symbol)
			if err != nil {
				c.logger.Warn("Failed to fetch quote", zap.String("symbol", symbol), zap.Error(err))
				return
			}
			results <- result{symbol: symbol, quote: q}
		}(s)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	quotes := make(map[string]*Quote, len(symbols))
	for r := range results {
		quotes[r.symbol] = r.quote
	}
	return quotes, nil
}

// finnhubSearch mirrors the /search payload.
type finnhubSearch struct {
	Result []struct {
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
	} `json:"result"`
}

// Search looks up symbols matching a free-text query.
func (c *FinnhubClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var payload finnhubSearch
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&payload).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search request failed with status %s", resp.Status())
	}

	results := make([]SearchResult, 0, len(payload.Result))
	for _, r := range payload.Result {
		results = append(results, SearchResult{Symbol: r.Symbol, Name: r.Description})
	}
	return results, nil
}

// Screener is not offered by Finnhub's free API; it returns an empty list.
func (c *FinnhubClient) Screener(ctx context.Context, screenID string, count int) ([]SearchResult, error) {
	c.logger.Debug("Screener not supported by finnhub provider", zap.String("screen_id", screenID))
	return nil, nil
}
