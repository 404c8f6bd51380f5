package market

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paper-trading-go/internal/config"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches quotes from the public Yahoo Finance endpoints.
// It implements the Data interface.
type YahooClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

// ensure YahooClient implements the interface
var _ Data = (*YahooClient)(nil)

// NewYahooClient creates a rate-limited Yahoo Finance client.
func NewYahooClient(cfg *config.Market, logger *zap.Logger) *YahooClient {
	client := resty.New().
		SetBaseURL(yahooBaseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; paper-trading-go)")

	return &YahooClient{
		client:  client,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *YahooClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// quoteResponse mirrors the /v7/finance/quote payload.
type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketChange        float64 `json:"regularMarketChange"`
			RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
			RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
			RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
			Sector                     string  `json:"sector"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// GetQuote fetches the current quote for one symbol.
func (c *YahooClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}
	return q, nil
}

// GetQuotes fetches quotes for multiple symbols in a single batched call.
func (c *YahooClient) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	if len(symbols) == 0 {
		return map[string]*Quote{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload quoteResponse
	req := c.client.R().
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&payload)

	if _, err := c.doRequest(ctx, "GET", "/v7/finance/quote", req); err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}

	quotes := make(map[string]*Quote, len(payload.QuoteResponse.Result))
	for _, r := range payload.QuoteResponse.Result {
		if r.RegularMarketPrice <= 0 {
			c.logger.Warn("Yahoo returned no usable price for symbol", zap.String("symbol", r.Symbol))
			continue
		}
		quotes[r.Symbol] = &Quote{
			Symbol:        r.Symbol,
			Price:         decimal.NewFromFloat(r.RegularMarketPrice),
			Change:        decimal.NewFromFloat(r.RegularMarketChange),
			ChangePercent: r.RegularMarketChangePercent,
			DayLow:        decimal.NewFromFloat(r.RegularMarketDayLow),
			DayHigh:       decimal.NewFromFloat(r.RegularMarketDayHigh),
			Sector:        r.Sector,
		}
	}

	return quotes, nil
}

// searchResponse mirrors the /v1/finance/search payload.
type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		Sector    string `json:"sector"`
	} `json:"quotes"`
}

// Search looks up symbols matching a free-text query.
func (c *YahooClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload searchResponse
	req := c.client.R().
		SetQueryParam("q", query).
		SetResult(&payload)

	if _, err := c.doRequest(ctx, "GET", "/v1/finance/search", req); err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	results := make([]SearchResult, 0, len(payload.Quotes))
	for _, q := range payload.Quotes {
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		results = append(results, SearchResult{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Sector:   q.Sector,
		})
	}
	return results, nil
}

// screenerResponse mirrors the predefined screener payload.
type screenerResponse struct {
	Finance struct {
		Result []struct {
			Quotes []struct {
				Symbol    string `json:"symbol"`
				ShortName string `json:"shortName"`
				Exchange  string `json:"fullExchangeName"`
			} `json:"quotes"`
		} `json:"result"`
	} `json:"finance"`
}

// Screener returns symbols for one of Yahoo's predefined screens
// (e.g. "day_gainers", "most_actives").
func (c *YahooClient) Screener(ctx context.Context, screenID string, count int) ([]SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var payload screenerResponse
	req := c.client.R().
		SetQueryParam("scrIds", screenID).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&payload)

	if _, err := c.doRequest(ctx, "GET", "/v1/finance/screener/predefined/saved", req); err != nil {
		return nil, fmt.Errorf("failed to run screener %s: %w", screenID, err)
	}

	var results []SearchResult
	for _, r := range payload.Finance.Result {
		for _, q := range r.Quotes {
			results = append(results, SearchResult{
				Symbol:   q.Symbol,
				Name:     q.ShortName,
				Exchange: q.Exchange,
			})
		}
	}
	return results, nil
}
