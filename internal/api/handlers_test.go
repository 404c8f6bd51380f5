package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubMarket serves quotes from a fixed table. Symbols not in the table
// behave like a delisted ticker.
type stubMarket struct {
	quotes map[string]*market.Quote
}

func (s *stubMarket) GetQuote(_ context.Context, symbol string) (*market.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", market.ErrQuoteUnavailable, symbol)
	}
	return q, nil
}

func (s *stubMarket) GetQuotes(_ context.Context, symbols []string) (map[string]*market.Quote, error) {
	out := make(map[string]*market.Quote)
	for _, sym := range symbols {
		if q, ok := s.quotes[sym]; ok {
			out[sym] = q
		}
	}
	return out, nil
}

func (s *stubMarket) Search(context.Context, string) ([]market.SearchResult, error) {
	return nil, nil
}

func (s *stubMarket) Screener(context.Context, string, int) ([]market.SearchResult, error) {
	return nil, nil
}

var _ market.Data = (*stubMarket)(nil)

// setupTestServer builds the full router over a fresh in-memory database.
func setupTestServer(t *testing.T, quotes map[string]*market.Quote) http.Handler {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	cfg := &config.Config{
		Portfolio: config.Portfolio{
			StartingCash:  1000000,
			Name:          "Default Portfolio",
			AnalyticsDays: 31,
		},
	}
	engine := ledger.NewEngine(zap.NewNop(), cfg, &stubMarket{quotes: quotes}, store.New(db))
	server := NewServer(0, NewHandler(zap.NewNop(), engine), zap.NewNop())
	return server.Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestServer(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireUser(t *testing.T) {
	router := setupTestServer(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/portfolio", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPortfolio_CreatesDefault(t *testing.T) {
	router := setupTestServer(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/portfolio", "user-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var p models.Portfolio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "1000000", p.CashBalance.String())
}

func TestPlaceMarketOrder_EndToEnd(t *testing.T) {
	router := setupTestServer(t, map[string]*market.Quote{
		"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(200), Sector: "Technology"},
	})

	rec := doRequest(t, router, http.MethodPost, "/api/trade", "user-1", map[string]any{
		"symbol": "AAPL", "quantity": 5, "type": models.SideBuy,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var trade models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trade))
	assert.Equal(t, "AAPL", trade.Symbol)
	assert.Equal(t, "1000", trade.TotalValue.String())

	rec = doRequest(t, router, http.MethodGet, "/api/trade/history", "user-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var trades []models.Trade
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades, 1)
}

func TestPlaceMarketOrder_ErrorMapping(t *testing.T) {
	router := setupTestServer(t, map[string]*market.Quote{
		"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(200), Sector: "Technology"},
	})

	t.Run("InvalidQuantity", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/trade", "user-1", map[string]any{
			"symbol": "AAPL", "quantity": 0, "type": models.SideBuy,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InsufficientHoldings", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/trade", "user-1", map[string]any{
			"symbol": "AAPL", "quantity": 1, "type": models.SideSell,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("QuoteUnavailable", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/api/trade", "user-1", map[string]any{
			"symbol": "GONE", "quantity": 1, "type": models.SideBuy,
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/trade", bytes.NewBufferString("{nope"))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLimitOrderLifecycleOverHTTP(t *testing.T) {
	router := setupTestServer(t, map[string]*market.Quote{
		"TSLA": {Symbol: "TSLA", Price: decimal.NewFromInt(300), Sector: "Consumer Cyclical"},
	})

	rec := doRequest(t, router, http.MethodPost, "/api/orders", "user-1", map[string]any{
		"symbol": "TSLA", "quantity": 2, "targetPrice": "250", "type": models.SideBuy,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var order models.LimitOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.OrderPending, order.Status)

	rec = doRequest(t, router, http.MethodGet, "/api/orders", "user-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var orders []models.LimitOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	// Another user must not be able to cancel it.
	rec = doRequest(t, router, http.MethodDelete, "/api/orders/"+order.ID, "user-2", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/orders/"+order.ID, "user-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Cancelling twice is a conflict.
	rec = doRequest(t, router, http.MethodDelete, "/api/orders/"+order.ID, "user-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/orders/no-such-order", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResetAndAddFunds(t *testing.T) {
	router := setupTestServer(t, map[string]*market.Quote{
		"AAPL": {Symbol: "AAPL", Price: decimal.NewFromInt(100), Sector: "Technology"},
	})

	// Reset before any portfolio exists.
	rec := doRequest(t, router, http.MethodPost, "/api/portfolio/reset", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doRequest(t, router, http.MethodGet, "/api/portfolio", "user-1", nil)
	doRequest(t, router, http.MethodPost, "/api/trade", "user-1", map[string]any{
		"symbol": "AAPL", "quantity": 10, "type": models.SideBuy,
	})

	rec = doRequest(t, router, http.MethodPost, "/api/portfolio/funds", "user-1", map[string]any{
		"amount": "5000",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	var p models.Portfolio
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "1004000", p.CashBalance.String()) // 1000000 - 1000 + 5000

	rec = doRequest(t, router, http.MethodPost, "/api/portfolio/funds", "user-1", map[string]any{
		"amount": "-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/portfolio/reset", "user-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/portfolio", "user-1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "1000000", p.CashBalance.String())
	assert.Empty(t, p.Holdings)
}

func TestAnalyticsAndLeaderboard(t *testing.T) {
	router := setupTestServer(t, nil)

	doRequest(t, router, http.MethodGet, "/api/portfolio", "user-a", nil)
	doRequest(t, router, http.MethodGet, "/api/portfolio", "user-b", nil)

	rec := doRequest(t, router, http.MethodGet, "/api/portfolio/analytics", "user-a", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var analytics ledger.Analytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analytics))
	assert.Zero(t, analytics.SharpeRatio)

	rec = doRequest(t, router, http.MethodGet, "/api/leaderboard", "user-a", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var entries []leaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}
