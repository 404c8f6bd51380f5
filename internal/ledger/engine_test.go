package ledger

import (
	"context"
	"testing"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockMarketData is a mock implementation of the market.Data interface.
type MockMarketData struct {
	mock.Mock
}

func (m *MockMarketData) GetQuote(ctx context.Context, symbol string) (*market.Quote, error) {
	args := m.Called(symbol)
	if q := args.Get(0); q != nil {
		return q.(*market.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarketData) GetQuotes(ctx context.Context, symbols []string) (map[string]*market.Quote, error) {
	args := m.Called(symbols)
	if q := args.Get(0); q != nil {
		return q.(map[string]*market.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarketData) Search(ctx context.Context, query string) ([]market.SearchResult, error) {
	args := m.Called(query)
	if r := args.Get(0); r != nil {
		return r.([]market.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMarketData) Screener(ctx context.Context, screenID string, count int) ([]market.SearchResult, error) {
	args := m.Called(screenID, count)
	if r := args.Get(0); r != nil {
		return r.([]market.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func quoteFor(symbol string, price float64) *market.Quote {
	return &market.Quote{
		Symbol: symbol,
		Price:  decimal.NewFromFloat(price),
		Sector: "Technology",
	}
}

// setupTest creates an engine over a mock market client and a fresh
// in-memory database, isolated per test.
func setupTest(t *testing.T) (*Engine, *MockMarketData, *store.Store) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	mockData := new(MockMarketData)
	cfg := &config.Config{
		Portfolio: config.Portfolio{
			StartingCash:  1000000,
			Name:          "Default Portfolio",
			AnalyticsDays: 31,
		},
	}
	st := store.New(db)
	return NewEngine(zap.NewNop(), cfg, mockData, st), mockData, st
}

func TestGetPortfolio_CreatesOnFirstAccess(t *testing.T) {
	engine, _, _ := setupTest(t)

	p, err := engine.GetPortfolio(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "1000000", p.CashBalance.String())
	assert.Equal(t, "1000000", p.TotalValue.String())
	assert.Empty(t, p.Holdings)
	assert.Empty(t, p.SectorExposure)
}

func TestPlaceMarketOrder_Buy(t *testing.T) {
	engine, mockData, _ := setupTest(t)
	mockData.On("GetQuote", "X").Return(quoteFor("X", 500), nil)
	mockData.On("GetQuotes", []string{"X"}).Return(map[string]*market.Quote{"X": quoteFor("X", 500)}, nil)

	trade, err := engine.PlaceMarketOrder(context.Background(), "user-1", "X", 10, models.SideBuy)

	assert.NoError(t, err)
	assert.Equal(t, models.SideBuy, trade.Type)
	assert.Equal(t, "500", trade.Price.String())
	assert.Equal(t, "5000", trade.TotalValue.String())

	p, err := engine.RefreshAndValuate(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "995000", p.CashBalance.String())
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, "X", p.Holdings[0].Symbol)
	assert.Equal(t, int64(10), p.Holdings[0].Quantity)
	assert.Equal(t, "500", p.Holdings[0].AveragePrice.String())
	// Price unchanged, so total value is conserved.
	assert.Equal(t, "1000000", p.TotalValue.String())
	mockData.AssertExpectations(t)
}

func TestPlaceMarketOrder_InsufficientFundsLeavesLedgerUnchanged(t *testing.T) {
	engine, mockData, _ := setupTest(t)
	mockData.On("GetQuote", "X").Return(quoteFor("X", 500000), nil)

	_, err := engine.PlaceMarketOrder(context.Background(), "user-1", "X", 3, models.SideBuy)

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	p, err := engine.RefreshAndValuate(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "1000000", p.CashBalance.String())
	assert.Empty(t, p.Holdings)

	trades, err := engine.TradeHistory(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Empty(t, trades)
}

func TestPlaceMarketOrder_SellWithoutHolding(t *testing.T) {
	engine, mockData, _ := setupTest(t)
	mockData.On("GetQuote", "X").Return(quoteFor("X", 100), nil)

	_, err := engine.PlaceMarketOrder(context.Background(), "user-1", "X", 1, models.SideSell)

	assert.ErrorIs(t, err, ErrInsufficientHoldings)
}

func TestPlaceMarketOrder_QuoteUnavailable(t *testing.T) {
	engine, mockData, _ := setupTest(t)
	mockData.On("GetQuote", "GONE").Return(nil, market.ErrQuoteUnavailable)

	_, err := engine.PlaceMarketOrder(context.Background(), "user-1", "GONE", 1, models.SideBuy)

	assert.ErrorIs(t, err, ErrQuoteUnavailable)
}

func TestPlaceMarketOrder_RejectsBadInput(t *testing.T) {
	engine, _, _ := setupTest(t)

	_, err := engine.PlaceMarketOrder(context.Background(), "user-1", "X", 0, models.SideBuy)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = engine.PlaceMarketOrder(context.Background(), "user-1", "X", 5, "SHORT")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResetPortfolio_RestoresCashAndClearsTrades(t *testing.T) {
	engine, mockData, st := setupTest(t)
	mockData.On("GetQuote", "X").Return(quoteFor("X", 100), nil)

	_, err := engine.PlaceMarketOrder(context.Background(), "user-1", "X", 10, models.SideBuy)
	require.NoError(t, err)

	err = engine.ResetPortfolio(context.Background(), "user-1")
	assert.NoError(t, err)

	p, err := st.Portfolios.Load("user-1")
	require.NoError(t, err)
	assert.Equal(t, "1000000", p.CashBalance.String())
	assert.Empty(t, p.Holdings)

	trades, err := engine.TradeHistory(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Empty(t, trades)
}

func TestResetPortfolio_KeepsSnapshotHistory(t *testing.T) {
	engine, mockData, st := setupTest(t)
	mockData.On("GetQuotes", mock.Anything).Return(map[string]*market.Quote{}, nil).Maybe()

	// First read writes the day's snapshot.
	_, err := engine.GetPortfolio(context.Background(), "user-1")
	require.NoError(t, err)

	require.NoError(t, engine.ResetPortfolio(context.Background(), "user-1"))

	snaps, err := st.Snapshots.List("user-1", 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestResetPortfolio_NotFound(t *testing.T) {
	engine, _, _ := setupTest(t)

	err := engine.ResetPortfolio(context.Background(), "nobody")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFunds(t *testing.T) {
	engine, _, _ := setupTest(t)

	p, err := engine.AddFunds(context.Background(), "user-1", decimal.NewFromInt(50000))

	assert.NoError(t, err)
	assert.Equal(t, "1050000", p.CashBalance.String())
	assert.Equal(t, "1050000", p.TotalValue.String())

	_, err = engine.AddFunds(context.Background(), "user-1", decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestLeaderboard_RanksByTotalValue(t *testing.T) {
	engine, mockData, _ := setupTest(t)
	mockData.On("GetQuotes", mock.Anything).Return(map[string]*market.Quote{}, nil).Maybe()

	_, err := engine.GetPortfolio(context.Background(), "user-a")
	require.NoError(t, err)
	_, err = engine.GetPortfolio(context.Background(), "user-b")
	require.NoError(t, err)
	_, err = engine.AddFunds(context.Background(), "user-b", decimal.NewFromInt(1000))
	require.NoError(t, err)

	board, err := engine.Leaderboard(context.Background(), 10)

	assert.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "user-b", board[0].UserID)
	assert.Equal(t, "user-a", board[1].UserID)
}
