package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paper-trading-go/internal/config"
	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine is the portfolio ledger and order execution core. All collaborators
// are passed in at construction; there is no global state. Every mutating
// operation for a user runs under that user's exclusive lock.
type Engine struct {
	logger *zap.Logger
	cfg    *config.Config
	market market.Data
	store  *store.Store
	locks  *userLocks
}

// NewEngine creates the ledger engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, marketData market.Data, st *store.Store) *Engine {
	return &Engine{
		logger: logger,
		cfg:    cfg,
		market: marketData,
		store:  st,
		locks:  newUserLocks(),
	}
}

func (e *Engine) startingCash() decimal.Decimal {
	return decimal.NewFromFloat(e.cfg.Portfolio.StartingCash)
}

// loadOrCreate fetches the user's portfolio, creating it with the starting
// cash balance on first access.
func (e *Engine) loadOrCreate(userID string) (*models.Portfolio, error) {
	p, err := e.store.Portfolios.Load(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now()
		p = &models.Portfolio{
			ID:             uuid.NewString(),
			UserID:         userID,
			Name:           e.cfg.Portfolio.Name,
			CashBalance:    e.startingCash(),
			TotalValue:     e.startingCash(),
			SectorExposure: models.SectorWeights{},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.store.Portfolios.Save(p); err != nil {
			return nil, fmt.Errorf("failed to create portfolio for user %s: %w", userID, err)
		}
		e.logger.Info("Created portfolio", zap.String("user_id", userID))
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio for user %s: %w", userID, err)
	}
	return p, nil
}

// GetPortfolio returns the user's portfolio refreshed against current
// quotes. As a side effect it writes the daily NAV snapshot when the
// calendar day has rolled over and sweeps the user's pending limit orders.
func (e *Engine) GetPortfolio(ctx context.Context, userID string) (*models.Portfolio, error) {
	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if err := e.valuateLocked(ctx, p); err != nil {
		return nil, err
	}

	if err := e.sweepLocked(ctx, p); err != nil {
		// The sweep is a best-effort side effect of the read; the next
		// read retries it, so the refreshed portfolio is still returned.
		e.logger.Warn("Limit order sweep failed", zap.String("user_id", userID), zap.Error(err))
	}

	return p, nil
}

// RefreshAndValuate revalues the portfolio against current quotes, persists
// it and appends the daily snapshot. It is GetPortfolio without the limit
// order sweep.
func (e *Engine) RefreshAndValuate(ctx context.Context, userID string) (*models.Portfolio, error) {
	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}
	if err := e.valuateLocked(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PlaceMarketOrder executes a BUY or SELL at the quote source's current
// price. The fill price is always looked up fresh, never client-supplied.
func (e *Engine) PlaceMarketOrder(ctx context.Context, userID, symbol string, quantity int64, side string) (*models.Trade, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("%w: unknown trade type %q", ErrInvalidArgument, side)
	}

	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	quote, err := e.market.GetQuote(ctx, symbol)
	if err != nil {
		e.logger.Warn("Quote lookup failed for market order",
			zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}
	if !quote.Price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
	}

	trade, err := applyTrade(p, symbol, quantity, side, quote.Price, quote.Sector)
	if err != nil {
		return nil, err
	}

	err = e.store.Transactionally(func(tx *store.Store) error {
		if err := tx.Portfolios.Save(p); err != nil {
			return err
		}
		return tx.Trades.Append(trade)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist trade: %w", err)
	}

	e.logger.Info("Executed market order",
		zap.String("user_id", userID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Int64("quantity", quantity),
		zap.String("price", quote.Price.String()),
	)
	return trade, nil
}

// PlaceLimitOrder submits a resting order. Funds and holdings are
// pre-validated against the current balances as a courtesy; the binding
// check happens again at fill time.
func (e *Engine) PlaceLimitOrder(ctx context.Context, userID, symbol string, quantity int64, targetPrice decimal.Decimal, side string) (*models.LimitOrder, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if !targetPrice.IsPositive() {
		return nil, fmt.Errorf("%w: target price must be positive", ErrInvalidArgument)
	}
	if side != models.SideBuy && side != models.SideSell {
		return nil, fmt.Errorf("%w: unknown trade type %q", ErrInvalidArgument, side)
	}

	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	if side == models.SideBuy {
		required := targetPrice.Mul(decimal.NewFromInt(quantity))
		if p.CashBalance.LessThan(required) {
			return nil, fmt.Errorf("%w: need %s, have %s",
				ErrInsufficientFunds, required.StringFixed(2), p.CashBalance.StringFixed(2))
		}
	} else {
		idx := p.HoldingIndex(symbol)
		if idx < 0 || p.Holdings[idx].Quantity < quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientHoldings, symbol)
		}
	}

	order := &models.LimitOrder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symbol:      symbol,
		Quantity:    quantity,
		TargetPrice: targetPrice,
		Type:        side,
		Status:      models.OrderPending,
		Timestamp:   time.Now(),
	}
	if err := e.store.Orders.Save(order); err != nil {
		return nil, fmt.Errorf("failed to save limit order: %w", err)
	}

	e.logger.Info("Placed limit order",
		zap.String("user_id", userID),
		zap.String("order_id", order.ID),
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.String("target", targetPrice.String()),
	)
	return order, nil
}

// ListLimitOrders returns all of the user's limit orders, newest first.
func (e *Engine) ListLimitOrders(ctx context.Context, userID string) ([]models.LimitOrder, error) {
	return e.store.Orders.ListByUser(userID)
}

// CancelLimitOrder transitions a PENDING order to CANCELLED. Cancellation
// is the only user-initiated transition and is illegal from any other state.
func (e *Engine) CancelLimitOrder(ctx context.Context, userID, orderID string) error {
	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	order, err := e.store.Orders.Find(orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if order.UserID != userID {
		return fmt.Errorf("%w: order %s", ErrForbidden, orderID)
	}
	if order.Status != models.OrderPending {
		return fmt.Errorf("%w: order is %s", ErrInvalidOrderState, order.Status)
	}

	if err := e.store.Orders.UpdateStatus(orderID, models.OrderCancelled, nil); err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	e.logger.Info("Cancelled limit order", zap.String("user_id", userID), zap.String("order_id", orderID))
	return nil
}

// TradeHistory returns the user's trade ledger, most recent first.
func (e *Engine) TradeHistory(ctx context.Context, userID string) ([]models.Trade, error) {
	return e.store.Trades.ListByUser(userID)
}

// GetAnalytics derives risk statistics from the user's snapshot series.
func (e *Engine) GetAnalytics(ctx context.Context, userID string) (*Analytics, error) {
	snapshots, err := e.store.Snapshots.List(userID, e.cfg.Portfolio.AnalyticsDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots for user %s: %w", userID, err)
	}
	a := ComputeAnalytics(snapshots)
	return &a, nil
}

// ResetPortfolio restores the starting cash balance, drops every holding
// and clears the trade history. Snapshot history is kept.
func (e *Engine) ResetPortfolio(ctx context.Context, userID string) error {
	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.store.Portfolios.Load(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: portfolio for user %s", ErrNotFound, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to load portfolio for user %s: %w", userID, err)
	}

	p.Holdings = nil
	p.CashBalance = e.startingCash()
	p.TotalValue = e.startingCash()
	p.TotalPL = decimal.Zero
	p.TotalPLPercent = 0
	p.DayPnL = decimal.Zero
	p.DayPnLPercent = 0
	p.RiskScore = 0
	p.SectorExposure = models.SectorWeights{}
	p.UpdatedAt = time.Now()

	err = e.store.Transactionally(func(tx *store.Store) error {
		if err := tx.Portfolios.Save(p); err != nil {
			return err
		}
		return tx.Trades.DeleteByUser(userID)
	})
	if err != nil {
		return fmt.Errorf("failed to reset portfolio: %w", err)
	}

	e.logger.Info("Reset portfolio", zap.String("user_id", userID))
	return nil
}

// AddFunds credits simulated cash to the portfolio.
func (e *Engine) AddFunds(ctx context.Context, userID string, amount decimal.Decimal) (*models.Portfolio, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}

	lk := e.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()

	p, err := e.loadOrCreate(userID)
	if err != nil {
		return nil, err
	}

	p.CashBalance = p.CashBalance.Add(amount)
	p.TotalValue = p.TotalValue.Add(amount)
	p.UpdatedAt = time.Now()

	if err := e.store.Portfolios.Save(p); err != nil {
		return nil, fmt.Errorf("failed to add funds: %w", err)
	}

	e.logger.Info("Added funds", zap.String("user_id", userID), zap.String("amount", amount.String()))
	return p, nil
}

// Leaderboard returns up to limit portfolios ranked by total value.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]models.Portfolio, error) {
	return e.store.Portfolios.List(limit)
}
