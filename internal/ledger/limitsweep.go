package ledger

import (
	"context"
	"errors"
	"fmt"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sweepLocked evaluates the user's PENDING limit orders against current
// prices and executes the ones whose trigger crossed. The caller must hold
// the user's lock, so a sweep can never interleave with another sweep or
// trade for the same user.
//
// Orders are processed in submission order: cash consumed by an earlier
// BUY correctly reduces availability for a later one. An order that fails
// funds or holdings re-validation stays PENDING for the next sweep; a
// transient shortfall never cancels a resting order.
func (e *Engine) sweepLocked(ctx context.Context, p *models.Portfolio) error {
	pending, err := e.store.Orders.ListPending(p.UserID)
	if err != nil {
		return fmt.Errorf("failed to load pending orders: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(pending))
	symbols := make([]string, 0, len(pending))
	for i := range pending {
		if _, ok := seen[pending[i].Symbol]; ok {
			continue
		}
		seen[pending[i].Symbol] = struct{}{}
		symbols = append(symbols, pending[i].Symbol)
	}

	quotes, err := e.market.GetQuotes(ctx, symbols)
	if err != nil {
		e.logger.Warn("Quote lookup failed, skipping limit sweep",
			zap.String("user_id", p.UserID), zap.Error(err))
		return nil
	}

	for i := range pending {
		order := &pending[i]
		quote, ok := quotes[order.Symbol]
		if !ok || !quote.Price.IsPositive() {
			continue
		}
		if !triggered(order, quote.Price) {
			continue
		}

		// Re-validate against the latest balances: a fill earlier in this
		// sweep may have consumed the cash or units this order needs.
		trade, err := applyTrade(p, order.Symbol, order.Quantity, order.Type, quote.Price, quote.Sector)
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrInsufficientHoldings) {
			e.logger.Info("Limit order triggered but short on funds or holdings, left pending",
				zap.String("order_id", order.ID),
				zap.String("symbol", order.Symbol),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to execute limit order %s: %w", order.ID, err)
		}

		fill := quote.Price
		err = e.store.Transactionally(func(tx *store.Store) error {
			if err := tx.Portfolios.Save(p); err != nil {
				return err
			}
			if err := tx.Trades.Append(trade); err != nil {
				return err
			}
			return tx.Orders.UpdateStatus(order.ID, models.OrderExecuted, &fill)
		})
		if err != nil {
			return fmt.Errorf("failed to persist limit order fill %s: %w", order.ID, err)
		}

		e.logger.Info("Executed limit order",
			zap.String("user_id", p.UserID),
			zap.String("order_id", order.ID),
			zap.String("symbol", order.Symbol),
			zap.String("side", order.Type),
			zap.Int64("quantity", order.Quantity),
			zap.String("fill_price", fill.String()),
		)
	}

	return nil
}

// triggered reports whether price crosses the order's target: a BUY fires
// at price <= target, a SELL at price >= target.
func triggered(order *models.LimitOrder, price decimal.Decimal) bool {
	if order.Type == models.SideBuy {
		return price.LessThanOrEqual(order.TargetPrice)
	}
	return price.GreaterThanOrEqual(order.TargetPrice)
}
