package ledger

import (
	"fmt"
	"time"

	"paper-trading-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// applyTrade mutates the in-memory portfolio for one BUY or SELL at
// fillPrice and returns the matching ledger entry. Validation happens
// before any mutation, so a rejected trade leaves the portfolio unchanged.
// The caller persists the portfolio and the trade in one transaction.
func applyTrade(p *models.Portfolio, symbol string, quantity int64, side string, fillPrice decimal.Decimal, sector string) (*models.Trade, error) {
	qty := decimal.NewFromInt(quantity)
	total := fillPrice.Mul(qty)

	switch side {
	case models.SideBuy:
		if p.CashBalance.LessThan(total) {
			return nil, fmt.Errorf("%w: need %s, have %s",
				ErrInsufficientFunds, total.StringFixed(2), p.CashBalance.StringFixed(2))
		}
		buy(p, symbol, quantity, fillPrice, sector)
		p.CashBalance = p.CashBalance.Sub(total)

	case models.SideSell:
		idx := p.HoldingIndex(symbol)
		if idx < 0 || p.Holdings[idx].Quantity < quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientHoldings, symbol)
		}
		sell(p, idx, quantity, fillPrice)
		p.CashBalance = p.CashBalance.Add(total)

	default:
		return nil, fmt.Errorf("%w: unknown trade type %q", ErrInvalidArgument, side)
	}

	p.TotalValue = p.CashBalance.Add(p.HoldingsValue())
	p.UpdatedAt = time.Now()

	return &models.Trade{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		Symbol:     symbol,
		Quantity:   quantity,
		Price:      fillPrice,
		TotalValue: total,
		Type:       side,
		Timestamp:  time.Now(),
	}, nil
}

// buy upserts the holding. A repeat buy re-averages the cost basis as
// (oldAvg*oldQty + fillPrice*fillQty) / (oldQty + fillQty).
func buy(p *models.Portfolio, symbol string, quantity int64, fillPrice decimal.Decimal, sector string) {
	qty := decimal.NewFromInt(quantity)

	if idx := p.HoldingIndex(symbol); idx >= 0 {
		h := &p.Holdings[idx]
		oldQty := decimal.NewFromInt(h.Quantity)
		newQty := oldQty.Add(qty)
		h.AveragePrice = h.AveragePrice.Mul(oldQty).Add(fillPrice.Mul(qty)).Div(newQty)
		h.Quantity += quantity
		refreshHolding(h, fillPrice)
		return
	}

	if sector == "" {
		sector = "Other"
	}
	p.Holdings = append(p.Holdings, models.Holding{
		ID:           uuid.NewString(),
		PortfolioID:  p.ID,
		Symbol:       symbol,
		Quantity:     quantity,
		AveragePrice: fillPrice,
		CurrentPrice: fillPrice,
		MarketValue:  fillPrice.Mul(qty),
		Sector:       sector,
	})
}

// sell decrements the holding, removing it entirely at zero quantity.
// The average price is untouched: cost basis only changes via buys.
func sell(p *models.Portfolio, idx int, quantity int64, fillPrice decimal.Decimal) {
	h := &p.Holdings[idx]
	if h.Quantity == quantity {
		p.Holdings = append(p.Holdings[:idx], p.Holdings[idx+1:]...)
		return
	}
	h.Quantity -= quantity
	refreshHolding(h, fillPrice)
}

// refreshHolding recomputes the holding's derived values at price.
func refreshHolding(h *models.Holding, price decimal.Decimal) {
	qty := decimal.NewFromInt(h.Quantity)
	h.CurrentPrice = price
	h.MarketValue = price.Mul(qty)
	h.UnrealizedPL = h.MarketValue.Sub(h.CostBasis())
	h.UnrealizedPLPercent = 0
	if h.AveragePrice.IsPositive() {
		h.UnrealizedPLPercent = percent(h.UnrealizedPL, h.CostBasis())
	}
}
