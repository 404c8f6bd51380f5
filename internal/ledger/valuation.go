package ledger

import (
	"context"
	"fmt"
	"time"

	"paper-trading-go/internal/market"
	"paper-trading-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// valuateLocked refreshes every holding against current quotes, recomputes
// the portfolio totals, persists the result and appends the daily snapshot
// on a calendar-day roll. The caller must hold the user's lock.
//
// A failed quote lookup leaves that holding's stored values untouched; the
// valuation stays consistent, just stale for that symbol.
func (e *Engine) valuateLocked(ctx context.Context, p *models.Portfolio) error {
	quotes := e.fetchQuotes(ctx, p)

	holdingsValue := decimal.Zero
	totalPL := decimal.Zero
	totalInvested := decimal.Zero
	dayChange := decimal.Zero
	sectorValues := map[string]decimal.Decimal{}

	for i := range p.Holdings {
		h := &p.Holdings[i]
		qty := decimal.NewFromInt(h.Quantity)

		if q, ok := quotes[h.Symbol]; ok {
			h.CurrentPrice = q.Price
			h.MarketValue = qty.Mul(q.Price)
			h.UnrealizedPL = h.MarketValue.Sub(h.CostBasis())
			if h.AveragePrice.IsPositive() {
				h.UnrealizedPLPercent = percent(h.UnrealizedPL, h.CostBasis())
			}
			h.DayChange = q.Change.Mul(qty)
			h.DayChangePercent = q.ChangePercent
			if q.Sector != "" {
				h.Sector = q.Sector
			} else if h.Sector == "" {
				h.Sector = "Other"
			}
			dayChange = dayChange.Add(h.DayChange)
		}

		holdingsValue = holdingsValue.Add(h.MarketValue)
		totalPL = totalPL.Add(h.UnrealizedPL)
		totalInvested = totalInvested.Add(h.CostBasis())
		sector := h.Sector
		if sector == "" {
			sector = "Other"
		}
		sectorValues[sector] = sectorValues[sector].Add(h.MarketValue)
	}

	// Weights and sector exposure are percentages of holdings value, not
	// of total value, so they sum to 100 whenever holdings exist.
	p.SectorExposure = models.SectorWeights{}
	if holdingsValue.IsPositive() {
		for i := range p.Holdings {
			p.Holdings[i].Weight = percent(p.Holdings[i].MarketValue, holdingsValue)
		}
		for sector, value := range sectorValues {
			p.SectorExposure[sector] = percent(value, holdingsValue)
		}
	}

	p.TotalValue = p.CashBalance.Add(holdingsValue)
	p.TotalPL = totalPL
	p.TotalPLPercent = 0
	if totalInvested.IsPositive() {
		p.TotalPLPercent = percent(totalPL, totalInvested)
	}
	p.DayPnL = dayChange
	p.DayPnLPercent = 0
	if base := p.TotalValue.Sub(dayChange); base.IsPositive() {
		p.DayPnLPercent = percent(dayChange, base)
	}
	p.RiskScore = riskScore(p.SectorExposure, len(p.Holdings))
	p.UpdatedAt = time.Now()

	if err := e.store.Portfolios.Save(p); err != nil {
		return fmt.Errorf("failed to save valuated portfolio: %w", err)
	}

	if err := e.snapshotIfDayRolled(p, holdingsValue); err != nil {
		// Snapshot writes never fail the read; the series just misses a day
		// until the next successful pass.
		e.logger.Warn("Failed to append daily snapshot",
			zap.String("user_id", p.UserID), zap.Error(err))
	}
	return nil
}

// fetchQuotes batches one quote lookup per distinct held symbol. A provider
// failure degrades to an empty result rather than failing the valuation.
func (e *Engine) fetchQuotes(ctx context.Context, p *models.Portfolio) map[string]*market.Quote {
	if len(p.Holdings) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(p.Holdings))
	symbols := make([]string, 0, len(p.Holdings))
	for i := range p.Holdings {
		if _, ok := seen[p.Holdings[i].Symbol]; ok {
			continue
		}
		seen[p.Holdings[i].Symbol] = struct{}{}
		symbols = append(symbols, p.Holdings[i].Symbol)
	}

	quotes, err := e.market.GetQuotes(ctx, symbols)
	if err != nil {
		e.logger.Warn("Batch quote lookup failed, valuation will be stale",
			zap.String("user_id", p.UserID), zap.Error(err))
		return nil
	}
	return quotes
}

// snapshotIfDayRolled appends a NAV snapshot when no snapshot exists for
// the current UTC calendar day. At most one snapshot per user per day.
func (e *Engine) snapshotIfDayRolled(p *models.Portfolio, holdingsValue decimal.Decimal) error {
	latest, err := e.store.Snapshots.Latest(p.UserID)
	if err != nil {
		return err
	}

	now := time.Now()
	if latest != nil && sameUTCDay(latest.Timestamp, now) {
		return nil
	}

	return e.store.Snapshots.Append(&models.PortfolioSnapshot{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		NAV:           p.TotalValue,
		Cash:          p.CashBalance,
		HoldingsValue: holdingsValue,
		Timestamp:     now,
	})
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// riskScore is a sector concentration heuristic: a portfolio carries a base
// risk of 20, plus 30 above 40% exposure to a single sector and another 30
// above 60%, capped at 100. An empty portfolio scores 0.
func riskScore(exposure models.SectorWeights, holdings int) int {
	if holdings == 0 {
		return 0
	}
	maxSector := 0.0
	for _, w := range exposure {
		if w > maxSector {
			maxSector = w
		}
	}
	score := 20
	if maxSector > 40 {
		score += 30
	}
	if maxSector > 60 {
		score += 30
	}
	if score > 100 {
		score = 100
	}
	return score
}

// percent returns part/whole as a percentage float.
func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	f, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Float64()
	return f
}
