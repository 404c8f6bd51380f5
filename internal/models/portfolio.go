package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SectorWeights maps a sector name to its percentage of total holdings value.
type SectorWeights map[string]float64

// Portfolio is the single virtual portfolio owned by a user.
// The ledger invariant is cashBalance + sum(holding.marketValue) == totalValue
// after every valuation pass, and cashBalance never goes negative.
type Portfolio struct {
	ID             string          `gorm:"primaryKey" json:"id"`
	UserID         string          `gorm:"uniqueIndex;not null" json:"userId"`
	Name           string          `json:"name"`
	Holdings       []Holding       `gorm:"foreignKey:PortfolioID" json:"holdings"`
	CashBalance    decimal.Decimal `gorm:"type:numeric;not null" json:"cashBalance"`
	TotalValue     decimal.Decimal `gorm:"type:numeric" json:"totalValue"`
	TotalPL        decimal.Decimal `gorm:"type:numeric" json:"totalPL"`
	TotalPLPercent float64         `json:"totalPLPercent"`
	DayPnL         decimal.Decimal `gorm:"type:numeric" json:"dayPnL"`
	DayPnLPercent  float64         `json:"dayPnLPercent"`
	RiskScore      int             `json:"riskScore"`
	SectorExposure SectorWeights   `gorm:"serializer:json" json:"sectorExposure"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// HoldingIndex returns the index of the holding for symbol, or -1.
func (p *Portfolio) HoldingIndex(symbol string) int {
	for i := range p.Holdings {
		if p.Holdings[i].Symbol == symbol {
			return i
		}
	}
	return -1
}

// HoldingsValue sums the current market value of all holdings.
func (p *Portfolio) HoldingsValue() decimal.Decimal {
	total := decimal.Zero
	for i := range p.Holdings {
		total = total.Add(p.Holdings[i].MarketValue)
	}
	return total
}
