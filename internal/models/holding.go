package models

import "github.com/shopspring/decimal"

// Holding is a position in a single symbol. Quantity is always positive;
// a holding sold down to zero is deleted rather than persisted at zero.
// AveragePrice is the weighted-average cost basis and only changes on buys.
type Holding struct {
	ID                  string          `gorm:"primaryKey" json:"id"`
	PortfolioID         string          `gorm:"index;not null" json:"-"`
	Symbol              string          `gorm:"index;not null" json:"symbol"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	AveragePrice        decimal.Decimal `gorm:"type:numeric;not null" json:"averagePrice"`
	CurrentPrice        decimal.Decimal `gorm:"type:numeric" json:"currentPrice"`
	MarketValue         decimal.Decimal `gorm:"type:numeric" json:"marketValue"`
	UnrealizedPL        decimal.Decimal `gorm:"type:numeric" json:"unrealizedPL"`
	UnrealizedPLPercent float64         `json:"unrealizedPLPercent"`
	DayChange           decimal.Decimal `gorm:"type:numeric" json:"dayChange"`
	DayChangePercent    float64         `json:"dayChangePercent"`
	Sector              string          `json:"sector"`
	Weight              float64         `json:"weight"`
}

// CostBasis returns quantity x averagePrice.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.AveragePrice.Mul(decimal.NewFromInt(h.Quantity))
}
