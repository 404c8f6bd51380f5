package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is one point of the NAV time series used by analytics.
// Append-only, at most one per user per calendar day.
type PortfolioSnapshot struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	UserID        string          `gorm:"index;not null" json:"userId"`
	NAV           decimal.Decimal `gorm:"column:nav;type:numeric;not null" json:"nav"`
	Cash          decimal.Decimal `gorm:"type:numeric" json:"cash"`
	HoldingsValue decimal.Decimal `gorm:"type:numeric" json:"holdingsValue"`
	Timestamp     time.Time       `gorm:"index" json:"timestamp"`
}
