package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade is an immutable entry in the append-only trade ledger. Trades are
// never mutated or deleted except on an explicit full portfolio reset.
type Trade struct {
	ID         string          `gorm:"primaryKey" json:"id"`
	UserID     string          `gorm:"index;not null" json:"userId"`
	Symbol     string          `gorm:"not null" json:"symbol"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	TotalValue decimal.Decimal `gorm:"type:numeric;not null" json:"totalValue"`
	Type       string          `gorm:"not null" json:"type"` // "BUY" or "SELL"
	Timestamp  time.Time       `gorm:"index" json:"timestamp"`
}
