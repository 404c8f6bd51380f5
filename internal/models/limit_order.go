package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the limit order lifecycle state. PENDING is the only
// actionable state; the other three are terminal.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderExecuted  OrderStatus = "EXECUTED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderExpired   OrderStatus = "EXPIRED"
)

// Terminal reports whether no further transition is legal from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderExecuted || s == OrderCancelled || s == OrderExpired
}

// LimitOrder is a resting order that executes when the market price
// crosses its target: BUY at price <= target, SELL at price >= target.
type LimitOrder struct {
	ID            string           `gorm:"primaryKey" json:"id"`
	UserID        string           `gorm:"index;not null" json:"userId"`
	Symbol        string           `gorm:"not null" json:"symbol"`
	Quantity      int64            `gorm:"not null" json:"quantity"`
	TargetPrice   decimal.Decimal  `gorm:"type:numeric;not null" json:"targetPrice"`
	Type          string           `gorm:"not null" json:"type"` // "BUY" or "SELL"
	Status        OrderStatus      `gorm:"index;not null" json:"status"`
	Timestamp     time.Time        `gorm:"index" json:"timestamp"`
	ExecutedPrice *decimal.Decimal `gorm:"type:numeric" json:"executedPrice,omitempty"`
	ExecutedAt    *time.Time       `json:"executedAt,omitempty"`
}
