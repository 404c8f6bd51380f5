package store

import (
	"paper-trading-go/internal/models"

	"gorm.io/gorm"
)

// TradeRepository is the append-only trade ledger.
type TradeRepository struct {
	db *gorm.DB
}

// Append records a trade. Trades are never updated.
func (r *TradeRepository) Append(t *models.Trade) error {
	return r.db.Create(t).Error
}

// ListByUser returns a user's trades, most recent first.
func (r *TradeRepository) ListByUser(userID string) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Where("user_id = ?", userID).Order("timestamp desc").Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// DeleteByUser wipes a user's trade history. Only called on a full
// portfolio reset.
func (r *TradeRepository) DeleteByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Trade{}).Error
}
