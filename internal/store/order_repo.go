package store

import (
	"time"

	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository persists limit orders.
type OrderRepository struct {
	db *gorm.DB
}

// Save creates or updates a limit order.
func (r *OrderRepository) Save(o *models.LimitOrder) error {
	return r.db.Save(o).Error
}

// Find fetches an order by id.
func (r *OrderRepository) Find(id string) (*models.LimitOrder, error) {
	var o models.LimitOrder
	if err := r.db.First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns all of a user's orders, most recent first.
func (r *OrderRepository) ListByUser(userID string) ([]models.LimitOrder, error) {
	var orders []models.LimitOrder
	err := r.db.Where("user_id = ?", userID).Order("timestamp desc").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListPending returns a user's PENDING orders in submission order, so an
// earlier order's fill consumes funds before a later one is evaluated.
func (r *OrderRepository) ListPending(userID string) ([]models.LimitOrder, error) {
	var orders []models.LimitOrder
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.OrderPending).
		Order("timestamp asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus transitions an order. For EXECUTED, fillPrice must be set
// and the execution details are recorded on the order.
func (r *OrderRepository) UpdateStatus(id string, status models.OrderStatus, fillPrice *decimal.Decimal) error {
	updates := map[string]any{"status": status}
	if status == models.OrderExecuted && fillPrice != nil {
		now := time.Now()
		updates["executed_price"] = *fillPrice
		updates["executed_at"] = now
	}
	return r.db.Model(&models.LimitOrder{}).Where("id = ?", id).Updates(updates).Error
}
