package store

import (
	"errors"

	"paper-trading-go/internal/models"

	"gorm.io/gorm"
)

// SnapshotRepository is the append-only NAV time series.
type SnapshotRepository struct {
	db *gorm.DB
}

// Append records a snapshot.
func (r *SnapshotRepository) Append(s *models.PortfolioSnapshot) error {
	return r.db.Create(s).Error
}

// List returns up to limit snapshots for a user, newest first.
func (r *SnapshotRepository) List(userID string, limit int) ([]models.PortfolioSnapshot, error) {
	var snaps []models.PortfolioSnapshot
	q := r.db.Where("user_id = ?", userID).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

// Latest returns the most recent snapshot, or nil when none exists.
func (r *SnapshotRepository) Latest(userID string) (*models.PortfolioSnapshot, error) {
	var s models.PortfolioSnapshot
	err := r.db.Where("user_id = ?", userID).Order("timestamp desc").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
