package store

import (
	"fmt"

	"paper-trading-go/internal/models"

	"gorm.io/gorm"
)

// PortfolioRepository persists portfolios and their holdings.
type PortfolioRepository struct {
	db *gorm.DB
}

// Load fetches a user's portfolio with its holdings. Returns
// gorm.ErrRecordNotFound when the user has no portfolio yet.
func (r *PortfolioRepository) Load(userID string) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.Preload("Holdings").Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the portfolio row and reconciles its holdings: present
// holdings are upserted, holdings no longer on the portfolio are deleted.
// A holding sold to zero quantity therefore disappears from storage.
func (r *PortfolioRepository) Save(p *models.Portfolio) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Holdings").Save(p).Error; err != nil {
			return fmt.Errorf("failed to save portfolio: %w", err)
		}

		keep := make([]string, 0, len(p.Holdings))
		for i := range p.Holdings {
			h := &p.Holdings[i]
			h.PortfolioID = p.ID
			if err := tx.Save(h).Error; err != nil {
				return fmt.Errorf("failed to save holding %s: %w", h.Symbol, err)
			}
			keep = append(keep, h.ID)
		}

		q := tx.Where("portfolio_id = ?", p.ID)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Delete(&models.Holding{}).Error; err != nil {
			return fmt.Errorf("failed to prune holdings: %w", err)
		}
		return nil
	})
}

// List returns up to limit portfolios ordered by total value, highest
// first. Used by the leaderboard.
func (r *PortfolioRepository) List(limit int) ([]models.Portfolio, error) {
	var portfolios []models.Portfolio
	q := r.db.Preload("Holdings").Order("total_value desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&portfolios).Error; err != nil {
		return nil, err
	}
	return portfolios, nil
}
