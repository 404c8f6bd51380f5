package store

import (
	"gorm.io/gorm"
)

// Store bundles the ledger repositories over a single gorm connection.
type Store struct {
	db *gorm.DB

	Portfolios *PortfolioRepository
	Trades     *TradeRepository
	Orders     *OrderRepository
	Snapshots  *SnapshotRepository
}

// New creates a Store and its repositories.
func New(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Portfolios: &PortfolioRepository{db: db},
		Trades:     &TradeRepository{db: db},
		Orders:     &OrderRepository{db: db},
		Snapshots:  &SnapshotRepository{db: db},
	}
}

// Transactionally runs fn against a Store bound to one database transaction.
// Either every write inside fn commits, or none do. This is what keeps a
// Trade from being recorded without its matching Portfolio mutation.
func (s *Store) Transactionally(fn func(tx *Store) error) error {
	return s.db.Transaction(func(txdb *gorm.DB) error {
		return fn(New(txdb))
	})
}
