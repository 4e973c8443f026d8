package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle. A Store
// created by Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB

	Users        *UserRepository
	Squads       *SquadRepository
	Swipes       *SwipeRepository
	JoinRequests *JoinRequestRepository
	Concerts     *ConcertRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewUserRepository(db),
		Squads:       NewSquadRepository(db),
		Swipes:       NewSwipeRepository(db),
		JoinRequests: NewJoinRequestRepository(db),
		Concerts:     NewConcertRepository(db),
	}
}

// Transaction runs fn inside a single database transaction. The store passed
// to fn must be used for every read and write that belongs to the unit.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
