package services

import (
	"context"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// SquadService owns squad membership
type SquadService struct {
	store *repository.Store
}

// NewSquadService creates a new squad service
func NewSquadService(store *repository.Store) *SquadService {
	return &SquadService{store: store}
}

// GetSquad retrieves a squad with its members and concert marks
func (s *SquadService) GetSquad(ctx context.Context, squadID uint) (*models.Squad, error) {
	squad, err := s.store.Squads.GetByID(ctx, squadID)
	return squad, translate(err)
}

// SquadOf returns the ID of the squad a user belongs to
func (s *SquadService) SquadOf(ctx context.Context, userID uint) (uint, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return 0, translate(err)
	}
	if user.SquadID == nil {
		return 0, notFoundf("user %d has no squad", userID)
	}
	return *user.SquadID, nil
}

// LeaveSquad moves a user out of a multi-member squad into a new singleton
// squad and returns the new squad's ID. The old squad keeps its ID, its other
// members and its concert marks.
func (s *SquadService) LeaveSquad(ctx context.Context, userID uint) (uint, error) {
	var newSquadID, oldSquadID uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.SquadID == nil {
			return notFoundf("user %d has no squad", userID)
		}
		oldSquadID = *user.SquadID

		if err := tx.Squads.Lock(ctx, oldSquadID); err != nil {
			return err
		}
		members, err := tx.Users.CountBySquad(ctx, oldSquadID)
		if err != nil {
			return err
		}
		if members <= 1 {
			return permissionf("cannot leave a squad of one")
		}

		squad, err := tx.Squads.Create(ctx)
		if err != nil {
			return err
		}
		newSquadID = squad.ID
		return tx.Users.SetSquad(ctx, userID, squad.ID)
	})
	if err != nil {
		return 0, translate(err)
	}

	log.Info().
		Uint("user_id", userID).
		Uint("old_squad_id", oldSquadID).
		Uint("new_squad_id", newSquadID).
		Msg("User left squad")

	return newSquadID, nil
}
