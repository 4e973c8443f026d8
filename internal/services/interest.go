package services

import (
	"context"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"
)

// InterestService tracks which concerts a squad is interested in or going to
type InterestService struct {
	store *repository.Store
}

// NewInterestService creates a new interest service
func NewInterestService(store *repository.Store) *InterestService {
	return &InterestService{store: store}
}

// MarkInterested toggles the "interested" mark and returns the resulting state
func (s *InterestService) MarkInterested(ctx context.Context, squadID, concertID uint) (models.Attendance, error) {
	return s.toggle(ctx, squadID, concertID, models.AttendanceInterested, models.AttendanceGoing)
}

// MarkGoing toggles the "going" mark and returns the resulting state
func (s *InterestService) MarkGoing(ctx context.Context, squadID, concertID uint) (models.Attendance, error) {
	return s.toggle(ctx, squadID, concertID, models.AttendanceGoing, models.AttendanceInterested)
}

// Attendance returns a squad's current mark on a concert
func (s *InterestService) Attendance(ctx context.Context, squadID, concertID uint) (models.Attendance, error) {
	for _, mark := range []models.Attendance{models.AttendanceGoing, models.AttendanceInterested} {
		ok, err := s.store.Squads.HasMark(ctx, mark, squadID, concertID)
		if err != nil {
			return "", translate(err)
		}
		if ok {
			return mark, nil
		}
	}
	return models.AttendanceNone, nil
}

// toggle removes mark if set; otherwise sets it and clears other
func (s *InterestService) toggle(ctx context.Context, squadID, concertID uint, mark, other models.Attendance) (models.Attendance, error) {
	state := models.AttendanceNone
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Squads.Exists(ctx, squadID)
		if err != nil {
			return err
		}
		if !exists {
			return notFoundf("squad %d", squadID)
		}
		exists, err = tx.Concerts.Exists(ctx, concertID)
		if err != nil {
			return err
		}
		if !exists {
			return notFoundf("concert %d", concertID)
		}

		marked, err := tx.Squads.HasMark(ctx, mark, squadID, concertID)
		if err != nil {
			return err
		}
		if marked {
			return tx.Squads.RemoveMark(ctx, mark, squadID, concertID)
		}

		if err := tx.Squads.AddMark(ctx, mark, squadID, concertID); err != nil {
			return err
		}
		if err := tx.Squads.RemoveMark(ctx, other, squadID, concertID); err != nil {
			return err
		}
		state = mark
		return nil
	})
	if err != nil {
		return "", translate(err)
	}
	return state, nil
}
