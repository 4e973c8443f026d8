package repository

import (
	"context"
	"errors"
	"fmt"

	"showup-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SquadRepository handles database operations for squads and their concert marks
type SquadRepository struct {
	db *gorm.DB
}

// NewSquadRepository creates a new squad repository
func NewSquadRepository(db *gorm.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

// Create creates a new empty squad
func (r *SquadRepository) Create(ctx context.Context) (*models.Squad, error) {
	squad := &models.Squad{}
	if err := r.db.WithContext(ctx).Create(squad).Error; err != nil {
		return nil, fmt.Errorf("failed to create squad: %w", err)
	}
	return squad, nil
}

// GetByID retrieves a squad with its members and concert marks
func (r *SquadRepository) GetByID(ctx context.Context, id uint) (*models.Squad, error) {
	var squad models.Squad
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&squad, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("squad %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get squad: %w", err)
	}

	if squad.Interested, err = r.MarkedConcerts(ctx, models.AttendanceInterested, id); err != nil {
		return nil, err
	}
	if squad.Going, err = r.MarkedConcerts(ctx, models.AttendanceGoing, id); err != nil {
		return nil, err
	}
	return &squad, nil
}

// Lock loads a squad row with a row lock held until the transaction ends.
// On SQLite the lock clause is dropped; writers are already serialized.
func (r *SquadRepository) Lock(ctx context.Context, id uint) error {
	var squad models.Squad
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&squad, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("squad %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to lock squad: %w", err)
	}
	return nil
}

// Exists checks if a squad exists
func (r *SquadRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Squad{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check squad existence: %w", err)
	}
	return count > 0, nil
}

// Delete deletes a squad by ID
func (r *SquadRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Squad{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete squad: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("squad %d: %w", id, ErrNotFound)
	}
	return nil
}

// HasMark checks whether a squad has the given mark on a concert
func (r *SquadRepository) HasMark(ctx context.Context, mark models.Attendance, squadID, concertID uint) (bool, error) {
	model, err := markModel(mark)
	if err != nil {
		return false, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(model).
		Where("squad_id = ? AND concert_id = ?", squadID, concertID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s mark: %w", mark, err)
	}
	return count > 0, nil
}

// AddMark adds a concert mark; adding an existing mark is a no-op
func (r *SquadRepository) AddMark(ctx context.Context, mark models.Attendance, squadID, concertID uint) error {
	row, err := markRow(mark, squadID, concertID)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to add %s mark: %w", mark, err)
	}
	return nil
}

// RemoveMark removes a concert mark if present
func (r *SquadRepository) RemoveMark(ctx context.Context, mark models.Attendance, squadID, concertID uint) error {
	model, err := markModel(mark)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Where("squad_id = ? AND concert_id = ?", squadID, concertID).
		Delete(model).Error
	if err != nil {
		return fmt.Errorf("failed to remove %s mark: %w", mark, err)
	}
	return nil
}

// MarkedConcerts lists the concert IDs a squad marked, ascending
func (r *SquadRepository) MarkedConcerts(ctx context.Context, mark models.Attendance, squadID uint) ([]uint, error) {
	model, err := markModel(mark)
	if err != nil {
		return nil, err
	}
	ids := []uint{}
	err = r.db.WithContext(ctx).Model(model).
		Where("squad_id = ?", squadID).
		Order("concert_id").
		Pluck("concert_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s concerts: %w", mark, err)
	}
	return ids, nil
}

// MoveMarks unions the marks of one squad into another and removes the
// source squad's rows. Marks the destination already has are kept once.
func (r *SquadRepository) MoveMarks(ctx context.Context, mark models.Attendance, fromSquadID, toSquadID uint) error {
	concertIDs, err := r.MarkedConcerts(ctx, mark, fromSquadID)
	if err != nil {
		return err
	}
	for _, concertID := range concertIDs {
		if err := r.AddMark(ctx, mark, toSquadID, concertID); err != nil {
			return err
		}
	}

	model, err := markModel(mark)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("squad_id = ?", fromSquadID).Delete(model).Error; err != nil {
		return fmt.Errorf("failed to clear %s marks: %w", mark, err)
	}
	return nil
}

func markModel(mark models.Attendance) (interface{}, error) {
	return markRow(mark, 0, 0)
}

func markRow(mark models.Attendance, squadID, concertID uint) (interface{}, error) {
	switch mark {
	case models.AttendanceInterested:
		return &models.SquadInterest{SquadID: squadID, ConcertID: concertID}, nil
	case models.AttendanceGoing:
		return &models.SquadGoing{SquadID: squadID, ConcertID: concertID}, nil
	default:
		return nil, fmt.Errorf("unknown attendance mark %q", mark)
	}
}

// DropInterestedWhereGoing removes "interested" marks on concerts the squad
// is also "going" to
func (r *SquadRepository) DropInterestedWhereGoing(ctx context.Context, squadID uint) error {
	going, err := r.MarkedConcerts(ctx, models.AttendanceGoing, squadID)
	if err != nil {
		return err
	}
	if len(going) == 0 {
		return nil
	}
	err = r.db.WithContext(ctx).
		Where("squad_id = ? AND concert_id IN ?", squadID, going).
		Delete(&models.SquadInterest{}).Error
	if err != nil {
		return fmt.Errorf("failed to reconcile marks: %w", err)
	}
	return nil
}
