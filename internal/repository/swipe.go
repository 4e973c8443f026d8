package repository

import (
	"context"
	"errors"
	"fmt"

	"showup-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwipeRepository handles database operations for swipes
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new swipe repository
func NewSwipeRepository(db *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: db}
}

// GetOrCreate inserts the swipe unless one already exists for the same
// swiper, swipee and concert, and returns the stored row. An existing row
// is never updated, so a repeat with another direction keeps the first one.
func (r *SwipeRepository) GetOrCreate(ctx context.Context, swipe *models.Swipe) (*models.Swipe, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "swiper_id"}, {Name: "swipee_id"}, {Name: "concert_id"}},
			DoNothing: true,
		}).
		Create(swipe)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create swipe: %w", result.Error)
	}
	created := result.RowsAffected == 1

	stored, err := r.Get(ctx, swipe.SwiperID, swipe.SwipeeID, swipe.ConcertID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Get retrieves the swipe for a swiper, swipee and concert
func (r *SwipeRepository) Get(ctx context.Context, swiperID, swipeeID, concertID uint) (*models.Swipe, error) {
	var swipe models.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ? AND swipee_id = ? AND concert_id = ?", swiperID, swipeeID, concertID).
		First(&swipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("swipe %d->%d on %d: %w", swiperID, swipeeID, concertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get swipe: %w", err)
	}
	return &swipe, nil
}

// HasRightSwipe checks if swiper swiped right on swipee for a concert
func (r *SwipeRepository) HasRightSwipe(ctx context.Context, swiperID, swipeeID, concertID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Swipe{}).
		Where("swiper_id = ? AND swipee_id = ? AND concert_id = ? AND direction = ?", swiperID, swipeeID, concertID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check right swipe: %w", err)
	}
	return count > 0, nil
}

// Candidates returns the squads a squad may still swipe on for a concert:
// squads that marked the concert, minus itself, minus squads that swiped
// left on it, minus squads it already swiped on.
func (r *SwipeRepository) Candidates(ctx context.Context, squadID, concertID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT marked.squad_id FROM (
			SELECT squad_id FROM squad_interested WHERE concert_id = ?
			UNION
			SELECT squad_id FROM squad_going WHERE concert_id = ?
		) AS marked
		WHERE marked.squad_id <> ?
		  AND marked.squad_id NOT IN (
			SELECT swiper_id FROM swipes WHERE swipee_id = ? AND concert_id = ? AND direction = ?)
		  AND marked.squad_id NOT IN (
			SELECT swipee_id FROM swipes WHERE swiper_id = ? AND concert_id = ?)
		ORDER BY marked.squad_id`,
		concertID, concertID,
		squadID,
		squadID, concertID, false,
		squadID, concertID,
	).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list swipe candidates: %w", err)
	}
	return ids, nil
}

// Matches returns every (squad, concert) where both sides swiped right,
// ordered by concert then squad
func (r *SwipeRepository) Matches(ctx context.Context, squadID uint) ([]models.Match, error) {
	matches := []models.Match{}
	err := r.db.WithContext(ctx).Raw(`
		SELECT mine.swipee_id AS squad_id, mine.concert_id AS concert_id
		FROM swipes AS mine
		JOIN swipes AS theirs
		  ON theirs.swiper_id = mine.swipee_id
		 AND theirs.swipee_id = mine.swiper_id
		 AND theirs.concert_id = mine.concert_id
		WHERE mine.swiper_id = ? AND mine.direction = ? AND theirs.direction = ?
		ORDER BY mine.concert_id, mine.swipee_id`,
		squadID, true, true,
	).Scan(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// IsMatched checks if two squads matched on at least one concert
func (r *SwipeRepository) IsMatched(ctx context.Context, squadA, squadB uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM swipes AS mine
		JOIN swipes AS theirs
		  ON theirs.swiper_id = mine.swipee_id
		 AND theirs.swipee_id = mine.swiper_id
		 AND theirs.concert_id = mine.concert_id
		WHERE mine.swiper_id = ? AND mine.swipee_id = ? AND mine.direction = ? AND theirs.direction = ?`,
		squadA, squadB, true, true,
	).Scan(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check match: %w", err)
	}
	return count > 0, nil
}

// DeleteBySquad deletes every swipe a squad made or received
func (r *SwipeRepository) DeleteBySquad(ctx context.Context, squadID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("swiper_id = ? OR swipee_id = ?", squadID, squadID).
		Delete(&models.Swipe{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete swipes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
