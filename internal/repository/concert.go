package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"showup-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConcertFilter narrows a concert listing. Zero values match everything.
type ConcertFilter struct {
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Boroughs   []string   `json:"boroughs,omitempty"`
	Performers []string   `json:"performers,omitempty"`
	Venues     []string   `json:"venues,omitempty"`
	Genre      string     `json:"genre,omitempty"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// ConcertRepository reads the concert catalogue
type ConcertRepository struct {
	db *gorm.DB
}

// NewConcertRepository creates a new concert repository
func NewConcertRepository(db *gorm.DB) *ConcertRepository {
	return &ConcertRepository{db: db}
}

// GetByID retrieves a concert by ID
func (r *ConcertRepository) GetByID(ctx context.Context, id uint) (*models.Concert, error) {
	var concert models.Concert
	err := r.db.WithContext(ctx).First(&concert, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("concert %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get concert: %w", err)
	}
	return &concert, nil
}

// Exists checks if a concert exists
func (r *ConcertRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Concert{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check concert existence: %w", err)
	}
	return count > 0, nil
}

// List returns concerts matching the filter ordered by start time, and the
// total number of matches
func (r *ConcertRepository) List(ctx context.Context, filter ConcertFilter) ([]models.Concert, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count concerts: %w", err)
	}

	q := r.filtered(ctx, filter).Order("datetime, id")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	concerts := []models.Concert{}
	if err := q.Find(&concerts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list concerts: %w", err)
	}
	return concerts, total, nil
}

func (r *ConcertRepository) filtered(ctx context.Context, filter ConcertFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Concert{})
	if filter.From != nil {
		q = q.Where("datetime >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("datetime < ?", *filter.To)
	}
	if len(filter.Boroughs) > 0 {
		q = q.Where("borough IN ?", filter.Boroughs)
	}
	if len(filter.Performers) > 0 {
		q = q.Where("performer_names IN ?", filter.Performers)
	}
	if len(filter.Venues) > 0 {
		q = q.Where("venue_name IN ?", filter.Venues)
	}
	if filter.Genre != "" {
		q = q.Where("LOWER(genres) LIKE ?", "%"+strings.ToLower(filter.Genre)+"%")
	}
	return q
}

// Upsert stores concerts coming from the catalogue feed
func (r *ConcertRepository) Upsert(ctx context.Context, concerts ...models.Concert) error {
	if len(concerts) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&concerts).Error
	if err != nil {
		return fmt.Errorf("failed to upsert concerts: %w", err)
	}
	return nil
}
