package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"showup-backend/internal/models"

	"gorm.io/gorm"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user together with its genre associations. Emails
// are stored lower-cased so the unique index is case-insensitive.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Genres").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// ListBySquad returns the members of a squad ordered by ID
func (r *UserRepository) ListBySquad(ctx context.Context, squadID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("squad_id = ?", squadID).Order("id").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list squad members: %w", err)
	}
	return users, nil
}

// CountBySquad returns the number of members in a squad
func (r *UserRepository) CountBySquad(ctx context.Context, squadID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("squad_id = ?", squadID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count squad members: %w", err)
	}
	return count, nil
}

// SetSquad assigns a single user to a squad
func (r *UserRepository) SetSquad(ctx context.Context, userID, squadID uint) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("squad_id", squadID)
	if result.Error != nil {
		return fmt.Errorf("failed to set squad: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// MoveSquad reassigns every member of one squad to another
func (r *UserRepository) MoveSquad(ctx context.Context, fromSquadID, toSquadID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("squad_id = ?", fromSquadID).
		Update("squad_id", toSquadID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to move squad members: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateProfile replaces a user's bio and favourite genres
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User, bio string, genres []models.Genre) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(user).Update("bio", bio).Error; err != nil {
		return fmt.Errorf("failed to update bio: %w", err)
	}
	if err := db.Model(user).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("failed to update genres: %w", err)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID uint, pushToken *string) error {
	return r.updateColumn(ctx, userID, "push_token", pushToken)
}

// UpdateAvatarURL updates the avatar URL for a user
func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID uint, avatarURL string) error {
	return r.updateColumn(ctx, userID, "avatar_url", avatarURL)
}

// MarkEmailVerified records that the identity provider verified the user's email
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uint) error {
	return r.updateColumn(ctx, userID, "email_verified", true)
}

func (r *UserRepository) updateColumn(ctx context.Context, userID uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// GenresByName finds or creates a genre row for every name
func (r *UserRepository) GenresByName(ctx context.Context, names []string) ([]models.Genre, error) {
	genres := make([]models.Genre, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var genre models.Genre
		err := r.db.WithContext(ctx).Where(models.Genre{Name: name}).FirstOrCreate(&genre).Error
		if err != nil {
			return nil, fmt.Errorf("failed to find or create genre %q: %w", name, err)
		}
		genres = append(genres, genre)
	}
	return genres, nil
}
