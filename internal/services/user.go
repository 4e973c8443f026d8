package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	dateLayout   = "2006-01-02"
	maxBioLength = 500
	maxNameLen   = 100
)

// UserService handles user-related business logic
type UserService struct {
	store      *repository.Store
	jwtSecret  string
	jwtExpDays int
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(store *repository.Store, jwtSecret string, jwtExpDays int) *UserService {
	if jwtExpDays <= 0 {
		jwtExpDays = 365
	}
	return &UserService{
		store:      store,
		jwtSecret:  jwtSecret,
		jwtExpDays: jwtExpDays,
		now:        time.Now,
	}
}

// SignupInput is the profile submitted at signup
type SignupInput struct {
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	DateOfBirth string   `json:"date_of_birth"`
	Gender      string   `json:"gender"`
	Bio         string   `json:"bio"`
	Genres      []string `json:"genres"`
}

// Validate checks the input and returns the parsed date of birth
func (in *SignupInput) Validate(now time.Time) (time.Time, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return time.Time{}, validationf("a valid email is required")
	}
	if in.DisplayName == "" {
		return time.Time{}, validationf("display_name is required")
	}
	if len(in.DisplayName) > maxNameLen {
		return time.Time{}, validationf("display_name must be at most %d characters", maxNameLen)
	}
	if len(in.Bio) > maxBioLength {
		return time.Time{}, validationf("bio must be at most %d characters", maxBioLength)
	}

	dob, err := time.Parse(dateLayout, in.DateOfBirth)
	if err != nil {
		return time.Time{}, validationf("date_of_birth must be formatted YYYY-MM-DD")
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if dob.After(today) {
		return time.Time{}, validationf("date_of_birth cannot be in the future")
	}
	return dob, nil
}

// ProfileInput holds the editable part of a profile
type ProfileInput struct {
	Bio    string   `json:"bio"`
	Genres []string `json:"genres"`
}

// Validate checks the input
func (in *ProfileInput) Validate() error {
	if len(in.Bio) > maxBioLength {
		return validationf("bio must be at most %d characters", maxBioLength)
	}
	return nil
}

// CreateUser creates a user in a new singleton squad and issues a token
func (s *UserService) CreateUser(ctx context.Context, in SignupInput) (*models.User, string, error) {
	dob, err := in.Validate(s.now())
	if err != nil {
		return nil, "", err
	}

	var user *models.User
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Users.EmailExists(ctx, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: email %s is already registered", ErrConflict, in.Email)
		}

		squad, err := tx.Squads.Create(ctx)
		if err != nil {
			return err
		}

		genres, err := tx.Users.GenresByName(ctx, in.Genres)
		if err != nil {
			return err
		}

		user = &models.User{
			Email:       in.Email,
			DisplayName: in.DisplayName,
			DateOfBirth: dob,
			Gender:      in.Gender,
			Bio:         in.Bio,
			Genres:      genres,
			SquadID:     &squad.ID,
		}
		return tx.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, "", translate(err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	return user, translate(err)
}

// ViewProfile returns target's profile as seen by viewer. Profiles are only
// visible between users whose emails are verified.
func (s *UserService) ViewProfile(ctx context.Context, viewerID, targetID uint) (*models.User, error) {
	viewer, err := s.store.Users.GetByID(ctx, viewerID)
	if err != nil {
		return nil, translate(err)
	}
	if !viewer.EmailVerified {
		return nil, permissionf("verify your email to view profiles")
	}

	target, err := s.store.Users.GetByID(ctx, targetID)
	if err != nil {
		return nil, translate(err)
	}
	if !target.EmailVerified {
		return nil, permissionf("profile %d is not visible", targetID)
	}
	return target, nil
}

// EditProfile replaces the bio and genres of target. Only the owner may edit.
func (s *UserService) EditProfile(ctx context.Context, actorID, targetID uint, in ProfileInput) (*models.User, error) {
	if actorID != targetID {
		return nil, permissionf("cannot edit another user's profile")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Users.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		genres, err := tx.Users.GenresByName(ctx, in.Genres)
		if err != nil {
			return err
		}
		if err := tx.Users.UpdateProfile(ctx, current, in.Bio, genres); err != nil {
			return err
		}
		user, err = tx.Users.GetByID(ctx, targetID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// MarkEmailVerified records the identity provider's verification of a user's email
func (s *UserService) MarkEmailVerified(ctx context.Context, userID uint) error {
	return translate(s.store.Users.MarkEmailVerified(ctx, userID))
}

// UpdatePushToken stores the APNs device token for a user; an empty token clears it
func (s *UserService) UpdatePushToken(ctx context.Context, userID uint, token string) error {
	var value *string
	if token = strings.TrimSpace(token); token != "" {
		value = &token
	}
	return translate(s.store.Users.UpdatePushToken(ctx, userID, value))
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID uint) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": strconv.FormatUint(uint64(userID), 10),
		"jti":     uuid.New().String(),
		"exp":     now.AddDate(0, 0, s.jwtExpDays).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	raw, ok := claims["user_id"].(string)
	if !ok {
		return 0, fmt.Errorf("user_id not found in token")
	}

	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("invalid user_id in token")
	}

	return uint(userID), nil
}
