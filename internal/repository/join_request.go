package repository

import (
	"context"
	"errors"
	"fmt"

	"showup-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinRequestRepository handles database operations for squad join requests
type JoinRequestRepository struct {
	db *gorm.DB
}

// NewJoinRequestRepository creates a new join request repository
func NewJoinRequestRepository(db *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// GetOrCreate creates a request from requester to requestee unless one is
// already pending, and returns the stored row
func (r *JoinRequestRepository) GetOrCreate(ctx context.Context, requesterID, requesteeID uint) (*models.JoinRequest, bool, error) {
	req := &models.JoinRequest{RequesterID: requesterID, RequesteeID: requesteeID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "requester_id"}, {Name: "requestee_id"}},
			DoNothing: true,
		}).
		Create(req)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create join request: %w", result.Error)
	}
	created := result.RowsAffected == 1

	stored, err := r.Get(ctx, requesterID, requesteeID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Get retrieves the request from requester to requestee
func (r *JoinRequestRepository) Get(ctx context.Context, requesterID, requesteeID uint) (*models.JoinRequest, error) {
	var req models.JoinRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND requestee_id = ?", requesterID, requesteeID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("join request %d->%d: %w", requesterID, requesteeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	return &req, nil
}

// Exists checks if a request from requester to requestee is pending
func (r *JoinRequestRepository) Exists(ctx context.Context, requesterID, requesteeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("requester_id = ? AND requestee_id = ?", requesterID, requesteeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check join request: %w", err)
	}
	return count > 0, nil
}

// Delete deletes the request from requester to requestee, reporting whether one existed
func (r *JoinRequestRepository) Delete(ctx context.Context, requesterID, requesteeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("requester_id = ? AND requestee_id = ?", requesterID, requesteeID).
		Delete(&models.JoinRequest{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete join request: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListInbound lists pending requests addressed to a squad, oldest first
func (r *JoinRequestRepository) ListInbound(ctx context.Context, requesteeID uint) ([]models.JoinRequest, error) {
	reqs := []models.JoinRequest{}
	err := r.db.WithContext(ctx).
		Where("requestee_id = ?", requesteeID).
		Order("created_at, id").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return reqs, nil
}

// CountInbound counts pending requests addressed to a squad
func (r *JoinRequestRepository) CountInbound(ctx context.Context, requesteeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.JoinRequest{}).
		Where("requestee_id = ?", requesteeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count join requests: %w", err)
	}
	return count, nil
}

// DeleteBySquad deletes every request a squad sent or received
func (r *JoinRequestRepository) DeleteBySquad(ctx context.Context, squadID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("requester_id = ? OR requestee_id = ?", squadID, squadID).
		Delete(&models.JoinRequest{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete join requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}
