package services

import (
	"context"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// SwipeResult reports the stored swipe and whether it completed a match.
// Created is false when an earlier swipe with the same key already existed.
type SwipeResult struct {
	Swipe   *models.Swipe `json:"swipe"`
	Created bool          `json:"created"`
	Matched bool          `json:"matched"`
}

// SwipeService records swipes and computes who can still be swiped on
type SwipeService struct {
	store *repository.Store
}

// NewSwipeService creates a new swipe service
func NewSwipeService(store *repository.Store) *SwipeService {
	return &SwipeService{store: store}
}

// RecordSwipe stores swiper's decision on swipee for a concert. Repeating a
// swipe returns the first one unchanged, whatever the new direction.
func (s *SwipeService) RecordSwipe(ctx context.Context, swiper, swipee, concertID uint, direction bool) (*SwipeResult, error) {
	if swiper == swipee {
		return nil, validationf("a squad cannot swipe on itself")
	}

	result := &SwipeResult{}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		// Both squads stay locked until commit, so of two crossing right
		// swipes the later one sees the earlier and reports the match
		if err := lockSquads(ctx, tx, swiper, swipee); err != nil {
			return err
		}
		exists, err := tx.Concerts.Exists(ctx, concertID)
		if err != nil {
			return err
		}
		if !exists {
			return notFoundf("concert %d", concertID)
		}

		swipe, created, err := tx.Swipes.GetOrCreate(ctx, &models.Swipe{
			SwiperID:  swiper,
			SwipeeID:  swipee,
			ConcertID: concertID,
			Direction: direction,
		})
		if err != nil {
			return err
		}
		result.Swipe = swipe
		result.Created = created

		if !swipe.Direction {
			return nil
		}
		result.Matched, err = tx.Swipes.HasRightSwipe(ctx, swipee, swiper, concertID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}

	if !result.Created && result.Swipe.Direction != direction {
		log.Debug().
			Uint("swiper_id", swiper).
			Uint("swipee_id", swipee).
			Uint("concert_id", concertID).
			Msg("Repeated swipe with a different direction ignored")
	}

	return result, nil
}

// EligibleCandidates lists the squads swiper may still swipe on for a concert
func (s *SwipeService) EligibleCandidates(ctx context.Context, squadID, concertID uint) ([]uint, error) {
	exists, err := s.store.Concerts.Exists(ctx, concertID)
	if err != nil {
		return nil, translate(err)
	}
	if !exists {
		return nil, notFoundf("concert %d", concertID)
	}

	ids, err := s.store.Swipes.Candidates(ctx, squadID, concertID)
	return ids, translate(err)
}
