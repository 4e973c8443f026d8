package services

import (
	"context"
	"errors"
	"slices"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// JoinOutcome describes what a join request call did
type JoinOutcome string

const (
	JoinTargetNotFound JoinOutcome = "target_not_found"
	JoinSameSquad      JoinOutcome = "same_squad"
	JoinRequested      JoinOutcome = "requested"
	JoinMerged         JoinOutcome = "merged"
)

// JoinResult is returned by RequestJoin. SquadID is the caller's squad after
// the call; it differs from the input only when a merge dropped it.
type JoinResult struct {
	Outcome       JoinOutcome `json:"outcome"`
	SquadID       uint        `json:"squad_id"`
	TargetSquadID uint        `json:"target_squad_id,omitempty"`
}

// JoinService processes squad join requests and merges squads
type JoinService struct {
	store *repository.Store
}

// NewJoinService creates a new join service
func NewJoinService(store *repository.Store) *JoinService {
	return &JoinService{store: store}
}

// RequestJoin asks the squad of the user owning targetEmail to merge with
// mySquad. An unknown email is reported through the outcome, not an error.
// If the target squad already asked to join mySquad, the squads merge now.
func (s *JoinService) RequestJoin(ctx context.Context, mySquad uint, targetEmail string) (*JoinResult, error) {
	result := &JoinResult{SquadID: mySquad}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Squads.Exists(ctx, mySquad)
		if err != nil {
			return err
		}
		if !exists {
			return notFoundf("squad %d", mySquad)
		}

		target, err := tx.Users.GetByEmail(ctx, targetEmail)
		if errors.Is(err, repository.ErrNotFound) {
			result.Outcome = JoinTargetNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if target.SquadID == nil {
			result.Outcome = JoinTargetNotFound
			return nil
		}

		targetSquad := *target.SquadID
		result.TargetSquadID = targetSquad
		if targetSquad == mySquad {
			result.Outcome = JoinSameSquad
			return nil
		}

		// Concurrent reciprocal requests must see each other's rows
		if err := lockSquads(ctx, tx, mySquad, targetSquad); err != nil {
			return err
		}

		reciprocal, err := tx.JoinRequests.Delete(ctx, targetSquad, mySquad)
		if err != nil {
			return err
		}
		if reciprocal {
			keep, err := merge(ctx, tx, mySquad, targetSquad)
			if err != nil {
				return err
			}
			result.Outcome = JoinMerged
			result.SquadID = keep
			return nil
		}

		if _, _, err := tx.JoinRequests.GetOrCreate(ctx, mySquad, targetSquad); err != nil {
			return err
		}
		result.Outcome = JoinRequested
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	log.Info().
		Uint("squad_id", mySquad).
		Uint("target_squad_id", result.TargetSquadID).
		Str("outcome", string(result.Outcome)).
		Msg("Join requested")

	return result, nil
}

// Accept merges theirSquad into mySquad in response to theirSquad's pending
// request and returns the surviving squad ID
func (s *JoinService) Accept(ctx context.Context, theirSquad, mySquad uint) (uint, error) {
	var keep uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		existed, err := tx.JoinRequests.Delete(ctx, theirSquad, mySquad)
		if err != nil {
			return err
		}
		if !existed {
			return notFoundf("no join request from squad %d", theirSquad)
		}
		keep, err = merge(ctx, tx, theirSquad, mySquad)
		return err
	})
	if err != nil {
		return 0, translate(err)
	}
	return keep, nil
}

// Deny discards theirSquad's pending request to mySquad. Denying a request
// that does not exist is a no-op.
func (s *JoinService) Deny(ctx context.Context, theirSquad, mySquad uint) error {
	existed, err := s.store.JoinRequests.Delete(ctx, theirSquad, mySquad)
	if err != nil {
		return translate(err)
	}
	if existed {
		log.Info().Uint("requester_id", theirSquad).Uint("requestee_id", mySquad).Msg("Join request denied")
	}
	return nil
}

// Inbound lists the pending requests addressed to a squad
func (s *JoinService) Inbound(ctx context.Context, mySquad uint) ([]models.JoinRequest, error) {
	reqs, err := s.store.JoinRequests.ListInbound(ctx, mySquad)
	return reqs, translate(err)
}

// PendingCount counts the pending requests addressed to a squad
func (s *JoinService) PendingCount(ctx context.Context, mySquad uint) (int64, error) {
	n, err := s.store.JoinRequests.CountInbound(ctx, mySquad)
	return n, translate(err)
}

// Merge merges two squads and returns the surviving squad ID
func (s *JoinService) Merge(ctx context.Context, a, b uint) (uint, error) {
	var keep uint
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		keep, err = merge(ctx, tx, a, b)
		return err
	})
	if err != nil {
		return 0, translate(err)
	}
	return keep, nil
}

// SurvivingSquad returns the squad ID that survives merging a and b
func SurvivingSquad(a, b uint) (keep, drop uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// lockSquads locks squad rows in ascending ID order, the same order merge
// uses, so transactions touching the same squads cannot deadlock
func lockSquads(ctx context.Context, tx *repository.Store, ids ...uint) error {
	for _, id := range lockOrder(ids...) {
		if err := tx.Squads.Lock(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func lockOrder(ids ...uint) []uint {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)
	return slices.Compact(ordered)
}

// merge folds the larger-ID squad into the smaller-ID one. It must run
// inside tx so no partial merge is ever visible.
func merge(ctx context.Context, tx *repository.Store, a, b uint) (uint, error) {
	keep, drop := SurvivingSquad(a, b)

	// Lock in ID order so concurrent merges cannot deadlock
	if err := tx.Squads.Lock(ctx, keep); err != nil {
		return 0, err
	}
	if keep == drop {
		return keep, nil
	}
	if err := tx.Squads.Lock(ctx, drop); err != nil {
		return 0, err
	}

	moved, err := tx.Users.MoveSquad(ctx, drop, keep)
	if err != nil {
		return 0, err
	}
	if err := tx.Squads.MoveMarks(ctx, models.AttendanceInterested, drop, keep); err != nil {
		return 0, err
	}
	if err := tx.Squads.MoveMarks(ctx, models.AttendanceGoing, drop, keep); err != nil {
		return 0, err
	}
	if err := tx.Squads.DropInterestedWhereGoing(ctx, keep); err != nil {
		return 0, err
	}

	requests, err := tx.JoinRequests.DeleteBySquad(ctx, drop)
	if err != nil {
		return 0, err
	}
	swipes, err := tx.Swipes.DeleteBySquad(ctx, drop)
	if err != nil {
		return 0, err
	}
	if err := tx.Squads.Delete(ctx, drop); err != nil {
		return 0, err
	}

	log.Info().
		Uint("keep_squad_id", keep).
		Uint("drop_squad_id", drop).
		Int64("members_moved", moved).
		Int64("join_requests_deleted", requests).
		Int64("swipes_deleted", swipes).
		Msg("Squads merged")

	return keep, nil
}
