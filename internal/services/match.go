package services

import (
	"context"
	"fmt"
	"strings"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"
)

// MatchService derives matches from the swipe ledger
type MatchService struct {
	store         *repository.Store
	messagingBase string
}

// NewMatchService creates a new match service. messagingBase is the URL
// prefix of the external chat service.
func NewMatchService(store *repository.Store, messagingBase string) *MatchService {
	return &MatchService{
		store:         store,
		messagingBase: strings.TrimRight(messagingBase, "/"),
	}
}

// MatchesFor lists every (squad, concert) pair where squadID and the other
// squad swiped right on each other, ordered by concert ID
func (s *MatchService) MatchesFor(ctx context.Context, squadID uint) ([]models.Match, error) {
	matches, err := s.store.Swipes.Matches(ctx, squadID)
	return matches, translate(err)
}

// CanMessage reports whether two squads matched on at least one concert
func (s *MatchService) CanMessage(ctx context.Context, a, b uint) (bool, error) {
	if a == b {
		return false, nil
	}
	ok, err := s.store.Swipes.IsMatched(ctx, a, b)
	return ok, translate(err)
}

// Channel returns the chat URL shared by two matched squads
func (s *MatchService) Channel(ctx context.Context, mySquad, otherSquad uint) (string, error) {
	ok, err := s.CanMessage(ctx, mySquad, otherSquad)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", permissionf("squad %d has not matched with squad %d", mySquad, otherSquad)
	}
	return ChannelURL(s.messagingBase, mySquad, otherSquad), nil
}

// ChannelURL builds the chat URL for two squads. Both sides get the same URL
// because the IDs are always ordered ascending.
func ChannelURL(base string, a, b uint) string {
	lo, hi := SurvivingSquad(a, b)
	return fmt.Sprintf("%s/%d-%d", strings.TrimRight(base, "/"), lo, hi)
}
