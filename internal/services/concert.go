package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"showup-backend/internal/cache"
	"showup-backend/internal/models"
	"showup-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultConcertLimit = 50
	maxConcertLimit     = 100
)

var boroughs = map[string]bool{
	models.BoroughBrooklyn:     true,
	models.BoroughManhattan:    true,
	models.BoroughBronx:        true,
	models.BoroughQueens:       true,
	models.BoroughStatenIsland: true,
}

// ConcertPage is one page of a concert listing
type ConcertPage struct {
	Concerts []models.Concert `json:"concerts"`
	Total    int64            `json:"total"`
}

// ConcertService reads the concert catalogue through an optional cache
type ConcertService struct {
	store *repository.Store
	cache *cache.Cache
}

// NewConcertService creates a new concert service. c may be nil.
func NewConcertService(store *repository.Store, c *cache.Cache) *ConcertService {
	return &ConcertService{store: store, cache: c}
}

// Get retrieves a concert by ID
func (s *ConcertService) Get(ctx context.Context, id uint) (*models.Concert, error) {
	key := fmt.Sprintf("concert:%d", id)

	var concert models.Concert
	if ok, err := s.cache.GetJSON(ctx, key, &concert); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Concert cache read failed")
	} else if ok {
		return &concert, nil
	}

	found, err := s.store.Concerts.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	if err := s.cache.SetJSON(ctx, key, found); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Concert cache write failed")
	}
	return found, nil
}

// List returns concerts matching filter
func (s *ConcertService) List(ctx context.Context, filter repository.ConcertFilter) (*ConcertPage, error) {
	if err := normalizeFilter(&filter); err != nil {
		return nil, err
	}

	key, err := filterKey(filter)
	if err != nil {
		return nil, err
	}

	var page ConcertPage
	if ok, err := s.cache.GetJSON(ctx, key, &page); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Concert cache read failed")
	} else if ok {
		return &page, nil
	}

	concerts, total, err := s.store.Concerts.List(ctx, filter)
	if err != nil {
		return nil, translate(err)
	}
	page = ConcertPage{Concerts: concerts, Total: total}

	if err := s.cache.SetJSON(ctx, key, page); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Concert cache write failed")
	}
	return &page, nil
}

func normalizeFilter(f *repository.ConcertFilter) error {
	if f.Limit <= 0 {
		f.Limit = defaultConcertLimit
	}
	if f.Limit > maxConcertLimit {
		f.Limit = maxConcertLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return validationf("date range end is before its start")
	}
	for i, b := range f.Boroughs {
		b = strings.ToUpper(strings.TrimSpace(b))
		if !boroughs[b] {
			return validationf("unknown borough %q", b)
		}
		f.Boroughs[i] = b
	}
	return nil
}

func filterKey(f repository.ConcertFilter) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode concert filter: %w", err)
	}
	sum := sha1.Sum(b)
	return "concerts:" + hex.EncodeToString(sum[:]), nil
}
