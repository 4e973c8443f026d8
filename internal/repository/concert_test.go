package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"showup-backend/internal/models"
)

func seedCatalogue(t *testing.T, s *Store) {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2026, 11, d, 20, 0, 0, 0, time.UTC) }
	concerts := []models.Concert{
		{ID: 10, Datetime: day(3), VenueName: "Elsewhere", Borough: models.BoroughBrooklyn, PerformerNames: "Japanese Breakfast", Genres: "Indie Pop"},
		{ID: 11, Datetime: day(1), VenueName: "Bowery Ballroom", Borough: models.BoroughManhattan, PerformerNames: "Big Thief", Genres: "Folk, Indie"},
		{ID: 12, Datetime: day(5), VenueName: "Elsewhere", Borough: models.BoroughBrooklyn, PerformerNames: "Turnstile", Genres: "Hardcore"},
		{ID: 13, Datetime: day(7), VenueName: "Knockdown Center", Borough: models.BoroughQueens, PerformerNames: "Four Tet", Genres: "Electronic"},
	}
	if err := s.Concerts.Upsert(context.Background(), concerts...); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func concertIDs(concerts []models.Concert) []uint {
	ids := make([]uint, len(concerts))
	for i, c := range concerts {
		ids[i] = c.ID
	}
	return ids
}

func TestConcertList(t *testing.T) {
	s := newTestStore(t)
	seedCatalogue(t, s)

	from := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    ConcertFilter
		wantIDs   []uint
		wantTotal int64
	}{
		{"all ordered by date", ConcertFilter{}, []uint{11, 10, 12, 13}, 4},
		{"borough", ConcertFilter{Boroughs: []string{"BK", "QN"}}, []uint{10, 12, 13}, 3},
		{"venue", ConcertFilter{Venues: []string{"Elsewhere"}}, []uint{10, 12}, 2},
		{"performer", ConcertFilter{Performers: []string{"Big Thief", "Four Tet"}}, []uint{11, 13}, 2},
		{"genre substring", ConcertFilter{Genre: "indie"}, []uint{11, 10}, 2},
		{"date range", ConcertFilter{From: &from, To: &to}, []uint{10, 12}, 2},
		{"page", ConcertFilter{Limit: 2, Offset: 1}, []uint{10, 12}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.Concerts.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			ids := concertIDs(got)
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Errorf("ids = %v, want %v", ids, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestConcertUpsertUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCatalogue(t, s)

	updated := models.Concert{ID: 10, Datetime: time.Date(2026, 11, 3, 21, 0, 0, 0, time.UTC), VenueName: "Elsewhere Rooftop", Borough: models.BoroughBrooklyn}
	if err := s.Concerts.Upsert(ctx, updated); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Concerts.GetByID(ctx, 10)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.VenueName != "Elsewhere Rooftop" {
		t.Errorf("VenueName = %q, want the updated value", got.VenueName)
	}

	if _, err := s.Concerts.GetByID(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(404) error = %v, want ErrNotFound", err)
	}
}
