package repository

import (
	"context"
	"reflect"
	"testing"

	"showup-backend/internal/models"
)

func TestSwipeGetOrCreateKeepsFirstDirection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := mustSquad(t, s), mustSquad(t, s)
	mustConcerts(t, s, 7)

	first, created, err := s.Swipes.GetOrCreate(ctx, &models.Swipe{SwiperID: a, SwipeeID: b, ConcertID: 7, Direction: true})
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created {
		t.Error("first swipe: created = false, want true")
	}

	second, created, err := s.Swipes.GetOrCreate(ctx, &models.Swipe{SwiperID: a, SwipeeID: b, ConcertID: 7, Direction: false})
	if err != nil {
		t.Fatalf("GetOrCreate repeat: %v", err)
	}
	if created {
		t.Error("repeat swipe: created = true, want false")
	}
	if second.ID != first.ID || !second.Direction {
		t.Errorf("repeat swipe returned %+v, want the original %+v", second, first)
	}
}

func TestCandidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	me := mustSquad(t, s)
	interested := mustSquad(t, s)
	going := mustSquad(t, s)
	rejectedMe := mustSquad(t, s)
	alreadySwiped := mustSquad(t, s)
	mustSquad(t, s) // never marks the concert
	mustConcerts(t, s, 7)

	for _, id := range []uint{me, interested, rejectedMe, alreadySwiped} {
		if err := s.Squads.AddMark(ctx, models.AttendanceInterested, id, 7); err != nil {
			t.Fatalf("AddMark: %v", err)
		}
	}
	if err := s.Squads.AddMark(ctx, models.AttendanceGoing, going, 7); err != nil {
		t.Fatalf("AddMark: %v", err)
	}

	swipes := []models.Swipe{
		{SwiperID: rejectedMe, SwipeeID: me, ConcertID: 7, Direction: false},
		{SwiperID: me, SwipeeID: alreadySwiped, ConcertID: 7, Direction: false},
		// A right swipe towards me does not hide the swiper
		{SwiperID: interested, SwipeeID: me, ConcertID: 7, Direction: true},
	}
	for i := range swipes {
		if _, _, err := s.Swipes.GetOrCreate(ctx, &swipes[i]); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	got, err := s.Swipes.Candidates(ctx, me, 7)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	want := []uint{interested, going}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestMatchesAndIsMatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := mustSquad(t, s), mustSquad(t, s), mustSquad(t, s)
	mustConcerts(t, s, 7, 8)

	swipes := []models.Swipe{
		{SwiperID: a, SwipeeID: b, ConcertID: 8, Direction: true},
		{SwiperID: b, SwipeeID: a, ConcertID: 8, Direction: true},
		{SwiperID: a, SwipeeID: b, ConcertID: 7, Direction: true},
		{SwiperID: b, SwipeeID: a, ConcertID: 7, Direction: true},
		{SwiperID: a, SwipeeID: c, ConcertID: 7, Direction: true},
		{SwiperID: c, SwipeeID: a, ConcertID: 7, Direction: false},
	}
	for i := range swipes {
		if _, _, err := s.Swipes.GetOrCreate(ctx, &swipes[i]); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	got, err := s.Swipes.Matches(ctx, a)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	want := []models.Match{{SquadID: b, ConcertID: 7}, {SquadID: b, ConcertID: 8}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Matches(a) = %v, want %v", got, want)
	}

	tests := []struct {
		x, y uint
		want bool
	}{
		{a, b, true},
		{b, a, true},
		{a, c, false},
		{c, a, false},
		{b, c, false},
	}
	for _, tt := range tests {
		ok, err := s.Swipes.IsMatched(ctx, tt.x, tt.y)
		if err != nil {
			t.Fatalf("IsMatched: %v", err)
		}
		if ok != tt.want {
			t.Errorf("IsMatched(%d, %d) = %v, want %v", tt.x, tt.y, ok, tt.want)
		}
	}
}

func TestSwipeDeleteBySquad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := mustSquad(t, s), mustSquad(t, s), mustSquad(t, s)
	mustConcerts(t, s, 7)

	swipes := []models.Swipe{
		{SwiperID: a, SwipeeID: b, ConcertID: 7, Direction: true},
		{SwiperID: c, SwipeeID: a, ConcertID: 7, Direction: true},
		{SwiperID: b, SwipeeID: c, ConcertID: 7, Direction: true},
	}
	for i := range swipes {
		if _, _, err := s.Swipes.GetOrCreate(ctx, &swipes[i]); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	n, err := s.Swipes.DeleteBySquad(ctx, a)
	if err != nil {
		t.Fatalf("DeleteBySquad: %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteBySquad removed %d swipes, want 2", n)
	}
	if _, err := s.Swipes.Get(ctx, b, c, 7); err != nil {
		t.Errorf("unrelated swipe deleted: %v", err)
	}
}
