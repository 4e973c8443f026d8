package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"showup-backend/internal/models"
)

func TestSquadMarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	squad := mustSquad(t, s)
	mustConcerts(t, s, 3, 1, 2)

	for _, id := range []uint{3, 1, 1} {
		if err := s.Squads.AddMark(ctx, models.AttendanceInterested, squad, id); err != nil {
			t.Fatalf("AddMark(%d): %v", id, err)
		}
	}

	got, err := s.Squads.MarkedConcerts(ctx, models.AttendanceInterested, squad)
	if err != nil {
		t.Fatalf("MarkedConcerts: %v", err)
	}
	if want := []uint{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("MarkedConcerts = %v, want %v", got, want)
	}

	if err := s.Squads.RemoveMark(ctx, models.AttendanceInterested, squad, 3); err != nil {
		t.Fatalf("RemoveMark: %v", err)
	}
	ok, err := s.Squads.HasMark(ctx, models.AttendanceInterested, squad, 3)
	if err != nil {
		t.Fatalf("HasMark: %v", err)
	}
	if ok {
		t.Error("mark on 3 still present after RemoveMark")
	}

	if err := s.Squads.AddMark(ctx, models.Attendance("maybe"), squad, 1); err == nil {
		t.Error("AddMark with an unknown mark succeeded")
	}
}

func TestSquadMoveMarks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	keep, drop := mustSquad(t, s), mustSquad(t, s)
	mustConcerts(t, s, 1, 2, 3)

	marks := []struct {
		mark    models.Attendance
		squad   uint
		concert uint
	}{
		{models.AttendanceInterested, keep, 1},
		{models.AttendanceInterested, drop, 1},
		{models.AttendanceInterested, drop, 2},
		{models.AttendanceGoing, keep, 2},
		{models.AttendanceGoing, drop, 3},
	}
	for _, m := range marks {
		if err := s.Squads.AddMark(ctx, m.mark, m.squad, m.concert); err != nil {
			t.Fatalf("AddMark: %v", err)
		}
	}

	for _, mark := range []models.Attendance{models.AttendanceInterested, models.AttendanceGoing} {
		if err := s.Squads.MoveMarks(ctx, mark, drop, keep); err != nil {
			t.Fatalf("MoveMarks(%s): %v", mark, err)
		}
	}
	if err := s.Squads.DropInterestedWhereGoing(ctx, keep); err != nil {
		t.Fatalf("DropInterestedWhereGoing: %v", err)
	}

	squad, err := s.Squads.GetByID(ctx, keep)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if want := []uint{1}; !reflect.DeepEqual(squad.Interested, want) {
		t.Errorf("Interested = %v, want %v", squad.Interested, want)
	}
	if want := []uint{2, 3}; !reflect.DeepEqual(squad.Going, want) {
		t.Errorf("Going = %v, want %v", squad.Going, want)
	}

	left, err := s.Squads.MarkedConcerts(ctx, models.AttendanceInterested, drop)
	if err != nil {
		t.Fatalf("MarkedConcerts: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("dropped squad still has marks %v", left)
	}
}

func TestSquadGetByIDLoadsMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	squad := mustSquad(t, s)
	b := mustUser(t, s, "b@example.com", squad)
	a := mustUser(t, s, "a@example.com", squad)

	got, err := s.Squads.GetByID(ctx, squad)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Members) != 2 || got.Members[0].ID != b.ID || got.Members[1].ID != a.ID {
		t.Errorf("Members = %v, want [%d %d] in ID order", got.Members, b.ID, a.ID)
	}
	if got.Interested == nil || got.Going == nil {
		t.Error("marks should be empty slices, not nil")
	}
}

func TestSquadNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Squads.GetByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID error = %v, want ErrNotFound", err)
	}
	if err := s.Squads.Lock(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lock error = %v, want ErrNotFound", err)
	}
	if err := s.Squads.Delete(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}
