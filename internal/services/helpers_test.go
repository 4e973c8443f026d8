package services

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"showup-backend/internal/models"
	"showup-backend/internal/repository"
)

const testSecret = "test-secret"

var nonWord = regexp.MustCompile(`\W+`)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	dsn := "file:" + nonWord.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared"
	db, err := repository.OpenSQLite(dsn, false)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

// newFileStore opens a database file so concurrent transactions go through
// the same locking as a long-running server
func newFileStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "showup.db"), false)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

// signup creates a user through the service and returns it with its squad ID
func signup(t *testing.T, users *UserService, email string) *models.User {
	t.Helper()
	user, _, err := users.CreateUser(context.Background(), SignupInput{
		Email:       email,
		DisplayName: email,
		DateOfBirth: "1996-04-02",
		Genres:      []string{"indie"},
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	if user.SquadID == nil {
		t.Fatalf("CreateUser(%s): no squad assigned", email)
	}
	return user
}

// newSquads signs up n users and returns their squad IDs in creation order
func newSquads(t *testing.T, store *repository.Store, n int) []uint {
	t.Helper()
	users := NewUserService(store, testSecret, 1)
	ids := make([]uint, n)
	for i := range ids {
		ids[i] = *signup(t, users, fmt.Sprintf("user%d@example.com", i+1)).SquadID
	}
	return ids
}

func seedConcerts(t *testing.T, store *repository.Store, ids ...uint) {
	t.Helper()
	concerts := make([]models.Concert, 0, len(ids))
	for _, id := range ids {
		concerts = append(concerts, models.Concert{
			ID:             id,
			Datetime:       time.Date(2026, 11, 1, 20, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
			VenueName:      "Baby's All Right",
			Borough:        models.BoroughBrooklyn,
			PerformerNames: fmt.Sprintf("Band %d", id),
			Genres:         "indie",
		})
	}
	if err := store.Concerts.Upsert(context.Background(), concerts...); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func memberIDs(t *testing.T, store *repository.Store, squadID uint) []uint {
	t.Helper()
	members, err := store.Users.ListBySquad(context.Background(), squadID)
	if err != nil {
		t.Fatalf("ListBySquad: %v", err)
	}
	ids := make([]uint, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
