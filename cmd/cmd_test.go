package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"showup-backend/internal/config"
	"showup-backend/internal/handlers"
	"showup-backend/internal/middleware"
	"showup-backend/internal/models"
	"showup-backend/internal/repository"
	"showup-backend/internal/services"
)

const webhookSecret = "hook-secret"

func newTestServer(t *testing.T) (*httptest.Server, *repository.Store) {
	t.Helper()
	ctx := context.Background()

	db, err := repository.OpenSQLite("file:"+t.Name()+"?mode=memory&cache=shared", false)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store := repository.NewStore(db)

	err = store.Concerts.Upsert(ctx, models.Concert{
		ID:             1,
		Datetime:       time.Date(2026, 11, 20, 21, 0, 0, 0, time.UTC),
		VenueName:      "Elsewhere",
		Borough:        models.BoroughBrooklyn,
		PerformerNames: "Big Thief",
		Genres:         "indie,folk",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	avatars, err := services.NewAvatarService(ctx, store, config.AWSConfig{
		Region:    "us-east-1",
		S3Bucket:  "avatars",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
	})
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}

	users := services.NewUserService(store, "router-secret", 1)
	squads := services.NewSquadService(store)
	joins := services.NewJoinService(store)
	hub := services.NewWSHub()
	notifier := services.NewNotifier(store, hub, nil)

	h := Handlers{
		User:      handlers.NewUserHandler(users, avatars),
		Squad:     handlers.NewSquadHandler(squads, joins, notifier),
		Concert:   handlers.NewConcertHandler(services.NewConcertService(store, nil), services.NewInterestService(store), services.NewSwipeService(store), squads, notifier),
		Match:     handlers.NewMatchHandler(services.NewMatchService(store, "https://chat.example.com"), squads),
		Identity:  handlers.NewIdentityHandler(users),
		WebSocket: handlers.NewWebSocketHandler(hub, users, joins),
	}

	srv := httptest.NewServer(NewRouter(h, users, webhookSecret))
	t.Cleanup(srv.Close)
	return srv, store
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body interface{}, headers map[string]string) (int, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("Encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	out.ReadFrom(resp.Body)
	return resp.StatusCode, out.Bytes()
}

// signup creates a user over HTTP and returns a client authenticated as them
func signup(t *testing.T, srv *httptest.Server, email string) (*client, *models.User) {
	t.Helper()
	anon := &client{t: t, base: srv.URL}
	status, body := anon.do(http.MethodPost, "/api/v1/users", services.SignupInput{
		Email:       email,
		DisplayName: email,
		DateOfBirth: "1994-08-30",
		Genres:      []string{"indie"},
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", email, status, body)
	}

	var resp handlers.SignupResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Token == "" || resp.User == nil || resp.User.SquadID == nil {
		t.Fatalf("signup %s: incomplete response %s", email, body)
	}
	return &client{t: t, base: srv.URL, token: resp.Token}, resp.User
}

func TestRouterAuthentication(t *testing.T) {
	srv, _ := newTestServer(t)
	anon := &client{t: t, base: srv.URL}

	if status, _ := anon.do(http.MethodGet, "/api/v1/squads/me", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("anonymous GET /squads/me = %d, want 401", status)
	}

	alice, _ := signup(t, srv, "alice@example.com")
	if status, body := alice.do(http.MethodGet, "/api/v1/squads/me", nil, nil); status != http.StatusOK {
		t.Errorf("GET /squads/me = %d (%s), want 200", status, body)
	}

	status, _ := anon.do(http.MethodPost, "/api/v1/users", services.SignupInput{
		Email:       "ALICE@example.com",
		DisplayName: "Alice again",
		DateOfBirth: "1994-08-30",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", status)
	}
}

func TestRouterMatchFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	alice, aliceUser := signup(t, srv, "alice@example.com")
	bob, bobUser := signup(t, srv, "bob@example.com")
	carol, _ := signup(t, srv, "carol@example.com")
	aliceSquad, bobSquad := *aliceUser.SquadID, *bobUser.SquadID

	if status, body := alice.do(http.MethodPost, "/api/v1/concerts/1/going", nil, nil); status != http.StatusOK {
		t.Fatalf("mark going = %d (%s)", status, body)
	}

	swipe := func(c *client, target uint) services.SwipeResult {
		t.Helper()
		status, body := c.do(http.MethodPost, "/api/v1/concerts/1/swipes",
			handlers.SwipeRequest{SquadID: target, Direction: "right"}, nil)
		if status != http.StatusCreated {
			t.Fatalf("swipe on %d = %d (%s), want 201", target, status, body)
		}
		var result services.SwipeResult
		if err := json.Unmarshal(body, &result); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		return result
	}

	if r := swipe(alice, bobSquad); r.Matched {
		t.Error("one-sided swipe reported a match")
	}
	if r := swipe(bob, aliceSquad); !r.Matched {
		t.Error("mutual swipe did not report a match")
	}

	status, body := alice.do(http.MethodGet, "/api/v1/matches", nil, nil)
	if status != http.StatusOK {
		t.Fatalf("GET /matches = %d (%s)", status, body)
	}
	var matches handlers.MatchesResponse
	if err := json.Unmarshal(body, &matches); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(matches.Matches) != 1 || matches.Matches[0].SquadID != bobSquad || matches.Matches[0].ConcertID != 1 {
		t.Errorf("matches = %+v, want squad %d at concert 1", matches.Matches, bobSquad)
	}

	path := fmt.Sprintf("/api/v1/matches/%d/channel", bobSquad)
	status, body = alice.do(http.MethodGet, path, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("GET channel = %d (%s)", status, body)
	}
	var channel handlers.ChannelResponse
	if err := json.Unmarshal(body, &channel); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if want := services.ChannelURL("https://chat.example.com", aliceSquad, bobSquad); channel.URL != want {
		t.Errorf("channel = %q, want %q", channel.URL, want)
	}

	if status, _ := carol.do(http.MethodGet, path, nil, nil); status != http.StatusForbidden {
		t.Errorf("unmatched squad GET channel = %d, want 403", status)
	}
}

func TestRouterErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	alice, _ := signup(t, srv, "alice@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"bad borough", http.MethodGet, "/api/v1/concerts?borough=NJ", nil, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/concerts?from=soon", nil, http.StatusBadRequest},
		{"unknown concert", http.MethodGet, "/api/v1/concerts/404", nil, http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/api/v1/concerts/abc", nil, http.StatusBadRequest},
		{"bad direction", http.MethodPost, "/api/v1/concerts/1/swipes", map[string]interface{}{"squad_id": 9, "direction": "up"}, http.StatusBadRequest},
		{"leave singleton", http.MethodPost, "/api/v1/squads/me/leave", nil, http.StatusForbidden},
		{"unknown squad", http.MethodGet, "/api/v1/squads/999", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := alice.do(tt.method, tt.path, tt.body, nil); status != tt.want {
				t.Errorf("%s %s = %d (%s), want %d", tt.method, tt.path, status, body, tt.want)
			}
		})
	}
}

func TestRouterIdentityWebhook(t *testing.T) {
	srv, store := newTestServer(t)
	_, alice := signup(t, srv, "alice@example.com")
	anon := &client{t: t, base: srv.URL}
	path := fmt.Sprintf("/api/v1/identity/users/%d/verified", alice.ID)

	if status, _ := anon.do(http.MethodPost, path, nil, map[string]string{middleware.IdentitySecretHeader: "guess"}); status != http.StatusUnauthorized {
		t.Errorf("wrong secret = %d, want 401", status)
	}
	if status, _ := anon.do(http.MethodPost, path, nil, map[string]string{middleware.IdentitySecretHeader: webhookSecret}); status != http.StatusNoContent {
		t.Errorf("right secret = %d, want 204", status)
	}

	user, err := store.Users.GetByID(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !user.EmailVerified {
		t.Error("webhook did not mark the email verified")
	}
}
