package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"showup-backend/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad input", services.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: squad 3", services.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: not yours", services.ErrPermission), http.StatusForbidden},
		{fmt.Errorf("%w: taken", services.ErrConflict), http.StatusConflict},
		{errors.New("database is on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondServiceErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondServiceError(rec, errors.New("pq: password authentication failed"), "list concerts")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"error\":\"Failed to list concerts\"}\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseConcertFilter(t *testing.T) {
	q := url.Values{
		"borough":   {"BK,MN", "QN"},
		"performer": {"Big Thief"},
		"venue":     {" Elsewhere , "},
		"genre":     {" indie "},
		"from":      {"2026-11-01"},
		"to":        {"2026-11-02"},
		"limit":     {"10"},
		"offset":    {"20"},
	}

	f, err := parseConcertFilter(q)
	if err != nil {
		t.Fatalf("parseConcertFilter: %v", err)
	}
	if len(f.Boroughs) != 3 || f.Boroughs[2] != "QN" {
		t.Errorf("Boroughs = %v", f.Boroughs)
	}
	if len(f.Venues) != 1 || f.Venues[0] != "Elsewhere" {
		t.Errorf("Venues = %v", f.Venues)
	}
	if f.Genre != "indie" || f.Limit != 10 || f.Offset != 20 {
		t.Errorf("Genre/Limit/Offset = %q/%d/%d", f.Genre, f.Limit, f.Offset)
	}
	if f.From == nil || f.To == nil {
		t.Fatal("date range not parsed")
	}
	if got := f.To.Format("2006-01-02 15:04"); got != "2026-11-02 23:59" {
		t.Errorf("To = %s, want the end of the day", got)
	}

	for _, bad := range []url.Values{
		{"from": {"yesterday"}},
		{"limit": {"ten"}},
		{"offset": {"-"}},
	} {
		if _, err := parseConcertFilter(bad); err == nil {
			t.Errorf("parseConcertFilter(%v) succeeded", bad)
		}
	}
}
