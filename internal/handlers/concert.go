package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"showup-backend/internal/middleware"
	"showup-backend/internal/models"
	"showup-backend/internal/repository"
	"showup-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ConcertHandler handles the concert catalogue, concert marks and swiping
type ConcertHandler struct {
	concertService  *services.ConcertService
	interestService *services.InterestService
	swipeService    *services.SwipeService
	squadService    *services.SquadService
	notifier        *services.Notifier
}

// NewConcertHandler creates a new concert handler
func NewConcertHandler(
	concertService *services.ConcertService,
	interestService *services.InterestService,
	swipeService *services.SwipeService,
	squadService *services.SquadService,
	notifier *services.Notifier,
) *ConcertHandler {
	return &ConcertHandler{
		concertService:  concertService,
		interestService: interestService,
		swipeService:    swipeService,
		squadService:    squadService,
		notifier:        notifier,
	}
}

// ListConcerts handles GET /api/v1/concerts
func (h *ConcertHandler) ListConcerts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseConcertFilter(r.URL.Query())
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, err := h.concertService.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err, "list concerts")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetConcert handles GET /api/v1/concerts/{concert_id}
func (h *ConcertHandler) GetConcert(w http.ResponseWriter, r *http.Request) {
	concertID, ok := pathID(r, "concert_id")
	if !ok {
		respondError(w, "Invalid concert ID", http.StatusBadRequest)
		return
	}

	concert, err := h.concertService.Get(r.Context(), concertID)
	if err != nil {
		respondServiceError(w, err, "get concert")
		return
	}
	respondJSON(w, http.StatusOK, concert)
}

// AttendanceResponse reports a squad's mark on a concert after a toggle
type AttendanceResponse struct {
	ConcertID  uint              `json:"concert_id"`
	Attendance models.Attendance `json:"attendance"`
}

// MarkInterested handles POST /api/v1/concerts/{concert_id}/interested
func (h *ConcertHandler) MarkInterested(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.interestService.MarkInterested)
}

// MarkGoing handles POST /api/v1/concerts/{concert_id}/going
func (h *ConcertHandler) MarkGoing(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.interestService.MarkGoing)
}

type markFunc func(ctx context.Context, squadID, concertID uint) (models.Attendance, error)

func (h *ConcertHandler) mark(w http.ResponseWriter, r *http.Request, toggle markFunc) {
	concertID, ok := pathID(r, "concert_id")
	if !ok {
		respondError(w, "Invalid concert ID", http.StatusBadRequest)
		return
	}

	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "update attendance")
		return
	}

	state, err := toggle(r.Context(), squadID, concertID)
	if err != nil {
		respondServiceError(w, err, "update attendance")
		return
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{ConcertID: concertID, Attendance: state})
}

// CandidatesResponse lists the squads that can still be swiped on
type CandidatesResponse struct {
	ConcertID uint   `json:"concert_id"`
	SquadIDs  []uint `json:"squad_ids"`
}

// GetCandidates handles GET /api/v1/concerts/{concert_id}/candidates
func (h *ConcertHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	concertID, ok := pathID(r, "concert_id")
	if !ok {
		respondError(w, "Invalid concert ID", http.StatusBadRequest)
		return
	}

	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "list candidates")
		return
	}

	ids, err := h.swipeService.EligibleCandidates(r.Context(), squadID, concertID)
	if err != nil {
		respondServiceError(w, err, "list candidates")
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	respondJSON(w, http.StatusOK, CandidatesResponse{ConcertID: concertID, SquadIDs: ids})
}

// SwipeRequest represents the request body for a swipe. Direction is
// "right" or "left".
type SwipeRequest struct {
	SquadID   uint   `json:"squad_id"`
	Direction string `json:"direction"`
}

// Swipe handles POST /api/v1/concerts/{concert_id}/swipes
func (h *ConcertHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	concertID, ok := pathID(r, "concert_id")
	if !ok {
		respondError(w, "Invalid concert ID", http.StatusBadRequest)
		return
	}

	var req SwipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var direction bool
	switch req.Direction {
	case "right":
		direction = true
	case "left":
		direction = false
	default:
		respondError(w, `direction must be "right" or "left"`, http.StatusBadRequest)
		return
	}
	if req.SquadID == 0 {
		respondError(w, "squad_id is required", http.StatusBadRequest)
		return
	}

	squadID, err := h.squadService.SquadOf(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "record swipe")
		return
	}

	result, err := h.swipeService.RecordSwipe(ctx, squadID, req.SquadID, concertID, direction)
	if err != nil {
		respondServiceError(w, err, "record swipe")
		return
	}

	if result.Created && result.Matched {
		log.Info().
			Uint("squad_id", squadID).
			Uint("other_squad_id", req.SquadID).
			Uint("concert_id", concertID).
			Msg("Match created")

		notifySquad(ctx, h.notifier, squadID, services.WSMessage{
			Type: services.MessageMatchCreated, SquadID: req.SquadID, ConcertID: concertID,
		})
		notifySquad(ctx, h.notifier, req.SquadID, services.WSMessage{
			Type: services.MessageMatchCreated, SquadID: squadID, ConcertID: concertID,
		})
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondJSON(w, status, result)
}

// parseConcertFilter reads the listing filter from query parameters.
// Multi-valued parameters may be repeated or comma separated.
func parseConcertFilter(q url.Values) (repository.ConcertFilter, error) {
	var f repository.ConcertFilter

	var err error
	if f.From, err = parseTimeParam(q.Get("from"), false); err != nil {
		return f, err
	}
	if f.To, err = parseTimeParam(q.Get("to"), true); err != nil {
		return f, err
	}

	f.Boroughs = multiParam(q, "borough")
	f.Performers = multiParam(q, "performer")
	f.Venues = multiParam(q, "venue")
	f.Genre = strings.TrimSpace(q.Get("genre"))

	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errInvalidParam("limit")
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil {
			return f, errInvalidParam("offset")
		}
	}
	return f, nil
}

// parseTimeParam accepts RFC 3339 or a bare date. A bare "to" date covers
// the whole day.
func parseTimeParam(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, errInvalidParam("date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func multiParam(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func errInvalidParam(name string) error {
	return fmt.Errorf("invalid %s parameter", name)
}
