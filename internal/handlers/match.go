package handlers

import (
	"net/http"

	"showup-backend/internal/middleware"
	"showup-backend/internal/models"
	"showup-backend/internal/services"
)

// MatchHandler handles match listings and chat channels
type MatchHandler struct {
	matchService *services.MatchService
	squadService *services.SquadService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *services.MatchService, squadService *services.SquadService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
		squadService: squadService,
	}
}

// MatchesResponse lists the caller's matches
type MatchesResponse struct {
	Matches []models.Match `json:"matches"`
}

// ListMatches handles GET /api/v1/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "list matches")
		return
	}

	matches, err := h.matchService.MatchesFor(r.Context(), squadID)
	if err != nil {
		respondServiceError(w, err, "list matches")
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	respondJSON(w, http.StatusOK, MatchesResponse{Matches: matches})
}

// ChannelResponse carries the shared chat URL
type ChannelResponse struct {
	URL string `json:"url"`
}

// GetChannel handles GET /api/v1/matches/{squad_id}/channel
func (h *MatchHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	otherSquad, ok := pathID(r, "squad_id")
	if !ok {
		respondError(w, "Invalid squad ID", http.StatusBadRequest)
		return
	}

	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get channel")
		return
	}

	url, err := h.matchService.Channel(r.Context(), squadID, otherSquad)
	if err != nil {
		respondServiceError(w, err, "get channel")
		return
	}
	respondJSON(w, http.StatusOK, ChannelResponse{URL: url})
}
