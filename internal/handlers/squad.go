package handlers

import (
	"net/http"

	"showup-backend/internal/middleware"
	"showup-backend/internal/models"
	"showup-backend/internal/services"
)

// SquadHandler handles squad membership and join requests
type SquadHandler struct {
	squadService *services.SquadService
	joinService  *services.JoinService
	notifier     *services.Notifier
}

// NewSquadHandler creates a new squad handler
func NewSquadHandler(
	squadService *services.SquadService,
	joinService *services.JoinService,
	notifier *services.Notifier,
) *SquadHandler {
	return &SquadHandler{
		squadService: squadService,
		joinService:  joinService,
		notifier:     notifier,
	}
}

// GetMySquad handles GET /api/v1/squads/me
func (h *SquadHandler) GetMySquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get squad")
		return
	}
	h.respondSquad(w, r, squadID)
}

// GetSquad handles GET /api/v1/squads/{squad_id}
func (h *SquadHandler) GetSquad(w http.ResponseWriter, r *http.Request) {
	squadID, ok := pathID(r, "squad_id")
	if !ok {
		respondError(w, "Invalid squad ID", http.StatusBadRequest)
		return
	}
	h.respondSquad(w, r, squadID)
}

func (h *SquadHandler) respondSquad(w http.ResponseWriter, r *http.Request, squadID uint) {
	squad, err := h.squadService.GetSquad(r.Context(), squadID)
	if err != nil {
		respondServiceError(w, err, "get squad")
		return
	}
	respondJSON(w, http.StatusOK, squad)
}

// SquadIDResponse carries the caller's squad after a membership change
type SquadIDResponse struct {
	SquadID uint `json:"squad_id"`
}

// LeaveSquad handles POST /api/v1/squads/me/leave
func (h *SquadHandler) LeaveSquad(w http.ResponseWriter, r *http.Request) {
	squadID, err := h.squadService.LeaveSquad(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "leave squad")
		return
	}
	respondJSON(w, http.StatusOK, SquadIDResponse{SquadID: squadID})
}

// JoinRequestBody represents the request body for a join request
type JoinRequestBody struct {
	Email string `json:"email"`
}

// InboundResponse lists pending join requests
type InboundResponse struct {
	Requests []models.JoinRequest `json:"requests"`
	Count    int                  `json:"count"`
}

// ListJoinRequests handles GET /api/v1/squads/me/join-requests
func (h *SquadHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	squadID, err := h.squadService.SquadOf(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, err, "list join requests")
		return
	}

	requests, err := h.joinService.Inbound(r.Context(), squadID)
	if err != nil {
		respondServiceError(w, err, "list join requests")
		return
	}
	respondJSON(w, http.StatusOK, InboundResponse{Requests: requests, Count: len(requests)})
}

// RequestJoin handles POST /api/v1/squads/me/join-requests
func (h *SquadHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req JoinRequestBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondError(w, "email is required", http.StatusBadRequest)
		return
	}

	squadID, err := h.squadService.SquadOf(ctx, userID)
	if err != nil {
		respondServiceError(w, err, "request join")
		return
	}

	result, err := h.joinService.RequestJoin(ctx, squadID, req.Email)
	if err != nil {
		respondServiceError(w, err, "request join")
		return
	}

	switch result.Outcome {
	case services.JoinRequested:
		notifySquad(ctx, h.notifier, result.TargetSquadID, services.WSMessage{
			Type:    services.MessageJoinRequested,
			SquadID: squadID,
		})
	case services.JoinMerged:
		notifySquad(ctx, h.notifier, result.SquadID, services.WSMessage{
			Type:    services.MessageSquadMerged,
			SquadID: result.SquadID,
		})
	}

	respondJSON(w, http.StatusOK, result)
}

// AcceptJoinRequest handles POST /api/v1/squads/me/join-requests/{squad_id}/accept
func (h *SquadHandler) AcceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	theirSquad, ok := pathID(r, "squad_id")
	if !ok {
		respondError(w, "Invalid squad ID", http.StatusBadRequest)
		return
	}

	mySquad, err := h.squadService.SquadOf(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "accept join request")
		return
	}

	keep, err := h.joinService.Accept(ctx, theirSquad, mySquad)
	if err != nil {
		respondServiceError(w, err, "accept join request")
		return
	}

	notifySquad(ctx, h.notifier, keep, services.WSMessage{Type: services.MessageSquadMerged, SquadID: keep})

	respondJSON(w, http.StatusOK, SquadIDResponse{SquadID: keep})
}

// DenyJoinRequest handles POST /api/v1/squads/me/join-requests/{squad_id}/deny
func (h *SquadHandler) DenyJoinRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	theirSquad, ok := pathID(r, "squad_id")
	if !ok {
		respondError(w, "Invalid squad ID", http.StatusBadRequest)
		return
	}

	mySquad, err := h.squadService.SquadOf(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondServiceError(w, err, "deny join request")
		return
	}

	if err := h.joinService.Deny(ctx, theirSquad, mySquad); err != nil {
		respondServiceError(w, err, "deny join request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
