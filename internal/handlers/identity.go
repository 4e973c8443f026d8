package handlers

import (
	"net/http"

	"showup-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// IdentityHandler receives callbacks from the identity provider
type IdentityHandler struct {
	userService *services.UserService
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(userService *services.UserService) *IdentityHandler {
	return &IdentityHandler{userService: userService}
}

// EmailVerified handles POST /api/v1/identity/users/{user_id}/verified
func (h *IdentityHandler) EmailVerified(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "user_id")
	if !ok {
		respondError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.userService.MarkEmailVerified(r.Context(), userID); err != nil {
		respondServiceError(w, err, "mark email verified")
		return
	}

	log.Info().Uint("user_id", userID).Msg("Email verified")
	w.WriteHeader(http.StatusNoContent)
}
