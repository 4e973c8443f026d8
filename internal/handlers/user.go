package handlers

import (
	"net/http"

	"showup-backend/internal/middleware"
	"showup-backend/internal/models"
	"showup-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService   *services.UserService
	avatarService *services.AvatarService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, avatarService *services.AvatarService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
	}
}

// SignupResponse is returned by CreateUser
type SignupResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		respondServiceError(w, err, "create user")
		return
	}

	log.Info().
		Uint("user_id", user.ID).
		Str("email", user.Email).
		Msg("User created")

	respondJSON(w, http.StatusCreated, SignupResponse{User: user, Token: token})
}

// GetUser handles GET /api/v1/users/{user_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	targetID, ok := userParam(r, viewerID)
	if !ok {
		respondError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	user, err := h.userService.ViewProfile(r.Context(), viewerID, targetID)
	if err != nil {
		respondServiceError(w, err, "get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PATCH /api/v1/users/{user_id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	targetID, ok := userParam(r, actorID)
	if !ok {
		respondError(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req services.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.EditProfile(r.Context(), actorID, targetID, req)
	if err != nil {
		respondServiceError(w, err, "update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PushTokenRequest represents the request body for registering a device
type PushTokenRequest struct {
	Token string `json:"token"`
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token. An empty token
// unregisters the device.
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), userID, req.Token); err != nil {
		respondServiceError(w, err, "update push token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AvatarRequest represents the request body for an avatar upload
type AvatarRequest struct {
	ContentType string `json:"content_type"`
}

// UploadAvatar handles POST /api/v1/users/me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req AvatarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upload, err := h.avatarService.PresignUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		respondServiceError(w, err, "generate upload URL")
		return
	}
	respondJSON(w, http.StatusOK, upload)
}

// userParam resolves {user_id}, accepting "me" for the caller
func userParam(r *http.Request, self uint) (uint, bool) {
	if chi.URLParam(r, "user_id") == "me" {
		return self, true
	}
	return pathID(r, "user_id")
}
