package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"showup-backend/internal/middleware"
	"showup-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// WebSocketHandler streams squad notifications to connected users
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	joinService *services.JoinService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	joinService *services.JoinService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		joinService: joinService,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "open websocket")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// Tell the client how many join requests are waiting
	if user.SquadID != nil {
		pending, err := h.joinService.PendingCount(r.Context(), *user.SquadID)
		if err != nil {
			log.Error().Err(err).Uint("user_id", userID).Msg("Failed to count join requests")
		} else if pending > 0 {
			msg := services.WSMessage{
				Type:    services.MessageJoinRequested,
				SquadID: *user.SquadID,
				Data:    map[string]interface{}{"pending": pending},
			}
			if err := h.hub.SendToUser(userID, msg); err != nil {
				log.Error().Err(err).Uint("user_id", userID).Msg("Failed to send pending join requests")
			}
		}
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.ping(conn, done)

	// The channel is push-only; inbound frames only keep it alive
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Uint("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(userID, "Invalid message format")
			continue
		}
		if msg.Type != "ping" {
			h.sendError(userID, "Unknown message type")
		}
	}
}

func (h *WebSocketHandler) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// sendError sends an error message to a user
func (h *WebSocketHandler) sendError(userID uint, message string) {
	msg := services.WSMessage{
		Type:    services.MessageError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("Failed to send error message")
	}
}
