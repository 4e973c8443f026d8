package services

import (
	"context"
	"fmt"

	"showup-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// Notifier delivers squad events to every member: over the websocket when
// the member is connected, otherwise as a push alert
type Notifier struct {
	store  *repository.Store
	hub    *WSHub
	pusher *Pusher
}

// NewNotifier creates a new notifier. pusher may be nil.
func NewNotifier(store *repository.Store, hub *WSHub, pusher *Pusher) *Notifier {
	return &Notifier{store: store, hub: hub, pusher: pusher}
}

// NotifySquad sends msg to each member of squadID. Delivery failures are
// logged and do not fail the call.
func (n *Notifier) NotifySquad(ctx context.Context, squadID uint, msg WSMessage) error {
	if n == nil {
		return nil
	}

	members, err := n.store.Users.ListBySquad(ctx, squadID)
	if err != nil {
		return fmt.Errorf("failed to list squad members: %w", err)
	}

	title, body := alertText(msg)
	for _, member := range members {
		if n.hub.IsOnline(member.ID) {
			err := n.hub.SendToUser(member.ID, msg)
			if err == nil {
				continue
			}
			log.Warn().Err(err).Uint("user_id", member.ID).Msg("WebSocket delivery failed, falling back to push")
		}

		if member.PushToken == nil || *member.PushToken == "" {
			continue
		}
		if err := n.pusher.Push(ctx, *member.PushToken, title, body, msg); err != nil {
			log.Error().Err(err).Uint("user_id", member.ID).Str("type", msg.Type).Msg("Failed to push notification")
		}
	}

	return nil
}

func alertText(msg WSMessage) (string, string) {
	switch msg.Type {
	case MessageJoinRequested:
		return "New join request", "Another squad wants to join yours"
	case MessageSquadMerged:
		return "Squad merged", "Your squad has new members"
	case MessageMatchCreated:
		return "It's a match!", "A squad you liked likes you back"
	default:
		return "ShowUp", msg.Message
	}
}
