package services

import (
	"context"
	"fmt"

	"showup-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher sends APNs alerts. A nil *Pusher drops every alert.
type Pusher struct {
	client *apns2.Client
	topic  string
}

// NewPusher builds a token-based APNs client. It returns nil, nil when no
// key is configured.
func NewPusher(cfg config.APNsConfig) (*Pusher, error) {
	if cfg.KeyPath == "" {
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &Pusher{client: client, topic: cfg.Topic}, nil
}

// Push sends one alert to a device token
func (p *Pusher) Push(ctx context.Context, deviceToken, title, body string, msg WSMessage) error {
	if p == nil {
		return nil
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload: payload.NewPayload().
			AlertTitle(title).
			AlertBody(body).
			Sound("default").
			Custom("type", msg.Type).
			Custom("squad_id", msg.SquadID),
	}

	res, err := p.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().Str("apns_id", res.ApnsID).Str("type", msg.Type).Msg("Push notification sent")
	return nil
}
