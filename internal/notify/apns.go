package notify

import (
	"context"
	"fmt"

	"parkshare/internal/config"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushClient is the part of *apns2.Client used to deliver notifications
type PushClient interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsPusher sends alert notifications through Apple Push Notification service
type APNsPusher struct {
	client PushClient
	topic  string
}

// NewAPNsPusher creates a token-authenticated pusher from cfg
func NewAPNsPusher(cfg config.APNsConfig) (*APNsPusher, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
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

	return NewAPNsPusherWithClient(client, cfg.Topic), nil
}

// NewAPNsPusherWithClient wraps an existing push client
func NewAPNsPusherWithClient(client PushClient, topic string) *APNsPusher {
	return &APNsPusher{client: client, topic: topic}
}

// Send pushes an alert to one device
func (p *APNsPusher) Send(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error {
	pl := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	for k, v := range data {
		pl.Custom(k, v)
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push notification rejected: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
