package notify

import (
	"context"

	"parkshare/internal/models"

	"github.com/rs/zerolog/log"
)

// Pusher delivers a notification to a device
type Pusher interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error
}

// UserLookup resolves push tokens
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Dispatcher routes friend request events to the websocket of an online
// user, falling back to a push notification. Failures are logged only.
type Dispatcher struct {
	hub    *Hub
	pusher Pusher
	users  UserLookup
}

// NewDispatcher creates a dispatcher. pusher may be nil to disable push.
func NewDispatcher(hub *Hub, pusher Pusher, users UserLookup) *Dispatcher {
	return &Dispatcher{hub: hub, pusher: pusher, users: users}
}

// NotifyFriendRequest tells the addressee about a new request
func (d *Dispatcher) NotifyFriendRequest(ctx context.Context, req *models.FriendRequest) {
	d.deliver(ctx, req.ToUserID, Message{Type: "friend_request", Data: req},
		"New friend request", "Someone wants to be your friend")
}

// NotifyFriendAccepted tells the sender their request was accepted
func (d *Dispatcher) NotifyFriendAccepted(ctx context.Context, req *models.FriendRequest) {
	d.deliver(ctx, req.FromUserID, Message{Type: "friend_request_accepted", Data: req},
		"Friend request accepted", "You have a new friend")
}

func (d *Dispatcher) deliver(ctx context.Context, userID int64, msg Message, title, body string) {
	if d.hub != nil && d.hub.IsOnline(userID) {
		err := d.hub.SendToUser(userID, msg)
		if err == nil {
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Str("type", msg.Type).Msg("Failed to send websocket notification")
	}

	if d.pusher == nil || d.users == nil {
		return
	}

	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for push notification")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	if err := d.pusher.Send(ctx, *user.PushToken, title, body, map[string]interface{}{"type": msg.Type}); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("type", msg.Type).Msg("Failed to send push notification")
	}
}
