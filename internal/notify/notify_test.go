package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"parkshare/internal/models"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	fail     bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func decode(t *testing.T, data []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubRegisterAndSend(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	assert.False(t, hub.IsOnline(1))
	assert.Error(t, hub.SendToUser(1, Message{Type: "pong"}))

	hub.Register(1, conn)
	assert.True(t, hub.IsOnline(1))
	require.NoError(t, hub.SendToUser(1, Message{Type: "pong"}))
	require.Len(t, conn.messages, 1)
	assert.Equal(t, "pong", decode(t, conn.messages[0]).Type)
}

func TestHubReplacesConnection(t *testing.T) {
	hub := NewHub()
	first, second := &fakeConn{}, &fakeConn{}

	hub.Register(1, first)
	hub.Register(1, second)
	assert.True(t, first.closed)

	// a late unregister of the old connection keeps the new one
	hub.Unregister(1, first)
	assert.True(t, hub.IsOnline(1))

	hub.Unregister(1, second)
	assert.False(t, hub.IsOnline(1))
	assert.True(t, second.closed)
}

func TestHubDropsBrokenConnection(t *testing.T) {
	hub := NewHub()
	hub.Register(1, &fakeConn{fail: true})

	assert.Error(t, hub.SendToUser(1, Message{Type: "friend_request"}))
	assert.False(t, hub.IsOnline(1))
}

type fakePusher struct {
	tokens []string
	err    error
}

func (p *fakePusher) Send(ctx context.Context, deviceToken, title, body string, data map[string]interface{}) error {
	p.tokens = append(p.tokens, deviceToken)
	return p.err
}

type fakeUsers map[int64]*models.User

func (u fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

func TestDispatcherPrefersWebsocket(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register(2, conn)
	pusher := &fakePusher{}
	token := "device"
	d := NewDispatcher(hub, pusher, fakeUsers{2: {ID: 2, PushToken: &token}})

	d.NotifyFriendRequest(context.Background(), &models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2})

	require.Len(t, conn.messages, 1)
	assert.Equal(t, "friend_request", decode(t, conn.messages[0]).Type)
	assert.Empty(t, pusher.tokens)
}

func TestDispatcherFallsBackToPush(t *testing.T) {
	pusher := &fakePusher{}
	token := "device-1"
	d := NewDispatcher(NewHub(), pusher, fakeUsers{1: {ID: 1, PushToken: &token}, 2: {ID: 2}})

	d.NotifyFriendAccepted(context.Background(), &models.FriendRequest{ID: 5, FromUserID: 1, ToUserID: 2})
	assert.Equal(t, []string{"device-1"}, pusher.tokens)

	// no token, nothing to push to
	d.NotifyFriendRequest(context.Background(), &models.FriendRequest{ID: 6, FromUserID: 1, ToUserID: 2})
	assert.Len(t, pusher.tokens, 1)
}

func TestDispatcherSwallowsPushErrors(t *testing.T) {
	pusher := &fakePusher{err: errors.New("apns down")}
	token := "device"
	d := NewDispatcher(nil, pusher, fakeUsers{2: {ID: 2, PushToken: &token}})

	assert.NotPanics(t, func() {
		d.NotifyFriendRequest(context.Background(), &models.FriendRequest{ToUserID: 2})
	})
}

type fakePushClient struct {
	notifications []*apns2.Notification
	status        int
}

func (c *fakePushClient) PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.notifications = append(c.notifications, n)
	return &apns2.Response{StatusCode: c.status, Reason: "BadDeviceToken"}, nil
}

func TestAPNsPusher(t *testing.T) {
	client := &fakePushClient{status: 200}
	p := NewAPNsPusherWithClient(client, "com.example.parkshare")

	err := p.Send(context.Background(), "abc", "Title", "Body", map[string]interface{}{"type": "friend_request"})
	require.NoError(t, err)
	require.Len(t, client.notifications, 1)
	assert.Equal(t, "abc", client.notifications[0].DeviceToken)
	assert.Equal(t, "com.example.parkshare", client.notifications[0].Topic)

	raw, err := json.Marshal(client.notifications[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"friend_request"`)
	assert.Contains(t, string(raw), `"title":"Title"`)

	client.status = 400
	assert.Error(t, p.Send(context.Background(), "bad", "Title", "Body", nil))
}

func TestAPNsPusherHonoursCancellation(t *testing.T) {
	client := &fakePushClient{status: 200}
	p := NewAPNsPusherWithClient(client, "com.example.parkshare")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, "abc", "Title", "Body", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.notifications)
}
