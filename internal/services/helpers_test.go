package services

import (
	"context"
	"testing"
	"time"

	"parkshare/internal/config"
	"parkshare/internal/models"
	"parkshare/internal/testutil"

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	requests []*models.FriendRequest
	accepted []*models.FriendRequest
}

func (n *recordingNotifier) NotifyFriendRequest(ctx context.Context, req *models.FriendRequest) {
	n.requests = append(n.requests, req)
}

func (n *recordingNotifier) NotifyFriendAccepted(ctx context.Context, req *models.FriendRequest) {
	n.accepted = append(n.accepted, req)
}

type testEnv struct {
	store    *testutil.MemoryStore
	images   *testutil.MemoryImageStore
	notifier *recordingNotifier
	users    *UserService
	accounts *AccountService
	friends  *FriendService
	parks    *ParkService
	posts    *PostService
	recipes  *RecipeService
	tags     *AttributeService
	ingreds  *AttributeService
	comments *CommentService
	uploads  *UploadService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFriends(t, config.FriendsConfig{})
}

func newTestEnvWithFriends(t *testing.T, friendsCfg config.FriendsConfig) *testEnv {
	t.Helper()
	store := testutil.NewMemoryStore()
	images := testutil.NewMemoryImageStore()
	notifier := &recordingNotifier{}
	posts := NewPostService(store, images)
	return &testEnv{
		store:    store,
		images:   images,
		notifier: notifier,
		users:    NewUserService(store, "test-secret", time.Hour),
		accounts: NewAccountService(store, images),
		friends:  NewFriendService(store, friendsCfg, notifier),
		parks:    NewParkService(store, images),
		posts:    posts,
		recipes:  NewRecipeService(store, images),
		tags:     NewAttributeService(store, models.AttributeTags),
		ingreds:  NewAttributeService(store, models.AttributeIngredients),
		comments: NewCommentService(store, posts),
		uploads:  NewUploadService(store, images, 1024*1024),
	}
}

func (e *testEnv) createUser(t *testing.T, email, name string) (*models.User, *models.Account) {
	t.Helper()
	ctx := context.Background()
	user, err := e.users.CreateUser(ctx, CreateUserInput{Email: email, Password: "secret123", Name: name})
	require.NoError(t, err)
	account, err := e.accounts.GetAccountForUser(ctx, user.ID)
	require.NoError(t, err)
	return user, account
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func tagSpecs(names ...string) *[]models.TagSpec {
	specs := make([]models.TagSpec, len(names))
	for i, n := range names {
		specs[i] = models.TagSpec{Name: n}
	}
	return &specs
}

func attrNames(attrs []models.Attribute) []string {
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names
}
