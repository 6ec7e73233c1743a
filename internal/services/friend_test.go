package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"parkshare/internal/config"
	"parkshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendUserIDs(friends []models.Friend) []int64 {
	ids := make([]int64, len(friends))
	for i, f := range friends {
		ids[i] = f.UserID
	}
	return ids
}

func TestAddFriendIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	first, err := env.friends.AddFriend(ctx, alice.ID, account.ID, models.FriendSpec{UserID: bob.ID})
	require.NoError(t, err)
	second, err := env.friends.AddFriend(ctx, alice.ID, account.ID, models.FriendSpec{UserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := env.accounts.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, friendUserIDs(got.Friends))
}

func TestAddFriendWithoutUserUsesRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")

	friend, err := env.friends.AddFriend(ctx, alice.ID, account.ID, models.FriendSpec{})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, friend.UserID)
	assert.Equal(t, account.Friends[0].ID, friend.ID)
}

func TestAddFriendChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	_, err := env.friends.AddFriend(ctx, bob.ID, account.ID, models.FriendSpec{UserID: bob.ID})
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	_, err = env.friends.AddFriend(ctx, alice.ID, account.ID, models.FriendSpec{UserID: 999})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = env.friends.AddFriend(ctx, alice.ID, 999, models.FriendSpec{UserID: bob.ID})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestReplaceFriendsNilVersusEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	friends, err := env.friends.ReplaceFriends(ctx, alice.ID, account.ID, &[]models.FriendSpec{{UserID: bob.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, friendUserIDs(friends))

	friends, err = env.friends.ReplaceFriends(ctx, alice.ID, account.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, friendUserIDs(friends))

	friends, err = env.friends.ReplaceFriends(ctx, alice.ID, account.ID, &[]models.FriendSpec{})
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestReplaceFriendsRollsBackOnUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")

	_, err := env.friends.ReplaceFriends(ctx, alice.ID, account.ID, &[]models.FriendSpec{{UserID: 999}})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	got, err := env.accounts.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID}, friendUserIDs(got.Friends))
}

func TestFriendMembershipOperations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")
	carol, _ := env.createUser(t, "c@example.com", "")

	bobFriend, err := env.friends.AddFriend(ctx, alice.ID, account.ID, models.FriendSpec{UserID: bob.ID})
	require.NoError(t, err)

	friends, err := env.friends.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 2)

	got, err := env.friends.GetFriend(ctx, alice.ID, bobFriend.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.UserID)

	// carol's set does not hold bob's Friend row
	_, err = env.friends.GetFriend(ctx, carol.ID, bobFriend.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	updated, err := env.friends.UpdateFriend(ctx, alice.ID, bobFriend.ID, models.FriendPatch{UserID: int64Ptr(carol.ID)})
	require.NoError(t, err)
	assert.Equal(t, carol.ID, updated.UserID)

	friends, err = env.friends.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, carol.ID}, friendUserIDs(friends))

	require.NoError(t, env.friends.RemoveFriend(ctx, alice.ID, updated.ID))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(env.friends.RemoveFriend(ctx, alice.ID, updated.ID)))

	// the shared Friend row survives removal
	_, err = env.store.Friends().GetByID(ctx, updated.ID)
	assert.NoError(t, err)
}

func TestSendFriendRequestGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	req, err := env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, req.FromUserID)
	assert.Equal(t, bob.ID, req.ToUserID)
	require.Len(t, env.notifier.requests, 1)
	assert.Equal(t, req.ID, env.notifier.requests[0].ID)

	_, err = env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = env.friends.SendFriendRequest(ctx, alice.ID, alice.ID)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = env.friends.SendFriendRequest(ctx, alice.ID, 999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	// the reverse direction is a different request
	_, err = env.friends.SendFriendRequest(ctx, bob.ID, alice.ID)
	assert.NoError(t, err)
}

func TestConcurrentFriendRequestsAreDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	const senders = 8
	errs := make([]error, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	}
	assert.Equal(t, 1, created)

	requests, err := env.friends.ListFriendRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestSendFriendRequestLockFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	env.store.FailOn("friendRequests.LockPair", errors.New("lock timeout"))
	_, err := env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.Empty(t, env.notifier.requests)

	env.store.FailOn("friendRequests.LockPair", nil)
	requests, err := env.friends.ListFriendRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestSendFriendRequestGuardsCanBeDisabled(t *testing.T) {
	off := false
	env := newTestEnvWithFriends(t, config.FriendsConfig{RejectSelfRequests: &off, RejectDuplicateRequests: &off})
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")

	_, err := env.friends.SendFriendRequest(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	_, err = env.friends.SendFriendRequest(ctx, alice.ID, alice.ID)
	require.NoError(t, err)

	requests, err := env.friends.ListFriendRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestAcceptFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, aliceAccount := env.createUser(t, "a@example.com", "")
	bob, bobAccount := env.createUser(t, "b@example.com", "")

	req, err := env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = env.friends.AcceptFriendRequest(ctx, alice.ID, req.ID)
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	_, err = env.friends.AcceptFriendRequest(ctx, bob.ID, req.ID)
	require.NoError(t, err)
	require.Len(t, env.notifier.accepted, 1)

	got, err := env.accounts.GetAccount(ctx, aliceAccount.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, friendUserIDs(got.Friends))
	got, err = env.accounts.GetAccount(ctx, bobAccount.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, friendUserIDs(got.Friends))

	requests, err := env.friends.ListFriendRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestDeleteFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")
	carol, _ := env.createUser(t, "c@example.com", "")

	req, err := env.friends.SendFriendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, models.CodeForbidden, models.ErrorCode(env.friends.DeleteFriendRequest(ctx, carol.ID, req.ID)))
	require.NoError(t, env.friends.DeleteFriendRequest(ctx, bob.ID, req.ID))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(env.friends.DeleteFriendRequest(ctx, bob.ID, req.ID)))
}
