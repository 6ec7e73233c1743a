package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"parkshare/internal/config"
	"parkshare/internal/database"
	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a real PostgreSQL database named by
// TEST_DATABASE_URL and are skipped without one.
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	testPool = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func newStore(t *testing.T) *repository.PgStore {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	_, err := testPool.Exec(context.Background(), `
		TRUNCATE users, accounts, friends, account_friends, friend_requests, parks, posts,
			tags, ingredients, post_tags, recipes, recipe_tags, recipe_ingredients, comments
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)
	return repository.NewPgStore(testPool)
}

func createUser(t *testing.T, st repository.Store, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, st.Users().Create(context.Background(), user))
	return user
}

func TestUserConstraints(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	user := createUser(t, st, "a@example.com")
	err := st.Users().Create(ctx, &models.User{Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = st.Users().GetByID(ctx, user.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := st.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestFriendGetOrCreateAndAssociate(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	user := createUser(t, st, "a@example.com")
	account := &models.Account{UserID: user.ID}
	require.NoError(t, st.Accounts().Create(ctx, account))

	first, err := st.Friends().GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	second, err := st.Friends().GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, st.Friends().Associate(ctx, account.ID, first.ID))
	require.NoError(t, st.Friends().Associate(ctx, account.ID, first.ID))

	friends, err := st.Friends().ListForAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 1)

	require.NoError(t, st.Friends().Dissociate(ctx, account.ID, first.ID))
	assert.ErrorIs(t, st.Friends().Dissociate(ctx, account.ID, first.ID), repository.ErrNotFound)
}

// concurrently runs fn from n goroutines and returns the ids they produced
func concurrently(t *testing.T, n int, fn func() (int64, error)) []int64 {
	t.Helper()
	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = fn()
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	return ids
}

func countRows(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, testPool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestConcurrentGetOrCreate(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	user := createUser(t, st, "a@example.com")
	const workers = 16

	friendIDs := concurrently(t, workers, func() (int64, error) {
		f, err := st.Friends().GetOrCreate(ctx, user.ID)
		if err != nil {
			return 0, err
		}
		return f.ID, nil
	})
	for _, id := range friendIDs {
		assert.Equal(t, friendIDs[0], id)
	}
	assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM friends WHERE user_id = $1`, user.ID))

	tagIDs := concurrently(t, workers, func() (int64, error) {
		attr, err := st.Attributes().GetOrCreate(ctx, models.AttributeTags, user.ID, "bowl")
		if err != nil {
			return 0, err
		}
		return attr.ID, nil
	})
	for _, id := range tagIDs {
		assert.Equal(t, tagIDs[0], id)
	}
	assert.Equal(t, 1, countRows(t, `SELECT COUNT(*) FROM tags WHERE user_id = $1 AND name = 'bowl'`, user.ID))
}

func TestConcurrentFriendRequestsAreDeduplicated(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	alice := createUser(t, st, "a@example.com")
	bob := createUser(t, st, "b@example.com")
	friends := services.NewFriendService(st, config.FriendsConfig{}, nil)

	const senders = 8
	errs := make([]error, senders)
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = friends.SendFriendRequest(ctx, alice.ID, bob.ID)
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
	assert.Equal(t, 1, countRows(t,
		`SELECT COUNT(*) FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2`, alice.ID, bob.ID))
}

func TestInTxRollsBack(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.InTx(ctx, func(tx repository.Store) error {
		createUser(t, tx, "a@example.com")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = st.Users().GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostTagsAndParkDeletion(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	user := createUser(t, st, "a@example.com")

	park := &models.Park{UserID: user.ID, Name: "Burnside", Country: models.DefaultCountry}
	require.NoError(t, st.Parks().Create(ctx, park))

	post := &models.Post{UserID: user.ID, ParkID: &park.ID, Title: "Sample"}
	require.NoError(t, st.Posts().Create(ctx, post))

	bowl, err := st.Attributes().GetOrCreate(ctx, models.AttributeTags, user.ID, "bowl")
	require.NoError(t, err)
	again, err := st.Attributes().GetOrCreate(ctx, models.AttributeTags, user.ID, "bowl")
	require.NoError(t, err)
	assert.Equal(t, bowl.ID, again.ID)

	require.NoError(t, st.Posts().AddTag(ctx, post.ID, bowl.ID))
	require.NoError(t, st.Posts().AddTag(ctx, post.ID, bowl.ID))

	posts, err := st.Posts().List(ctx, repository.PostFilter{UserID: user.ID, TagIDs: []int64{bowl.ID}})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, posts[0].Tags, 1)

	assigned, err := st.Attributes().List(ctx, models.AttributeTags, user.ID, true)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	require.NoError(t, st.Parks().Delete(ctx, park.ID))
	got, err := st.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParkID)
}

func TestRecipePriceAndAttributes(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	user := createUser(t, st, "a@example.com")

	recipe := &models.Recipe{UserID: user.ID, Title: "Soup", TimeMinutes: 10, Price: "5.5"}
	require.NoError(t, st.Recipes().Create(ctx, recipe))
	assert.Equal(t, "5.50", recipe.Price)

	leek, err := st.Attributes().GetOrCreate(ctx, models.AttributeIngredients, user.ID, "leek")
	require.NoError(t, err)
	require.NoError(t, st.Recipes().AddAttribute(ctx, models.AttributeIngredients, recipe.ID, leek.ID))

	got, err := st.Recipes().GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "leek", got.Ingredients[0].Name)

	require.NoError(t, st.Recipes().ClearAttributes(ctx, models.AttributeIngredients, recipe.ID))
	got, err = st.Recipes().GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Ingredients)
}

func TestImageSlots(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	user := createUser(t, st, "a@example.com")
	account := &models.Account{UserID: user.ID}
	require.NoError(t, st.Accounts().Create(ctx, account))

	slot, err := st.Images().Get(ctx, models.ImageAccount, account.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, slot.OwnerID)
	assert.Nil(t, slot.Key)

	require.NoError(t, st.Images().Set(ctx, models.ImageAccount, account.ID, "uploads/account/a.png"))
	slot, err = st.Images().Get(ctx, models.ImageAccount, account.ID)
	require.NoError(t, err)
	require.NotNil(t, slot.Key)
	assert.Equal(t, "uploads/account/a.png", *slot.Key)

	assert.ErrorIs(t, st.Images().Set(ctx, models.ImagePost, 999, "k"), repository.ErrNotFound)
}
