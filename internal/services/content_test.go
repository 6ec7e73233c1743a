package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"parkshare/internal/models"
	"parkshare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "Alice")
	bob, _ := env.createUser(t, "b@example.com", "")

	updated, err := env.accounts.UpdateAccount(ctx, alice.ID, account.ID, models.AccountPatch{
		Pronouns: strPtr("she/her"),
		Bio:      strPtr("skater"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "she/her", updated.Pronouns)
	assert.Equal(t, "skater", updated.Bio)
	assert.Len(t, updated.Friends, 1, "omitted friends leave the set untouched")

	updated, err = env.accounts.UpdateAccount(ctx, alice.ID, account.ID, models.AccountPatch{
		Friends: &[]models.FriendSpec{},
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Friends, "an explicit empty list clears the set")

	_, err = env.accounts.UpdateAccount(ctx, bob.ID, account.ID, models.AccountPatch{Name: strPtr("x")})
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
}

func TestUpdateAccountValidationRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "Alice")

	_, err := env.accounts.UpdateAccount(ctx, alice.ID, account.ID, models.AccountPatch{
		Name:     strPtr("Changed"),
		Pronouns: strPtr(strings.Repeat("x", 31)),
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "pronouns")

	got, err := env.accounts.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestListAccountsFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	env.createUser(t, "b@example.com", "")

	all, err := env.accounts.ListAccounts(ctx, repository.AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Greater(t, all[0].ID, all[1].ID)

	mine, err := env.accounts.ListAccounts(ctx, repository.AccountFilter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].UserID)
}

func TestDeleteAccountDeletesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	assert.Equal(t, models.CodeForbidden, models.ErrorCode(env.accounts.DeleteAccount(ctx, bob.ID, account.ID)))
	require.NoError(t, env.accounts.DeleteAccount(ctx, alice.ID, account.ID))

	_, err := env.users.GetUser(ctx, alice.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestCreatePostAccountLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")

	env.store.FailOn("accounts.GetByUserID", errors.New("connection reset"))
	_, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("Sample")})
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))

	env.store.FailOn("accounts.GetByUserID", nil)
	posts, err := env.posts.ListPosts(ctx, repository.PostFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestParkLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	_, err := env.parks.CreatePark(ctx, alice.ID, models.ParkPatch{})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	park, err := env.parks.CreatePark(ctx, alice.ID, models.ParkPatch{Name: strPtr("Burnside"), City: strPtr("Portland")})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCountry, park.Country)

	parks, err := env.parks.ListParks(ctx)
	require.NoError(t, err)
	assert.Len(t, parks, 1)

	_, err = env.parks.UpdatePark(ctx, bob.ID, park.ID, models.ParkPatch{City: strPtr("Seattle")})
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))

	updated, err := env.parks.UpdatePark(ctx, alice.ID, park.ID, models.ParkPatch{City: strPtr("Seattle")})
	require.NoError(t, err)
	assert.Equal(t, "Seattle", updated.City)
	assert.Equal(t, "Burnside", updated.Name)

	post, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("Session"), ParkID: &park.ID})
	require.NoError(t, err)

	require.NoError(t, env.parks.DeletePark(ctx, alice.ID, park.ID))
	got, err := env.posts.GetPost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParkID, "deleting a park keeps its posts")
}

func TestPostTagsReconciliation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, account := env.createUser(t, "a@example.com", "")

	post, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{
		Title: strPtr("Sample"),
		Tags:  tagSpecs("bowl", "street", "bowl"),
	})
	require.NoError(t, err)
	require.NotNil(t, post.AccountID)
	assert.Equal(t, account.ID, *post.AccountID)
	assert.Equal(t, []string{"bowl", "street"}, attrNames(post.Tags))

	post, err = env.posts.UpdatePost(ctx, alice.ID, post.ID, models.PostPatch{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", post.Title)
	assert.Len(t, post.Tags, 2, "omitted tags are left untouched")

	post, err = env.posts.UpdatePost(ctx, alice.ID, post.ID, models.PostPatch{Tags: tagSpecs("vert")})
	require.NoError(t, err)
	assert.Equal(t, []string{"vert"}, attrNames(post.Tags))

	post, err = env.posts.UpdatePost(ctx, alice.ID, post.ID, models.PostPatch{Tags: tagSpecs()})
	require.NoError(t, err)
	assert.Empty(t, post.Tags, "an explicit empty list clears the tags")

	// tags outlive their links and are reused by name
	tags, err := env.tags.List(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"vert", "street", "bowl"}, attrNames(tags))
}

func TestTagsArePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	a, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("A"), Tags: tagSpecs("bowl")})
	require.NoError(t, err)
	b, err := env.posts.CreatePost(ctx, bob.ID, models.PostPatch{Title: strPtr("B"), Tags: tagSpecs("bowl")})
	require.NoError(t, err)
	assert.NotEqual(t, a.Tags[0].ID, b.Tags[0].ID)

	_, err = env.tags.Rename(ctx, bob.ID, a.Tags[0].ID, "mine")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostsAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	post, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("Mine")})
	require.NoError(t, err)

	_, err = env.posts.GetPost(ctx, bob.ID, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	_, err = env.posts.UpdatePost(ctx, bob.ID, post.ID, models.PostPatch{Title: strPtr("Theirs")})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(env.posts.DeletePost(ctx, bob.ID, post.ID)))

	posts, err := env.posts.ListPosts(ctx, repository.PostFilter{UserID: bob.ID})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostValidationAndFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")

	_, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("x"), ParkID: int64Ptr(999)})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "park")

	park, err := env.parks.CreatePark(ctx, alice.ID, models.ParkPatch{Name: strPtr("Burnside")})
	require.NoError(t, err)
	atPark, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("one"), ParkID: &park.ID, Tags: tagSpecs("bowl")})
	require.NoError(t, err)
	_, err = env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("two"), Tags: tagSpecs("street")})
	require.NoError(t, err)

	byTag, err := env.posts.ListPosts(ctx, repository.PostFilter{UserID: alice.ID, TagIDs: []int64{atPark.Tags[0].ID}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, atPark.ID, byTag[0].ID)

	byPark, err := env.posts.ListPosts(ctx, repository.PostFilter{UserID: alice.ID, ParkID: &park.ID})
	require.NoError(t, err)
	require.Len(t, byPark, 1)

	cleared, err := env.posts.UpdatePost(ctx, alice.ID, atPark.ID, models.PostPatch{ClearPark: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ParkID)
}

func TestRecipes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	_, err := env.recipes.CreateRecipe(ctx, alice.ID, models.RecipePatch{Title: strPtr("Soup"), Price: strPtr("1000")})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	recipe, err := env.recipes.CreateRecipe(ctx, alice.ID, models.RecipePatch{
		Title:       strPtr("Soup"),
		Price:       strPtr("5.5"),
		Tags:        tagSpecs("vegan"),
		Ingredients: tagSpecs("leek", "potato"),
	})
	require.NoError(t, err)
	assert.Equal(t, "5.50", recipe.Price)
	assert.Equal(t, []string{"vegan"}, attrNames(recipe.Tags))
	assert.Equal(t, []string{"leek", "potato"}, attrNames(recipe.Ingredients))

	recipe, err = env.recipes.UpdateRecipe(ctx, alice.ID, recipe.ID, models.RecipePatch{Ingredients: tagSpecs()})
	require.NoError(t, err)
	assert.Empty(t, recipe.Ingredients)
	assert.Len(t, recipe.Tags, 1)

	_, err = env.recipes.GetRecipe(ctx, bob.ID, recipe.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	assigned, err := env.ingreds.List(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Empty(t, assigned)
	all, err := env.ingreds.List(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"potato", "leek"}, attrNames(all))

	require.NoError(t, env.recipes.DeleteRecipe(ctx, alice.ID, recipe.ID))
	recipes, err := env.recipes.ListRecipes(ctx, repository.RecipeFilter{UserID: alice.ID})
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestAttributeRenameAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")

	post, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("x"), Tags: tagSpecs("bowl", "street")})
	require.NoError(t, err)

	_, err = env.tags.Rename(ctx, alice.ID, post.Tags[0].ID, "street")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	renamed, err := env.tags.Rename(ctx, alice.ID, post.Tags[0].ID, "pool")
	require.NoError(t, err)
	assert.Equal(t, "pool", renamed.Name)

	require.NoError(t, env.tags.Delete(ctx, alice.ID, post.Tags[1].ID))
	got, err := env.posts.GetPost(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pool"}, attrNames(got.Tags))
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "a@example.com", "")
	bob, _ := env.createUser(t, "b@example.com", "")

	post, err := env.posts.CreatePost(ctx, alice.ID, models.PostPatch{Title: strPtr("x")})
	require.NoError(t, err)

	_, err = env.comments.AddComment(ctx, alice.ID, post.ID, "  ")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	_, err = env.comments.AddComment(ctx, bob.ID, post.ID, "hi")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	comment, err := env.comments.AddComment(ctx, alice.ID, post.ID, "nice line")
	require.NoError(t, err)

	comments, err := env.comments.ListComments(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice line", comments[0].Content)

	assert.Equal(t, models.CodeForbidden, models.ErrorCode(env.comments.DeleteComment(ctx, bob.ID, comment.ID)))
	require.NoError(t, env.comments.DeleteComment(ctx, alice.ID, comment.ID))
}
