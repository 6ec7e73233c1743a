package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaURL(key string) string { return "/media/" + key }

func TestImageViewJSON(t *testing.T) {
	key := "uploads/account/x.png"

	avatar := (&ImageSlot{Kind: ImageAccount, ID: 3, Key: &key}).View(mediaURL)
	data, err := json.Marshal(avatar)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"avatar":"/media/uploads/account/x.png"}`, string(data))

	empty := (&ImageSlot{Kind: ImagePost, ID: 4}).View(mediaURL)
	data, err = json.Marshal(&empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"image":null}`, string(data))
}

func TestProjectionsNeverRenderNullLists(t *testing.T) {
	post := Post{ID: 1, UserID: 2, Title: "Sample"}
	data, err := json.Marshal(post.ListView())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"user":2,"title":"Sample","park":null,"tags":[]}`, string(data))

	recipe := Recipe{ID: 1, Title: "Soup", Price: "5.00"}
	view := recipe.DetailView(mediaURL)
	assert.NotNil(t, view.Tags)
	assert.NotNil(t, view.Ingredients)
	assert.Nil(t, view.Image)

	account := Account{ID: 1, UserID: 2, Name: "Alice"}
	assert.NotNil(t, account.DetailView(mediaURL).Friends)
}

func TestDetailViewsResolveImageURLs(t *testing.T) {
	key := "uploads/park/p.jpg"
	park := Park{ID: 1, UserID: 2, Name: "Burnside", Image: &key}

	detail := park.DetailView(mediaURL)
	require.NotNil(t, detail.Image)
	assert.Equal(t, "/media/uploads/park/p.jpg", *detail.Image)

	raw := park.DetailView(nil)
	assert.Equal(t, key, *raw.Image)

	blank := ""
	park.Image = &blank
	assert.Nil(t, park.DetailView(mediaURL).Image)
}

func TestImageKind(t *testing.T) {
	assert.Equal(t, "uploads/recipe", ImageRecipe.Namespace())
	assert.Equal(t, "avatar", ImageAccount.ImageField())
	assert.Equal(t, "image", ImagePark.ImageField())
	assert.True(t, ImagePost.OwnerScoped())
	assert.False(t, ImageAccount.OwnerScoped())
	assert.True(t, AttributeIngredients.Valid())
	assert.False(t, AttributeKind("colors").Valid())
}

func TestPatchApply(t *testing.T) {
	parkID := int64(9)
	post := Post{Title: "old", Description: "keep", ParkID: &parkID}

	title := "new"
	(&PostPatch{Title: &title}).Apply(&post)
	assert.Equal(t, "new", post.Title)
	assert.Equal(t, "keep", post.Description)
	assert.Equal(t, &parkID, post.ParkID)

	(&PostPatch{ClearPark: true, ParkID: &parkID}).Apply(&post)
	assert.Nil(t, post.ParkID)
}

func TestErrorCode(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("loading post: %w", NewNotFoundError("Post", 7))

	assert.Equal(t, CodeNotFound, ErrorCode(wrapped))
	assert.Equal(t, CodeInternal, ErrorCode(cause))
	assert.Equal(t, "Post with ID 7 not found", NewNotFoundError("Post", 7).Error())

	internal := NewInternalError(cause)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "Internal server error: connection reset", internal.Error())

	field := NewFieldError("image", "bad")
	assert.Equal(t, map[string][]string{"image": {"bad"}}, field.Fields)
}
