package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"parkshare/internal/models"
	"parkshare/internal/repository"
)

// parks

type memParks struct{ s *MemoryStore }

func (r memParks) Create(ctx context.Context, park *models.Park) error {
	d, unlock, err := r.s.lock("parks.Create")
	if err != nil {
		return err
	}
	defer unlock()
	park.ID = d.id()
	d.parks[park.ID] = *park
	return nil
}

func (r memParks) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	d, unlock, err := r.s.lock("parks.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := d.parks[id]
	if !ok {
		return nil, notFound("park")
	}
	return &p, nil
}

func (r memParks) List(ctx context.Context) ([]models.Park, error) {
	d, unlock, err := r.s.lock("parks.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	ids := sortedIDs(d.parks)
	parks := []models.Park{}
	for i := len(ids) - 1; i >= 0; i-- {
		parks = append(parks, d.parks[ids[i]])
	}
	return parks, nil
}

func (r memParks) Update(ctx context.Context, park *models.Park) error {
	d, unlock, err := r.s.lock("parks.Update")
	if err != nil {
		return err
	}
	defer unlock()
	existing, ok := d.parks[park.ID]
	if !ok {
		return notFound("park")
	}
	updated := *park
	updated.UserID, updated.Image = existing.UserID, existing.Image
	d.parks[park.ID] = updated
	return nil
}

func (r memParks) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("parks.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.parks[id]; !ok {
		return notFound("park")
	}
	d.deletePark(id)
	return nil
}

// posts

type memPosts struct{ s *MemoryStore }

func (d *memData) attributesOf(kind models.AttributeKind, ids set) []models.Attribute {
	attrs := []models.Attribute{}
	for _, id := range sortedSet(ids) {
		attrs = append(attrs, d.attrs[kind][id])
	}
	return attrs
}

func (d *memData) loadPost(id int64) models.Post {
	p := d.posts[id]
	p.Tags = d.attributesOf(models.AttributeTags, d.postTags[id])
	return p
}

func (r memPosts) Create(ctx context.Context, post *models.Post) error {
	d, unlock, err := r.s.lock("posts.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if post.ParkID != nil {
		if _, ok := d.parks[*post.ParkID]; !ok {
			return notFound("park")
		}
	}
	post.ID = d.id()
	stored := *post
	stored.Tags = nil
	d.posts[post.ID] = stored
	return nil
}

func (r memPosts) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	d, unlock, err := r.s.lock("posts.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, ok := d.posts[id]; !ok {
		return nil, notFound("post")
	}
	p := d.loadPost(id)
	return &p, nil
}

func anyLinked(linked set, ids []int64) bool {
	for _, id := range ids {
		if linked[id] {
			return true
		}
	}
	return false
}

func (r memPosts) List(ctx context.Context, filter repository.PostFilter) ([]models.Post, error) {
	d, unlock, err := r.s.lock("posts.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	ids := sortedIDs(d.posts)
	posts := []models.Post{}
	for i := len(ids) - 1; i >= 0; i-- {
		p := d.posts[ids[i]]
		if p.UserID != filter.UserID {
			continue
		}
		if len(filter.TagIDs) > 0 && !anyLinked(d.postTags[p.ID], filter.TagIDs) {
			continue
		}
		if filter.ParkID != nil && (p.ParkID == nil || *p.ParkID != *filter.ParkID) {
			continue
		}
		posts = append(posts, d.loadPost(p.ID))
	}
	return posts, nil
}

func (r memPosts) Update(ctx context.Context, post *models.Post) error {
	d, unlock, err := r.s.lock("posts.Update")
	if err != nil {
		return err
	}
	defer unlock()
	p, ok := d.posts[post.ID]
	if !ok {
		return notFound("post")
	}
	p.ParkID, p.Title, p.Description = post.ParkID, post.Title, post.Description
	d.posts[post.ID] = p
	return nil
}

func (r memPosts) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("posts.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.posts[id]; !ok {
		return notFound("post")
	}
	d.deletePost(id)
	return nil
}

func (r memPosts) AddTag(ctx context.Context, postID, tagID int64) error {
	d, unlock, err := r.s.lock("posts.AddTag")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.attrs[models.AttributeTags][tagID]; !ok {
		return notFound("tag")
	}
	d.postTags.add(postID, tagID)
	return nil
}

func (r memPosts) ClearTags(ctx context.Context, postID int64) error {
	d, unlock, err := r.s.lock("posts.ClearTags")
	if err != nil {
		return err
	}
	defer unlock()
	delete(d.postTags, postID)
	return nil
}

// recipes

type memRecipes struct{ s *MemoryStore }

func (d *memData) loadRecipe(id int64) models.Recipe {
	rec := d.recipes[id]
	rec.Tags = d.attributesOf(models.AttributeTags, d.recipeAttrs[models.AttributeTags][id])
	rec.Ingredients = d.attributesOf(models.AttributeIngredients, d.recipeAttrs[models.AttributeIngredients][id])
	return rec
}

func (r memRecipes) Create(ctx context.Context, recipe *models.Recipe) error {
	d, unlock, err := r.s.lock("recipes.Create")
	if err != nil {
		return err
	}
	defer unlock()
	recipe.ID = d.id()
	stored := *recipe
	stored.Tags, stored.Ingredients = nil, nil
	d.recipes[recipe.ID] = stored
	return nil
}

func (r memRecipes) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	d, unlock, err := r.s.lock("recipes.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, ok := d.recipes[id]; !ok {
		return nil, notFound("recipe")
	}
	rec := d.loadRecipe(id)
	return &rec, nil
}

func (r memRecipes) List(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	d, unlock, err := r.s.lock("recipes.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	ids := sortedIDs(d.recipes)
	recipes := []models.Recipe{}
	for i := len(ids) - 1; i >= 0; i-- {
		rec := d.recipes[ids[i]]
		if rec.UserID != filter.UserID {
			continue
		}
		if len(filter.TagIDs) > 0 && !anyLinked(d.recipeAttrs[models.AttributeTags][rec.ID], filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !anyLinked(d.recipeAttrs[models.AttributeIngredients][rec.ID], filter.IngredientIDs) {
			continue
		}
		recipes = append(recipes, d.loadRecipe(rec.ID))
	}
	return recipes, nil
}

func (r memRecipes) Update(ctx context.Context, recipe *models.Recipe) error {
	d, unlock, err := r.s.lock("recipes.Update")
	if err != nil {
		return err
	}
	defer unlock()
	rec, ok := d.recipes[recipe.ID]
	if !ok {
		return notFound("recipe")
	}
	rec.Title, rec.Description, rec.TimeMinutes = recipe.Title, recipe.Description, recipe.TimeMinutes
	rec.Price, rec.Link = recipe.Price, recipe.Link
	d.recipes[recipe.ID] = rec
	return nil
}

func (r memRecipes) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("recipes.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.recipes[id]; !ok {
		return notFound("recipe")
	}
	d.deleteRecipe(id)
	return nil
}

func (r memRecipes) AddAttribute(ctx context.Context, kind models.AttributeKind, recipeID, attrID int64) error {
	d, unlock, err := r.s.lock("recipes.AddAttribute")
	if err != nil {
		return err
	}
	defer unlock()
	if !kind.Valid() {
		return fmt.Errorf("unknown attribute kind %q", kind)
	}
	if _, ok := d.attrs[kind][attrID]; !ok {
		return notFound(string(kind))
	}
	d.recipeAttrs[kind].add(recipeID, attrID)
	return nil
}

func (r memRecipes) ClearAttributes(ctx context.Context, kind models.AttributeKind, recipeID int64) error {
	d, unlock, err := r.s.lock("recipes.ClearAttributes")
	if err != nil {
		return err
	}
	defer unlock()
	if !kind.Valid() {
		return fmt.Errorf("unknown attribute kind %q", kind)
	}
	delete(d.recipeAttrs[kind], recipeID)
	return nil
}

// tags and ingredients

type memAttributes struct{ s *MemoryStore }

func (r memAttributes) GetOrCreate(ctx context.Context, kind models.AttributeKind, userID int64, name string) (*models.Attribute, error) {
	d, unlock, err := r.s.lock("attributes.GetOrCreate")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
	for _, a := range d.attrs[kind] {
		if a.UserID == userID && a.Name == name {
			return &a, nil
		}
	}
	a := models.Attribute{ID: d.id(), UserID: userID, Name: name}
	d.attrs[kind][a.ID] = a
	return &a, nil
}

func (r memAttributes) GetByID(ctx context.Context, kind models.AttributeKind, id int64) (*models.Attribute, error) {
	d, unlock, err := r.s.lock("attributes.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	a, ok := d.attrs[kind][id]
	if !ok {
		return nil, notFound(string(kind))
	}
	return &a, nil
}

func (d *memData) assigned(kind models.AttributeKind, id int64) bool {
	if kind == models.AttributeTags {
		for _, s := range d.postTags {
			if s[id] {
				return true
			}
		}
	}
	for _, s := range d.recipeAttrs[kind] {
		if s[id] {
			return true
		}
	}
	return false
}

func (r memAttributes) List(ctx context.Context, kind models.AttributeKind, userID int64, assignedOnly bool) ([]models.Attribute, error) {
	d, unlock, err := r.s.lock("attributes.List")
	if err != nil {
		return nil, err
	}
	defer unlock()
	attrs := []models.Attribute{}
	for id, a := range d.attrs[kind] {
		if a.UserID != userID || (assignedOnly && !d.assigned(kind, id)) {
			continue
		}
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return strings.Compare(attrs[i].Name, attrs[j].Name) > 0 })
	return attrs, nil
}

func (r memAttributes) Update(ctx context.Context, kind models.AttributeKind, attr *models.Attribute) error {
	d, unlock, err := r.s.lock("attributes.Update")
	if err != nil {
		return err
	}
	defer unlock()
	existing, ok := d.attrs[kind][attr.ID]
	if !ok {
		return notFound(string(kind))
	}
	for id, a := range d.attrs[kind] {
		if id != attr.ID && a.UserID == existing.UserID && a.Name == attr.Name {
			return duplicate(string(kind))
		}
	}
	existing.Name = attr.Name
	d.attrs[kind][attr.ID] = existing
	return nil
}

func (r memAttributes) Delete(ctx context.Context, kind models.AttributeKind, id int64) error {
	d, unlock, err := r.s.lock("attributes.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.attrs[kind][id]; !ok {
		return notFound(string(kind))
	}
	d.deleteAttribute(kind, id)
	return nil
}

// comments

type memComments struct{ s *MemoryStore }

func (r memComments) Create(ctx context.Context, comment *models.Comment) error {
	d, unlock, err := r.s.lock("comments.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.posts[comment.PostID]; !ok {
		return notFound("post")
	}
	comment.ID = d.id()
	comment.CreatedAt = time.Now()
	d.comments[comment.ID] = *comment
	return nil
}

func (r memComments) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	d, unlock, err := r.s.lock("comments.GetByID")
	if err != nil {
		return nil, err
	}
	defer unlock()
	c, ok := d.comments[id]
	if !ok {
		return nil, notFound("comment")
	}
	return &c, nil
}

func (r memComments) ListForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	d, unlock, err := r.s.lock("comments.ListForPost")
	if err != nil {
		return nil, err
	}
	defer unlock()
	comments := []models.Comment{}
	for _, id := range sortedIDs(d.comments) {
		if c := d.comments[id]; c.PostID == postID {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

func (r memComments) Delete(ctx context.Context, id int64) error {
	d, unlock, err := r.s.lock("comments.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := d.comments[id]; !ok {
		return notFound("comment")
	}
	delete(d.comments, id)
	return nil
}

// image slots

type memImages struct{ s *MemoryStore }

func (r memImages) Get(ctx context.Context, kind models.ImageKind, id int64) (*models.ImageSlot, error) {
	d, unlock, err := r.s.lock("images.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	slot := models.ImageSlot{Kind: kind, ID: id}
	switch kind {
	case models.ImageAccount:
		a, ok := d.accounts[id]
		if !ok {
			return nil, notFound("account")
		}
		slot.OwnerID, slot.Key = a.UserID, a.Avatar
	case models.ImagePark:
		p, ok := d.parks[id]
		if !ok {
			return nil, notFound("park")
		}
		slot.OwnerID, slot.Key = p.UserID, p.Image
	case models.ImagePost:
		p, ok := d.posts[id]
		if !ok {
			return nil, notFound("post")
		}
		slot.OwnerID, slot.Key = p.UserID, p.Image
	case models.ImageRecipe:
		rec, ok := d.recipes[id]
		if !ok {
			return nil, notFound("recipe")
		}
		slot.OwnerID, slot.Key = rec.UserID, rec.Image
	default:
		return nil, fmt.Errorf("unknown image kind %q", kind)
	}
	return &slot, nil
}

func (r memImages) Set(ctx context.Context, kind models.ImageKind, id int64, key string) error {
	d, unlock, err := r.s.lock("images.Set")
	if err != nil {
		return err
	}
	defer unlock()
	switch kind {
	case models.ImageAccount:
		a, ok := d.accounts[id]
		if !ok {
			return notFound("account")
		}
		a.Avatar = &key
		d.accounts[id] = a
	case models.ImagePark:
		p, ok := d.parks[id]
		if !ok {
			return notFound("park")
		}
		p.Image = &key
		d.parks[id] = p
	case models.ImagePost:
		p, ok := d.posts[id]
		if !ok {
			return notFound("post")
		}
		p.Image = &key
		d.posts[id] = p
	case models.ImageRecipe:
		rec, ok := d.recipes[id]
		if !ok {
			return notFound("recipe")
		}
		rec.Image = &key
		d.recipes[id] = rec
	default:
		return fmt.Errorf("unknown image kind %q", kind)
	}
	return nil
}
