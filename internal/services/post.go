package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/storage"
)

// PostService handles posts and their tags. Posts are visible to their
// owner only.
type PostService struct {
	store  repository.Store
	images storage.ImageStore
}

// NewPostService creates a new post service. images may be nil.
func NewPostService(store repository.Store, images storage.ImageStore) *PostService {
	return &PostService{store: store, images: images}
}

// resolveAttributes get-or-creates each named attribute in userID's namespace
func resolveAttributes(ctx context.Context, st repository.Store, kind models.AttributeKind, userID int64, specs []models.TagSpec) ([]models.Attribute, error) {
	attrs := make([]models.Attribute, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, models.NewFieldError(string(kind), "name may not be blank")
		}
		attr, err := st.Attributes().GetOrCreate(ctx, kind, userID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s %q: %w", kind, name, err)
		}
		attrs = append(attrs, *attr)
	}
	return attrs, nil
}

// reconcileTags resets a post's tags to specs. A nil specs is a no-op.
func reconcileTags(ctx context.Context, st repository.Store, userID, postID int64, specs *[]models.TagSpec) error {
	if specs == nil {
		return nil
	}
	if err := st.Posts().ClearTags(ctx, postID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	tags, err := resolveAttributes(ctx, st, models.AttributeTags, userID, *specs)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		if err := st.Posts().AddTag(ctx, postID, tag.ID); err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}
	}
	return nil
}

func checkPark(ctx context.Context, st repository.Store, parkID *int64) error {
	if parkID == nil {
		return nil
	}
	if _, err := st.Parks().GetByID(ctx, *parkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewFieldError("park", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *parkID))
		}
		return err
	}
	return nil
}

// CreatePost creates a post for userID with its tags
func (s *PostService) CreatePost(ctx context.Context, userID int64, in models.PostPatch) (*models.Post, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, models.NewFieldError("title", "title is required")
	}

	post := &models.Post{UserID: userID}
	in.Apply(post)

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := checkPark(ctx, tx, post.ParkID); err != nil {
			return err
		}
		account, err := tx.Accounts().GetByUserID(ctx, userID)
		switch {
		case err == nil:
			post.AccountID = &account.ID
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to get account: %w", err)
		}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		tags := in.Tags
		if tags == nil {
			tags = &[]models.TagSpec{}
		}
		return reconcileTags(ctx, tx, userID, post.ID, tags)
	})
	if err != nil {
		return nil, appError(err, "Post", post.Title)
	}
	return s.GetPost(ctx, userID, post.ID)
}

// ListPosts returns the posts matching filter
func (s *PostService) ListPosts(ctx context.Context, filter repository.PostFilter) ([]models.Post, error) {
	posts, err := s.store.Posts().List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// GetPost returns a post owned by requesterID
func (s *PostService) GetPost(ctx context.Context, requesterID, id int64) (*models.Post, error) {
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, appError(err, "Post", id)
	}
	if post.UserID != requesterID {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// UpdatePost applies patch to a post owned by requesterID
func (s *PostService) UpdatePost(ctx context.Context, requesterID, id int64, patch models.PostPatch) (*models.Post, error) {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		post, err := tx.Posts().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if post.UserID != requesterID {
			return models.NewNotFoundError("Post", id)
		}

		patch.Apply(post)
		if strings.TrimSpace(post.Title) == "" {
			return models.NewFieldError("title", "title may not be blank")
		}
		if err := checkPark(ctx, tx, post.ParkID); err != nil {
			return err
		}
		if err := tx.Posts().Update(ctx, post); err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		return reconcileTags(ctx, tx, requesterID, post.ID, patch.Tags)
	})
	if err != nil {
		return nil, appError(err, "Post", id)
	}
	return s.GetPost(ctx, requesterID, id)
}

// DeletePost removes a post owned by requesterID
func (s *PostService) DeletePost(ctx context.Context, requesterID, id int64) error {
	post, err := s.GetPost(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if err := s.store.Posts().Delete(ctx, id); err != nil {
		return appError(err, "Post", id)
	}
	removeImages(ctx, s.images, post.Image)
	return nil
}
