package services

import (
	"context"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
)

// CommentService handles comments on posts
type CommentService struct {
	store repository.Store
	posts *PostService
}

// NewCommentService creates a new comment service
func NewCommentService(store repository.Store, posts *PostService) *CommentService {
	return &CommentService{store: store, posts: posts}
}

// AddComment comments on a post visible to userID
func (s *CommentService) AddComment(ctx context.Context, userID, postID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewFieldError("content", "content is required")
	}
	if _, err := s.posts.GetPost(ctx, userID, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, appError(err, "Post", postID)
	}
	return comment, nil
}

// ListComments returns the comments of a post visible to userID
func (s *CommentService) ListComments(ctx context.Context, userID, postID int64) ([]models.Comment, error) {
	if _, err := s.posts.GetPost(ctx, userID, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListForPost(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// DeleteComment removes a comment written by userID
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID int64) error {
	comment, err := s.store.Comments().GetByID(ctx, commentID)
	if err != nil {
		return appError(err, "Comment", commentID)
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	if err := s.store.Comments().Delete(ctx, commentID); err != nil {
		return appError(err, "Comment", commentID)
	}
	return nil
}
