package repository

import (
	"context"

	"parkshare/internal/models"
)

type commentRepository struct {
	db DBTX
}

// Create inserts a comment
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, comment.PostID, comment.UserID, comment.Content).Scan(&comment.ID, &comment.CreatedAt)
	return mapError(err, "comment")
}

// GetByID retrieves a comment
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRow(ctx,
		`SELECT id, post_id, user_id, content, created_at FROM comments WHERE id = $1`, id,
	).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err, "comment")
	}
	return &c, nil
}

// ListForPost returns a post's comments, oldest first
func (r *commentRepository) ListForPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at, id
	`, postID)
	if err != nil {
		return nil, mapError(err, "comments")
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, mapError(err, "comments")
		}
		comments = append(comments, c)
	}
	return comments, mapError(rows.Err(), "comments")
}

// Delete removes a comment
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "comment")
	}
	return rowsAffected(tag, "comment")
}
