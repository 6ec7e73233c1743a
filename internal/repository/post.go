package repository

import (
	"context"
	"fmt"

	"parkshare/internal/models"
)

type postRepository struct {
	db DBTX
}

const postColumns = `id, user_id, account_id, park_id, title, description, image`

func scanPost(row interface{ Scan(...any) error }, p *models.Post) error {
	return row.Scan(&p.ID, &p.UserID, &p.AccountID, &p.ParkID, &p.Title, &p.Description, &p.Image)
}

// Create inserts a post without tags
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (user_id, account_id, park_id, title, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		post.UserID, post.AccountID, post.ParkID, post.Title, post.Description,
	).Scan(&post.ID)
	return mapError(err, "post")
}

// GetByID retrieves a post with its tags
func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var p models.Post
	if err := scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id), &p); err != nil {
		return nil, mapError(err, "post")
	}
	posts := []models.Post{p}
	if err := r.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// List returns the posts of filter.UserID, newest first
func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1`
	args := []any{filter.UserID}
	if len(filter.TagIDs) > 0 {
		args = append(args, filter.TagIDs)
		query += fmt.Sprintf(` AND id IN (SELECT post_id FROM post_tags WHERE tag_id = ANY($%d))`, len(args))
	}
	if filter.ParkID != nil {
		args = append(args, *filter.ParkID)
		query += fmt.Sprintf(` AND park_id = $%d`, len(args))
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "posts")
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, mapError(err, "posts")
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "posts")
	}

	if err := r.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) loadTags(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Tags = []models.Attribute{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT pt.post_id, t.id, t.user_id, t.name
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.id
	`, ids)
	if err != nil {
		return mapError(err, "post tags")
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var tag models.Attribute
		if err := rows.Scan(&postID, &tag.ID, &tag.UserID, &tag.Name); err != nil {
			return mapError(err, "post tags")
		}
		i := index[postID]
		posts[i].Tags = append(posts[i].Tags, tag)
	}
	return mapError(rows.Err(), "post tags")
}

// Update writes the scalar fields of a post
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE posts SET park_id = $1, title = $2, description = $3 WHERE id = $4`,
		post.ParkID, post.Title, post.Description, post.ID,
	)
	if err != nil {
		return mapError(err, "post")
	}
	return rowsAffected(tag, "post")
}

// Delete removes a post
func (r *postRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "post")
	}
	return rowsAffected(tag, "post")
}

// AddTag links a tag to a post; linking twice is a no-op
func (r *postRepository) AddTag(ctx context.Context, postID, tagID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, tagID)
	return mapError(err, "post tag")
}

// ClearTags unlinks every tag from a post
func (r *postRepository) ClearTags(ctx context.Context, postID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID)
	return mapError(err, "post tags")
}
