package repository

import (
	"context"
	"errors"
	"fmt"

	"parkshare/internal/models"

	"github.com/jackc/pgx/v5"
)

type friendRepository struct {
	db DBTX
}

// GetOrCreate returns the Friend row of userID. The insert and the fallback
// select are separate statements so a row committed by a concurrent caller
// is visible to the select.
func (r *friendRepository) GetOrCreate(ctx context.Context, userID int64) (*models.Friend, error) {
	var f models.Friend
	err := r.db.QueryRow(ctx, `
		INSERT INTO friends (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, user_id, created_at
	`, userID).Scan(&f.ID, &f.UserID, &f.CreatedAt)
	if err == nil {
		return &f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError(err, "friend")
	}

	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM friends WHERE user_id = $1`, userID,
	).Scan(&f.ID, &f.UserID, &f.CreatedAt)
	if err != nil {
		return nil, mapError(err, "friend")
	}
	return &f, nil
}

// GetByID retrieves a Friend row
func (r *friendRepository) GetByID(ctx context.Context, id int64) (*models.Friend, error) {
	var f models.Friend
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM friends WHERE id = $1`, id,
	).Scan(&f.ID, &f.UserID, &f.CreatedAt)
	if err != nil {
		return nil, mapError(err, "friend")
	}
	return &f, nil
}

// Associate adds friendID to the account's friends set
func (r *friendRepository) Associate(ctx context.Context, accountID, friendID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO account_friends (account_id, friend_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, accountID, friendID)
	return mapError(err, "account friend")
}

// Dissociate removes friendID from the account's friends set
func (r *friendRepository) Dissociate(ctx context.Context, accountID, friendID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM account_friends WHERE account_id = $1 AND friend_id = $2`, accountID, friendID)
	if err != nil {
		return mapError(err, "account friend")
	}
	return rowsAffected(tag, "account friend")
}

// Clear empties the account's friends set
func (r *friendRepository) Clear(ctx context.Context, accountID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM account_friends WHERE account_id = $1`, accountID)
	return mapError(err, "account friends")
}

// ListForAccount returns the Friend rows in the account's set
func (r *friendRepository) ListForAccount(ctx context.Context, accountID int64) ([]models.Friend, error) {
	rows, err := r.db.Query(ctx, `
		SELECT f.id, f.user_id, f.created_at
		FROM friends f
		JOIN account_friends af ON af.friend_id = f.id
		WHERE af.account_id = $1
		ORDER BY f.id
	`, accountID)
	if err != nil {
		return nil, mapError(err, "friends")
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.UserID, &f.CreatedAt); err != nil {
			return nil, mapError(err, "friends")
		}
		friends = append(friends, f)
	}
	return friends, mapError(rows.Err(), "friends")
}

type friendRequestRepository struct {
	db DBTX
}

// Create inserts a friend request
func (r *friendRequestRepository) Create(ctx context.Context, req *models.FriendRequest) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO friend_requests (from_user_id, to_user_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, req.FromUserID, req.ToUserID).Scan(&req.ID, &req.CreatedAt)
	return mapError(err, "friend request")
}

// GetByID retrieves a friend request
func (r *friendRequestRepository) GetByID(ctx context.Context, id int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRow(ctx,
		`SELECT id, from_user_id, to_user_id, created_at FROM friend_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.CreatedAt)
	if err != nil {
		return nil, mapError(err, "friend request")
	}
	return &req, nil
}

// Exists checks for a request from one user to another
func (r *friendRequestRepository) Exists(ctx context.Context, fromUserID, toUserID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2)`,
		fromUserID, toUserID,
	).Scan(&exists)
	if err != nil {
		return false, mapError(err, "friend request")
	}
	return exists, nil
}

// LockPair takes a transaction-scoped advisory lock on the (from, to) pair.
// Outside a transaction the lock is released as soon as it is taken.
func (r *friendRequestRepository) LockPair(ctx context.Context, fromUserID, toUserID int64) error {
	_, err := r.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('friend_request:' || $1::bigint::text || ':' || $2::bigint::text, 0))`,
		fromUserID, toUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to lock friend request pair: %w", err)
	}
	return nil
}

// ListForUser returns requests sent or received by a user, newest first
func (r *friendRequestRepository) ListForUser(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, from_user_id, to_user_id, created_at
		FROM friend_requests
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY id DESC
	`, userID)
	if err != nil {
		return nil, mapError(err, "friend requests")
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.CreatedAt); err != nil {
			return nil, mapError(err, "friend requests")
		}
		requests = append(requests, req)
	}
	return requests, mapError(rows.Err(), "friend requests")
}

// Delete removes a friend request
func (r *friendRequestRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "friend request")
	}
	return rowsAffected(tag, "friend request")
}
