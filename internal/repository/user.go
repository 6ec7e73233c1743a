package repository

import (
	"context"

	"parkshare/internal/models"
)

type userRepository struct {
	db DBTX
}

const userColumns = `id, email, name, password_hash, is_active, is_staff, push_token, created_at`

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.IsActive, &user.IsStaff, &user.PushToken, &user.CreatedAt,
	)
}

// Create inserts a user and fills in its id and creation time
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, is_active, is_staff)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsStaff,
	).Scan(&user.ID, &user.CreatedAt)
	return mapError(err, "user")
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &user)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), &user)
	if err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

// UpdatePushToken updates the push token for a user
func (r *userRepository) UpdatePushToken(ctx context.Context, id int64, pushToken *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, pushToken, id)
	if err != nil {
		return mapError(err, "user")
	}
	return rowsAffected(tag, "user")
}

// Delete removes a user and, through cascades, everything it owns
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "user")
	}
	return rowsAffected(tag, "user")
}
