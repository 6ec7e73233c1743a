package repository

import (
	"context"

	"parkshare/internal/models"
)

type accountRepository struct {
	db DBTX
}

const accountColumns = `id, user_id, name, pronouns, bio, avatar`

func scanAccount(row interface{ Scan(...any) error }, a *models.Account) error {
	return row.Scan(&a.ID, &a.UserID, &a.Name, &a.Pronouns, &a.Bio, &a.Avatar)
}

// Create inserts an account
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, name, pronouns, bio, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		account.UserID, account.Name, account.Pronouns, account.Bio, account.Avatar,
	).Scan(&account.ID)
	return mapError(err, "account")
}

// GetByID retrieves an account without its friends
func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var a models.Account
	err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id), &a)
	if err != nil {
		return nil, mapError(err, "account")
	}
	return &a, nil
}

// GetByUserID retrieves the account owned by a user
func (r *accountRepository) GetByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	var a models.Account
	err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID), &a)
	if err != nil {
		return nil, mapError(err, "account")
	}
	return &a, nil
}

// List returns accounts, newest first
func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if filter.UserID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *filter.UserID)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "accounts")
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, mapError(err, "accounts")
		}
		accounts = append(accounts, a)
	}
	return accounts, mapError(rows.Err(), "accounts")
}

// Update writes the profile fields of an account
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET name = $1, pronouns = $2, bio = $3 WHERE id = $4`,
		account.Name, account.Pronouns, account.Bio, account.ID,
	)
	if err != nil {
		return mapError(err, "account")
	}
	return rowsAffected(tag, "account")
}
