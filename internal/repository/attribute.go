package repository

import (
	"context"
	"errors"
	"fmt"

	"parkshare/internal/models"

	"github.com/jackc/pgx/v5"
)

type attributeRepository struct {
	db DBTX
}

// assignedQueries select the attributes linked to at least one post or recipe
var assignedQueries = map[models.AttributeKind]string{
	models.AttributeTags:        `id IN (SELECT tag_id FROM post_tags UNION SELECT tag_id FROM recipe_tags)`,
	models.AttributeIngredients: `id IN (SELECT ingredient_id FROM recipe_ingredients)`,
}

func checkKind(kind models.AttributeKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown attribute kind %q", kind)
	}
	return nil
}

// GetOrCreate returns the attribute named name for userID, creating it if needed
func (r *attributeRepository) GetOrCreate(ctx context.Context, kind models.AttributeKind, userID int64, name string) (*models.Attribute, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	attr := models.Attribute{UserID: userID, Name: name}
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, name) VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO NOTHING
		RETURNING id
	`, kind), userID, name).Scan(&attr.ID)
	if err == nil {
		return &attr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError(err, string(kind))
	}

	err = r.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE user_id = $1 AND name = $2`, kind,
	), userID, name).Scan(&attr.ID)
	if err != nil {
		return nil, mapError(err, string(kind))
	}
	return &attr, nil
}

// GetByID retrieves a tag or ingredient
func (r *attributeRepository) GetByID(ctx context.Context, kind models.AttributeKind, id int64) (*models.Attribute, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	var attr models.Attribute
	err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1`, kind), id).
		Scan(&attr.ID, &attr.UserID, &attr.Name)
	if err != nil {
		return nil, mapError(err, string(kind))
	}
	return &attr, nil
}

// List returns a user's attributes ordered by name descending
func (r *attributeRepository) List(ctx context.Context, kind models.AttributeKind, userID int64, assignedOnly bool) ([]models.Attribute, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = $1`, kind)
	if assignedOnly {
		query += ` AND ` + assignedQueries[kind]
	}
	query += ` ORDER BY name DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err, string(kind))
	}
	defer rows.Close()

	attrs := []models.Attribute{}
	for rows.Next() {
		var attr models.Attribute
		if err := rows.Scan(&attr.ID, &attr.UserID, &attr.Name); err != nil {
			return nil, mapError(err, string(kind))
		}
		attrs = append(attrs, attr)
	}
	return attrs, mapError(rows.Err(), string(kind))
}

// Update renames an attribute
func (r *attributeRepository) Update(ctx context.Context, kind models.AttributeKind, attr *models.Attribute) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2`, kind), attr.Name, attr.ID)
	if err != nil {
		return mapError(err, string(kind))
	}
	return rowsAffected(tag, string(kind))
}

// Delete removes an attribute and its links
func (r *attributeRepository) Delete(ctx context.Context, kind models.AttributeKind, id int64) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind), id)
	if err != nil {
		return mapError(err, string(kind))
	}
	return rowsAffected(tag, string(kind))
}
