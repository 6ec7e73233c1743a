package repository

import (
	"context"

	"parkshare/internal/models"
)

type parkRepository struct {
	db DBTX
}

const parkColumns = `id, user_id, name, street_number, street_name, street_suffix, city, state,
	postal_code, country, description, image`

func scanPark(row interface{ Scan(...any) error }, p *models.Park) error {
	return row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.StreetNumber, &p.StreetName, &p.StreetSuffix,
		&p.City, &p.State, &p.PostalCode, &p.Country, &p.Description, &p.Image,
	)
}

// Create inserts a park
func (r *parkRepository) Create(ctx context.Context, park *models.Park) error {
	query := `
		INSERT INTO parks (user_id, name, street_number, street_name, street_suffix, city, state,
			postal_code, country, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		park.UserID, park.Name, park.StreetNumber, park.StreetName, park.StreetSuffix,
		park.City, park.State, park.PostalCode, park.Country, park.Description,
	).Scan(&park.ID)
	return mapError(err, "park")
}

// GetByID retrieves a park
func (r *parkRepository) GetByID(ctx context.Context, id int64) (*models.Park, error) {
	var p models.Park
	if err := scanPark(r.db.QueryRow(ctx, `SELECT `+parkColumns+` FROM parks WHERE id = $1`, id), &p); err != nil {
		return nil, mapError(err, "park")
	}
	return &p, nil
}

// List returns every park, newest first
func (r *parkRepository) List(ctx context.Context) ([]models.Park, error) {
	rows, err := r.db.Query(ctx, `SELECT `+parkColumns+` FROM parks ORDER BY id DESC`)
	if err != nil {
		return nil, mapError(err, "parks")
	}
	defer rows.Close()

	parks := []models.Park{}
	for rows.Next() {
		var p models.Park
		if err := scanPark(rows, &p); err != nil {
			return nil, mapError(err, "parks")
		}
		parks = append(parks, p)
	}
	return parks, mapError(rows.Err(), "parks")
}

// Update writes every editable park field
func (r *parkRepository) Update(ctx context.Context, park *models.Park) error {
	query := `
		UPDATE parks SET name = $1, street_number = $2, street_name = $3, street_suffix = $4,
			city = $5, state = $6, postal_code = $7, country = $8, description = $9
		WHERE id = $10
	`
	tag, err := r.db.Exec(ctx, query,
		park.Name, park.StreetNumber, park.StreetName, park.StreetSuffix, park.City,
		park.State, park.PostalCode, park.Country, park.Description, park.ID,
	)
	if err != nil {
		return mapError(err, "park")
	}
	return rowsAffected(tag, "park")
}

// Delete removes a park; posts pointing at it keep existing with park_id NULL
func (r *parkRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parks WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "park")
	}
	return rowsAffected(tag, "park")
}
