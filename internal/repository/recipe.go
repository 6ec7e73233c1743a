package repository

import (
	"context"
	"fmt"

	"parkshare/internal/models"
)

type recipeRepository struct {
	db DBTX
}

const recipeColumns = `id, user_id, title, description, time_minutes, price::text, link, image`

// recipeLinks maps an attribute kind to its link table and column
var recipeLinks = map[models.AttributeKind]struct{ table, column string }{
	models.AttributeTags:        {"recipe_tags", "tag_id"},
	models.AttributeIngredients: {"recipe_ingredients", "ingredient_id"},
}

func scanRecipe(row interface{ Scan(...any) error }, r *models.Recipe) error {
	return row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.TimeMinutes, &r.Price, &r.Link, &r.Image)
}

// Create inserts a recipe without tags or ingredients
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	query := `
		INSERT INTO recipes (user_id, title, description, time_minutes, price, link)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id, price::text
	`
	err := r.db.QueryRow(ctx, query,
		recipe.UserID, recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link,
	).Scan(&recipe.ID, &recipe.Price)
	return mapError(err, "recipe")
}

// GetByID retrieves a recipe with its tags and ingredients
func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	var rec models.Recipe
	if err := scanRecipe(r.db.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id), &rec); err != nil {
		return nil, mapError(err, "recipe")
	}
	recipes := []models.Recipe{rec}
	if err := r.loadAttributes(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// List returns the recipes of filter.UserID, newest first
func (r *recipeRepository) List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = $1`
	args := []any{filter.UserID}
	if len(filter.TagIDs) > 0 {
		args = append(args, filter.TagIDs)
		query += fmt.Sprintf(` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id = ANY($%d))`, len(args))
	}
	if len(filter.IngredientIDs) > 0 {
		args = append(args, filter.IngredientIDs)
		query += fmt.Sprintf(` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id = ANY($%d))`, len(args))
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "recipes")
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		var rec models.Recipe
		if err := scanRecipe(rows, &rec); err != nil {
			return nil, mapError(err, "recipes")
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "recipes")
	}

	if err := r.loadAttributes(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) loadAttributes(ctx context.Context, recipes []models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		index[recipes[i].ID] = i
		recipes[i].Tags = []models.Attribute{}
		recipes[i].Ingredients = []models.Attribute{}
	}

	for kind, link := range recipeLinks {
		rows, err := r.db.Query(ctx, fmt.Sprintf(`
			SELECT l.recipe_id, a.id, a.user_id, a.name
			FROM %s l
			JOIN %s a ON a.id = l.%s
			WHERE l.recipe_id = ANY($1)
			ORDER BY a.id
		`, link.table, kind, link.column), ids)
		if err != nil {
			return mapError(err, link.table)
		}

		for rows.Next() {
			var recipeID int64
			var attr models.Attribute
			if err := rows.Scan(&recipeID, &attr.ID, &attr.UserID, &attr.Name); err != nil {
				rows.Close()
				return mapError(err, link.table)
			}
			rec := &recipes[index[recipeID]]
			if kind == models.AttributeTags {
				rec.Tags = append(rec.Tags, attr)
			} else {
				rec.Ingredients = append(rec.Ingredients, attr)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return mapError(err, link.table)
		}
	}
	return nil
}

// Update writes the scalar fields of a recipe
func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	query := `
		UPDATE recipes SET title = $1, description = $2, time_minutes = $3, price = $4::numeric, link = $5
		WHERE id = $6
		RETURNING price::text
	`
	err := r.db.QueryRow(ctx, query,
		recipe.Title, recipe.Description, recipe.TimeMinutes, recipe.Price, recipe.Link, recipe.ID,
	).Scan(&recipe.Price)
	return mapError(err, "recipe")
}

// Delete removes a recipe
func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "recipe")
	}
	return rowsAffected(tag, "recipe")
}

// AddAttribute links a tag or ingredient to a recipe
func (r *recipeRepository) AddAttribute(ctx context.Context, kind models.AttributeKind, recipeID, attrID int64) error {
	link, ok := recipeLinks[kind]
	if !ok {
		return fmt.Errorf("unknown attribute kind %q", kind)
	}
	_, err := r.db.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (recipe_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, link.table, link.column,
	), recipeID, attrID)
	return mapError(err, link.table)
}

// ClearAttributes unlinks every tag or ingredient from a recipe
func (r *recipeRepository) ClearAttributes(ctx context.Context, kind models.AttributeKind, recipeID int64) error {
	link, ok := recipeLinks[kind]
	if !ok {
		return fmt.Errorf("unknown attribute kind %q", kind)
	}
	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, link.table), recipeID)
	return mapError(err, link.table)
}
