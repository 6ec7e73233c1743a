package repository

import (
	"context"
	"fmt"

	"parkshare/internal/models"
)

type imageRepository struct {
	db DBTX
}

type imageColumn struct {
	table, column string
}

var imageColumns = map[models.ImageKind]imageColumn{
	models.ImageAccount: {"accounts", "avatar"},
	models.ImagePark:    {"parks", "image"},
	models.ImagePost:    {"posts", "image"},
	models.ImageRecipe:  {"recipes", "image"},
}

func lookupImageColumn(kind models.ImageKind) (imageColumn, error) {
	col, ok := imageColumns[kind]
	if !ok {
		return imageColumn{}, fmt.Errorf("unknown image kind %q", kind)
	}
	return col, nil
}

// Get returns the owner and current image key of an entity
func (r *imageRepository) Get(ctx context.Context, kind models.ImageKind, id int64) (*models.ImageSlot, error) {
	col, err := lookupImageColumn(kind)
	if err != nil {
		return nil, err
	}
	slot := models.ImageSlot{Kind: kind, ID: id}
	err = r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT user_id, %s FROM %s WHERE id = $1`, col.column, col.table), id,
	).Scan(&slot.OwnerID, &slot.Key)
	if err != nil {
		return nil, mapError(err, string(kind))
	}
	return &slot, nil
}

// Set points an entity's image slot at key
func (r *imageRepository) Set(ctx context.Context, kind models.ImageKind, id int64, key string) error {
	col, err := lookupImageColumn(kind)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, col.table, col.column), key, id)
	if err != nil {
		return mapError(err, string(kind))
	}
	return rowsAffected(tag, string(kind))
}
