package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/storage"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

// DecodedImage describes a payload that passed validation
type DecodedImage struct {
	Format      string
	ContentType string
	Width       int
	Height      int
}

var allowedImageMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DecodeImage checks that data is a JPEG, PNG, GIF or WebP image. Failures
// are validation errors on the image field.
func DecodeImage(data []byte) (*DecodedImage, error) {
	if len(data) == 0 {
		return nil, models.NewFieldError("image", "No file was submitted.")
	}

	detected := http.DetectContentType(data)
	if !allowedImageMIME[detected] {
		return nil, models.NewFieldError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, models.NewFieldError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	return &DecodedImage{
		Format:      format,
		ContentType: storage.ContentTypeFor(format),
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// UploadService attaches uploaded images to accounts, parks, posts and recipes
type UploadService struct {
	store    repository.Store
	images   storage.ImageStore
	maxBytes int64
}

// NewUploadService creates a new upload service. A non-positive maxBytes
// uses the 10MB default.
func NewUploadService(store repository.Store, images storage.ImageStore, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &UploadService{store: store, images: images, maxBytes: maxBytes}
}

func resourceName(kind models.ImageKind) string {
	return strings.ToUpper(string(kind[:1])) + string(kind[1:])
}

// UploadImage validates data, stores it under a fresh key and points the
// entity's image slot at it. The previous object is removed afterwards; an
// invalid payload leaves the slot untouched.
func (s *UploadService) UploadImage(ctx context.Context, requesterID int64, kind models.ImageKind, id int64, filename string, data []byte) (*models.ImageView, error) {
	resource := resourceName(kind)

	slot, err := s.store.Images().Get(ctx, kind, id)
	if err != nil {
		return nil, appError(err, resource, id)
	}
	if slot.OwnerID != requesterID {
		if kind.OwnerScoped() {
			return nil, models.NewNotFoundError(resource, id)
		}
		return nil, models.NewForbiddenError(fmt.Sprintf("You do not have permission to modify this %s", kind))
	}

	if int64(len(data)) > s.maxBytes {
		return nil, models.NewFieldError("image",
			fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	decoded, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	key := storage.NewKey(kind, filename, decoded.Format)
	if err := s.images.Put(ctx, key, decoded.ContentType, data); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to store image: %w", err))
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		return tx.Images().Set(ctx, kind, id, key)
	})
	if err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			log.Error().Err(delErr).Str("key", key).Msg("Failed to remove orphaned image")
		}
		return nil, appError(err, resource, id)
	}

	if slot.Key != nil && *slot.Key != key {
		removeImages(ctx, s.images, slot.Key)
	}

	log.Info().
		Str("kind", string(kind)).
		Int64("id", id).
		Str("key", key).
		Msg("Image uploaded")

	slot.Key = &key
	view := slot.View(s.images.URL)
	return &view, nil
}

// removeImages deletes stored objects whose rows no longer point at them.
// Failures are logged and never returned.
func removeImages(ctx context.Context, images storage.ImageStore, keys ...*string) {
	if images == nil {
		return
	}
	for _, key := range keys {
		if key == nil || *key == "" {
			continue
		}
		if err := images.Delete(ctx, *key); err != nil {
			log.Warn().Err(err).Str("key", *key).Msg("Failed to remove image")
		}
	}
}
