package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

// multipartOverhead leaves room for boundaries and headers around the file
const multipartOverhead = 1 << 20

// UploadHandler serves the upload-image action of every entity kind
type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
	}
}

// UploadImage returns the handler for POST /api/v1/{kind}s/{id}/upload-image.
// The file is read from the multipart field "image".
func (h *UploadHandler) UploadImage(kind models.ImageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.GetUserID(ctx)

		id, err := pathID(r, "id")
		if err != nil {
			respondAppError(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
		file, header, err := r.FormFile("image")
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.As(err, &maxErr):
				err = models.NewFieldError("image", fmt.Sprintf("File too large (max %dMB)", h.maxBytes/(1024*1024)))
			default:
				err = models.NewFieldError("image", "No file was submitted.")
			}
			respondAppError(w, r, err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondAppError(w, r, models.NewFieldError("image", "The submitted file could not be read."))
			return
		}

		view, err := h.uploadService.UploadImage(ctx, userID, kind, id, header.Filename, data)
		if err != nil {
			log.Debug().
				Err(err).
				Int64("user_id", userID).
				Str("kind", string(kind)).
				Int64("id", id).
				Msg("Image upload rejected")
			respondAppError(w, r, err)
			return
		}

		respondJSON(w, http.StatusOK, view)
	}
}
