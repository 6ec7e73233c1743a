package services

import (
	"errors"

	"parkshare/internal/models"
	"parkshare/internal/repository"
)

// appError converts a repository error into an AppError. AppErrors raised
// inside a transaction pass through unchanged.
func appError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError(resource, id)
	case errors.Is(err, repository.ErrDuplicate):
		return models.NewConflictError(resource + " already exists")
	}
	return models.NewInternalError(err)
}
