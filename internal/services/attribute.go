package services

import (
	"context"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
)

// AttributeService manages one kind of per-user name list, tags or
// ingredients. Items are created implicitly by posts and recipes.
type AttributeService struct {
	store    repository.Store
	kind     models.AttributeKind
	resource string
}

// NewAttributeService creates a service for kind
func NewAttributeService(store repository.Store, kind models.AttributeKind) *AttributeService {
	resource := "Tag"
	if kind == models.AttributeIngredients {
		resource = "Ingredient"
	}
	return &AttributeService{store: store, kind: kind, resource: resource}
}

// Kind is the attribute kind this service manages
func (s *AttributeService) Kind() models.AttributeKind {
	return s.kind
}

// List returns the requester's items. assignedOnly keeps those attached to
// at least one post or recipe.
func (s *AttributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]models.Attribute, error) {
	attrs, err := s.store.Attributes().List(ctx, s.kind, userID, assignedOnly)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return attrs, nil
}

func (s *AttributeService) owned(ctx context.Context, userID, id int64) (*models.Attribute, error) {
	attr, err := s.store.Attributes().GetByID(ctx, s.kind, id)
	if err != nil {
		return nil, appError(err, s.resource, id)
	}
	if attr.UserID != userID {
		return nil, models.NewNotFoundError(s.resource, id)
	}
	return attr, nil
}

// Get returns one of the requester's items
func (s *AttributeService) Get(ctx context.Context, userID, id int64) (*models.Attribute, error) {
	return s.owned(ctx, userID, id)
}

// Rename changes the name of one of the requester's items
func (s *AttributeService) Rename(ctx context.Context, userID, id int64, name string) (*models.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewFieldError("name", "name may not be blank")
	}

	attr, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	attr.Name = name
	if err := s.store.Attributes().Update(ctx, s.kind, attr); err != nil {
		return nil, appError(err, s.resource, name)
	}
	return attr, nil
}

// Delete removes one of the requester's items and detaches it everywhere
func (s *AttributeService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Attributes().Delete(ctx, s.kind, id); err != nil {
		return appError(err, s.resource, id)
	}
	return nil
}
