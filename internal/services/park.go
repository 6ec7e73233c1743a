package services

import (
	"context"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/storage"
)

// ParkService handles park locations
type ParkService struct {
	store  repository.Store
	images storage.ImageStore
}

// NewParkService creates a new park service. images may be nil.
func NewParkService(store repository.Store, images storage.ImageStore) *ParkService {
	return &ParkService{store: store, images: images}
}

// CreatePark creates a park owned by userID
func (s *ParkService) CreatePark(ctx context.Context, userID int64, in models.ParkPatch) (*models.Park, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, models.NewFieldError("name", "name is required")
	}

	park := &models.Park{UserID: userID, Country: models.DefaultCountry}
	in.Apply(park)
	if park.Country == "" {
		park.Country = models.DefaultCountry
	}

	if err := s.store.Parks().Create(ctx, park); err != nil {
		return nil, appError(err, "Park", park.Name)
	}
	return park, nil
}

// ListParks returns every park
func (s *ParkService) ListParks(ctx context.Context) ([]models.Park, error) {
	parks, err := s.store.Parks().List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return parks, nil
}

// GetPark returns one park
func (s *ParkService) GetPark(ctx context.Context, id int64) (*models.Park, error) {
	park, err := s.store.Parks().GetByID(ctx, id)
	if err != nil {
		return nil, appError(err, "Park", id)
	}
	return park, nil
}

func (s *ParkService) ownedPark(ctx context.Context, requesterID, id int64) (*models.Park, error) {
	park, err := s.GetPark(ctx, id)
	if err != nil {
		return nil, err
	}
	if park.UserID != requesterID {
		return nil, models.NewForbiddenError("You do not have permission to modify this park")
	}
	return park, nil
}

// UpdatePark applies patch to a park the requester owns
func (s *ParkService) UpdatePark(ctx context.Context, requesterID, id int64, patch models.ParkPatch) (*models.Park, error) {
	park, err := s.ownedPark(ctx, requesterID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(park)
	if strings.TrimSpace(park.Name) == "" {
		return nil, models.NewFieldError("name", "name may not be blank")
	}
	if err := s.store.Parks().Update(ctx, park); err != nil {
		return nil, appError(err, "Park", id)
	}
	return park, nil
}

// DeletePark removes a park the requester owns. Posts at the park keep
// existing without one.
func (s *ParkService) DeletePark(ctx context.Context, requesterID, id int64) error {
	park, err := s.ownedPark(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if err := s.store.Parks().Delete(ctx, id); err != nil {
		return appError(err, "Park", id)
	}
	removeImages(ctx, s.images, park.Image)
	return nil
}
