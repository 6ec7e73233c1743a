package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

// ParkHandler handles park requests
type ParkHandler struct {
	parkService *services.ParkService
	resolve     models.URLFunc
}

// NewParkHandler creates a new park handler
func NewParkHandler(parkService *services.ParkService, resolve models.URLFunc) *ParkHandler {
	return &ParkHandler{
		parkService: parkService,
		resolve:     resolve,
	}
}

// ListParks handles GET /api/v1/parks
func (h *ParkHandler) ListParks(w http.ResponseWriter, r *http.Request) {
	parks, err := h.parkService.ListParks(r.Context())
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	views := make([]models.ParkView, len(parks))
	for i := range parks {
		views[i] = parks[i].ListView()
	}
	respondJSON(w, http.StatusOK, views)
}

// CreatePark handles POST /api/v1/parks
func (h *ParkHandler) CreatePark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var in models.ParkPatch
	if err := decodeAndValidate(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	park, err := h.parkService.CreatePark(ctx, userID, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("park_id", park.ID).Msg("Park created")
	respondJSON(w, http.StatusCreated, park.DetailView(h.resolve))
}

// GetPark handles GET /api/v1/parks/{id}
func (h *ParkHandler) GetPark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	park, err := h.parkService.GetPark(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, park.DetailView(h.resolve))
}

// UpdatePark handles PUT and PATCH /api/v1/parks/{id}
func (h *ParkHandler) UpdatePark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var patch models.ParkPatch
	if err := decodeAndValidate(r, &patch); err != nil {
		respondAppError(w, r, err)
		return
	}
	if r.Method == http.MethodPut && patch.Name == nil {
		respondAppError(w, r, models.NewFieldError("name", "This field is required."))
		return
	}

	park, err := h.parkService.UpdatePark(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, park.DetailView(h.resolve))
}

// DeletePark handles DELETE /api/v1/parks/{id}
func (h *ParkHandler) DeletePark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.parkService.DeletePark(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
