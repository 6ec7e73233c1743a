package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/services"
)

// AttributeHandler serves the tag and ingredient endpoints. One handler is
// mounted per kind.
type AttributeHandler struct {
	attributeService *services.AttributeService
}

// NewAttributeHandler creates a handler for the service's attribute kind
func NewAttributeHandler(attributeService *services.AttributeService) *AttributeHandler {
	return &AttributeHandler{
		attributeService: attributeService,
	}
}

// RenameRequest represents the body of an attribute update
type RenameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// List handles GET /api/v1/{tags|ingredients}?assigned_only=1
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attrs, err := h.attributeService.List(ctx, middleware.GetUserID(ctx), queryFlag(r, "assigned_only"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, attrs)
}

// Get handles GET /api/v1/{tags|ingredients}/{id}
func (h *AttributeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	attr, err := h.attributeService.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, attr)
}

// Rename handles PUT and PATCH /api/v1/{tags|ingredients}/{id}
func (h *AttributeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var req RenameRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	attr, err := h.attributeService.Rename(ctx, middleware.GetUserID(ctx), id, req.Name)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, attr)
}

// Delete handles DELETE /api/v1/{tags|ingredients}/{id}
func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.attributeService.Delete(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
