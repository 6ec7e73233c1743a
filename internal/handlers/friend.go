package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

// FriendHandler handles friends-set and friend request endpoints
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// ListFriends handles GET /api/v1/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	friends, err := h.friendService.ListFriends(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

// GetFriend handles GET /api/v1/friends/{id}
func (h *FriendHandler) GetFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	friend, err := h.friendService.GetFriend(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, friend)
}

// UpdateFriend handles PUT and PATCH /api/v1/friends/{id}
func (h *FriendHandler) UpdateFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var patch models.FriendPatch
	if err := decodeAndValidate(r, &patch); err != nil {
		respondAppError(w, r, err)
		return
	}
	if r.Method == http.MethodPut && patch.UserID == nil {
		respondAppError(w, r, models.NewFieldError("user", "This field is required."))
		return
	}

	friend, err := h.friendService.UpdateFriend(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, friend)
}

// RemoveFriend handles DELETE /api/v1/friends/{id}
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.friendService.RemoveFriend(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FriendRequestBody represents the body of POST /friend-requests
type FriendRequestBody struct {
	ToUser int64 `json:"to_user" validate:"required"`
}

// ListFriendRequests handles GET /api/v1/friend-requests
func (h *FriendHandler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.friendService.ListFriendRequests(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// SendFriendRequest handles POST /api/v1/friend-requests
func (h *FriendHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var body FriendRequestBody
	if err := decodeAndValidate(r, &body); err != nil {
		respondAppError(w, r, err)
		return
	}

	req, err := h.friendService.SendFriendRequest(ctx, userID, body.ToUser)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Int64("from_user", userID).
		Int64("to_user", body.ToUser).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, req)
}

// AcceptFriendRequest handles POST /api/v1/friend-requests/{id}/accept
func (h *FriendHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	req, err := h.friendService.AcceptFriendRequest(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().
		Int64("from_user", req.FromUserID).
		Int64("to_user", req.ToUserID).
		Msg("Friend request accepted")

	respondJSON(w, http.StatusOK, req)
}

// DeleteFriendRequest handles DELETE /api/v1/friend-requests/{id}
func (h *FriendHandler) DeleteFriendRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.friendService.DeleteFriendRequest(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
