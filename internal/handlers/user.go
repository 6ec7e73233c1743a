package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserResponse is returned after registration
type CreateUserResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateUserInput
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	user, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	token, err := h.userService.GenerateJWT(user.ID)
	if err != nil {
		respondAppError(w, r, models.NewInternalError(err))
		return
	}

	log.Info().
		Int64("user_id", user.ID).
		Str("email", user.Email).
		Msg("User created")

	respondJSON(w, http.StatusCreated, CreateUserResponse{User: user, Token: token})
}

// TokenRequest represents the credentials exchanged for a token
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateToken handles POST /api/v1/token
func (h *UserHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	token, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.userService.GetUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PushTokenRequest carries an APNs device token; null or blank clears it
type PushTokenRequest struct {
	PushToken *string `json:"push_token" validate:"omitempty,max=255"`
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().Int64("user_id", userID).Bool("cleared", req.PushToken == nil).Msg("Push token updated")
	w.WriteHeader(http.StatusNoContent)
}
