package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

// AccountHandler handles account and friends-set requests
type AccountHandler struct {
	accountService *services.AccountService
	friendService  *services.FriendService
	resolve        models.URLFunc
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *services.AccountService, friendService *services.FriendService, resolve models.URLFunc) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		friendService:  friendService,
		resolve:        resolve,
	}
}

// ListAccounts handles GET /api/v1/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "user")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	accounts, err := h.accountService.ListAccounts(r.Context(), repository.AccountFilter{UserID: userID})
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	views := make([]models.AccountView, len(accounts))
	for i := range accounts {
		views[i] = accounts[i].ListView(h.resolve)
	}
	respondJSON(w, http.StatusOK, views)
}

// CreateAccount handles POST /api/v1/accounts. Accounts are created with
// their user, so this returns the requester's existing account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.accountService.GetAccountForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account.DetailView(h.resolve))
}

// GetAccount handles GET /api/v1/accounts/{id}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account.DetailView(h.resolve))
}

// UpdateAccount handles PUT and PATCH /api/v1/accounts/{id}
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var patch models.AccountPatch
	if err := decodeAndValidate(r, &patch); err != nil {
		respondAppError(w, r, err)
		return
	}
	if r.Method == http.MethodPut && patch.Name == nil {
		respondAppError(w, r, models.NewFieldError("name", "This field is required."))
		return
	}

	account, err := h.accountService.UpdateAccount(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account.DetailView(h.resolve))
}

// DeleteAccount handles DELETE /api/v1/accounts/{id}
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.accountService.DeleteAccount(ctx, userID, id); err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("account_id", id).Msg("Account deleted")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateFriendsRequest replaces an account's friends set
type UpdateFriendsRequest struct {
	Friends *[]models.FriendSpec `json:"friends" validate:"required"`
}

// UpdateFriends handles POST /api/v1/accounts/{id}/update-friends
func (h *AccountHandler) UpdateFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var req UpdateFriendsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	if _, err := h.friendService.ReplaceFriends(ctx, middleware.GetUserID(ctx), id, req.Friends); err != nil {
		respondAppError(w, r, err)
		return
	}

	account, err := h.accountService.GetAccount(ctx, id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account.DetailView(h.resolve))
}
