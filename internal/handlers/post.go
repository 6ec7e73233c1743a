package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/services"

	"github.com/rs/zerolog/log"
)

const maxJSONBody = 1 << 20

// PostHandler handles post and comment requests
type PostHandler struct {
	postService    *services.PostService
	commentService *services.CommentService
	resolve        models.URLFunc
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService, commentService *services.CommentService, resolve models.URLFunc) *PostHandler {
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
		resolve:        resolve,
	}
}

// decodePostPatch decodes a post body. An explicit "park": null clears the
// post's park, which a plain *int64 cannot tell apart from an omitted key.
func decodePostPatch(r *http.Request) (models.PostPatch, error) {
	var patch models.PostPatch

	data, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return patch, models.NewValidationError("Invalid request body")
	}
	if len(data) == 0 {
		return patch, models.NewValidationError("Request body is empty")
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return patch, models.NewValidationError("Invalid request body")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		if park, ok := raw["park"]; ok && string(park) == "null" {
			patch.ClearPark = true
		}
	}

	return patch, validateStruct(&patch)
}

// ListPosts handles GET /api/v1/posts?tags=1,2&park=3
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tagIDs, err := queryIDs(r, "tags")
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	parkID, err := queryID(r, "park")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	posts, err := h.postService.ListPosts(ctx, repository.PostFilter{
		UserID: middleware.GetUserID(ctx),
		TagIDs: tagIDs,
		ParkID: parkID,
	})
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	views := make([]models.PostView, len(posts))
	for i := range posts {
		views[i] = posts[i].ListView()
	}
	respondJSON(w, http.StatusOK, views)
}

// CreatePost handles POST /api/v1/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	in, err := decodePostPatch(r)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	post, err := h.postService.CreatePost(ctx, userID, in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("post_id", post.ID).Msg("Post created")
	respondJSON(w, http.StatusCreated, post.DetailView(h.resolve))
}

// GetPost handles GET /api/v1/posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	post, err := h.postService.GetPost(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post.DetailView(h.resolve))
}

// UpdatePost handles PUT and PATCH /api/v1/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	patch, err := decodePostPatch(r)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	if r.Method == http.MethodPut && patch.Title == nil {
		respondAppError(w, r, models.NewFieldError("title", "This field is required."))
		return
	}

	post, err := h.postService.UpdatePost(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post.DetailView(h.resolve))
}

// DeletePost handles DELETE /api/v1/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.postService.DeletePost(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommentRequest represents the body of POST /posts/{id}/comments
type CommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ListComments handles GET /api/v1/posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	comments, err := h.commentService.ListComments(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// AddComment handles POST /api/v1/posts/{id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var req CommentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondAppError(w, r, err)
		return
	}

	comment, err := h.commentService.AddComment(ctx, middleware.GetUserID(ctx), id, req.Content)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.commentService.DeleteComment(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
