package handlers

import (
	"net/http"

	"parkshare/internal/middleware"
	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/services"
)

// RecipeHandler handles recipe requests
type RecipeHandler struct {
	recipeService *services.RecipeService
	resolve       models.URLFunc
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(recipeService *services.RecipeService, resolve models.URLFunc) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		resolve:       resolve,
	}
}

// ListRecipes handles GET /api/v1/recipes?tags=1,2&ingredients=3
func (h *RecipeHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tagIDs, err := queryIDs(r, "tags")
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	ingredientIDs, err := queryIDs(r, "ingredients")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	recipes, err := h.recipeService.ListRecipes(ctx, repository.RecipeFilter{
		UserID:        middleware.GetUserID(ctx),
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	views := make([]models.RecipeView, len(recipes))
	for i := range recipes {
		views[i] = recipes[i].ListView()
	}
	respondJSON(w, http.StatusOK, views)
}

// CreateRecipe handles POST /api/v1/recipes
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in models.RecipePatch
	if err := decodeAndValidate(r, &in); err != nil {
		respondAppError(w, r, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(ctx, middleware.GetUserID(ctx), in)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recipe.DetailView(h.resolve))
}

// GetRecipe handles GET /api/v1/recipes/{id}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	recipe, err := h.recipeService.GetRecipe(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe.DetailView(h.resolve))
}

// UpdateRecipe handles PUT and PATCH /api/v1/recipes/{id}
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	var patch models.RecipePatch
	if err := decodeAndValidate(r, &patch); err != nil {
		respondAppError(w, r, err)
		return
	}
	if r.Method == http.MethodPut && patch.Title == nil {
		respondAppError(w, r, models.NewFieldError("title", "This field is required."))
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(ctx, middleware.GetUserID(ctx), id, patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe.DetailView(h.resolve))
}

// DeleteRecipe handles DELETE /api/v1/recipes/{id}
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondAppError(w, r, err)
		return
	}

	if err := h.recipeService.DeleteRecipe(ctx, middleware.GetUserID(ctx), id); err != nil {
		respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
