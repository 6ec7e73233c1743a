package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"parkshare/internal/models"
	"parkshare/internal/repository"
	"parkshare/internal/storage"
)

// maxPrice is the largest value a NUMERIC(5,2) column holds
const maxPrice = 999.99

// RecipeService handles recipes with their tags and ingredients. Recipes are
// visible to their owner only.
type RecipeService struct {
	store  repository.Store
	images storage.ImageStore
}

// NewRecipeService creates a new recipe service. images may be nil.
func NewRecipeService(store repository.Store, images storage.ImageStore) *RecipeService {
	return &RecipeService{store: store, images: images}
}

func normalizePrice(price string) (string, error) {
	price = strings.TrimSpace(price)
	if price == "" {
		return "0.00", nil
	}
	v, err := strconv.ParseFloat(price, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > maxPrice {
		return "", models.NewFieldError("price", "Enter a valid price between 0 and 999.99.")
	}
	return strconv.FormatFloat(v, 'f', 2, 64), nil
}

// reconcileRecipeAttributes resets one attribute kind of a recipe to specs.
// A nil specs is a no-op.
func reconcileRecipeAttributes(ctx context.Context, st repository.Store, kind models.AttributeKind, userID, recipeID int64, specs *[]models.TagSpec) error {
	if specs == nil {
		return nil
	}
	if err := st.Recipes().ClearAttributes(ctx, kind, recipeID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", kind, err)
	}
	attrs, err := resolveAttributes(ctx, st, kind, userID, *specs)
	if err != nil {
		return err
	}
	for _, attr := range attrs {
		if err := st.Recipes().AddAttribute(ctx, kind, recipeID, attr.ID); err != nil {
			return fmt.Errorf("failed to add %s: %w", kind, err)
		}
	}
	return nil
}

func (s *RecipeService) save(ctx context.Context, tx repository.Store, recipe *models.Recipe, patch models.RecipePatch, create bool) error {
	if strings.TrimSpace(recipe.Title) == "" {
		return models.NewFieldError("title", "title is required")
	}
	if recipe.TimeMinutes < 0 {
		return models.NewFieldError("time_minutes", "Ensure this value is greater than or equal to 0.")
	}
	price, err := normalizePrice(recipe.Price)
	if err != nil {
		return err
	}
	recipe.Price = price

	if create {
		err = tx.Recipes().Create(ctx, recipe)
	} else {
		err = tx.Recipes().Update(ctx, recipe)
	}
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}

	if err := reconcileRecipeAttributes(ctx, tx, models.AttributeTags, recipe.UserID, recipe.ID, patch.Tags); err != nil {
		return err
	}
	return reconcileRecipeAttributes(ctx, tx, models.AttributeIngredients, recipe.UserID, recipe.ID, patch.Ingredients)
}

// CreateRecipe creates a recipe for userID
func (s *RecipeService) CreateRecipe(ctx context.Context, userID int64, in models.RecipePatch) (*models.Recipe, error) {
	recipe := &models.Recipe{UserID: userID}
	in.Apply(recipe)

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		return s.save(ctx, tx, recipe, in, true)
	})
	if err != nil {
		return nil, appError(err, "Recipe", recipe.Title)
	}
	return s.GetRecipe(ctx, userID, recipe.ID)
}

// ListRecipes returns the recipes matching filter
func (s *RecipeService) ListRecipes(ctx context.Context, filter repository.RecipeFilter) ([]models.Recipe, error) {
	recipes, err := s.store.Recipes().List(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

// GetRecipe returns a recipe owned by requesterID
func (s *RecipeService) GetRecipe(ctx context.Context, requesterID, id int64) (*models.Recipe, error) {
	recipe, err := s.store.Recipes().GetByID(ctx, id)
	if err != nil {
		return nil, appError(err, "Recipe", id)
	}
	if recipe.UserID != requesterID {
		return nil, models.NewNotFoundError("Recipe", id)
	}
	return recipe, nil
}

// UpdateRecipe applies patch to a recipe owned by requesterID
func (s *RecipeService) UpdateRecipe(ctx context.Context, requesterID, id int64, patch models.RecipePatch) (*models.Recipe, error) {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		recipe, err := tx.Recipes().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if recipe.UserID != requesterID {
			return models.NewNotFoundError("Recipe", id)
		}
		patch.Apply(recipe)
		return s.save(ctx, tx, recipe, patch, false)
	})
	if err != nil {
		return nil, appError(err, "Recipe", id)
	}
	return s.GetRecipe(ctx, requesterID, id)
}

// DeleteRecipe removes a recipe owned by requesterID
func (s *RecipeService) DeleteRecipe(ctx context.Context, requesterID, id int64) error {
	recipe, err := s.GetRecipe(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if err := s.store.Recipes().Delete(ctx, id); err != nil {
		return appError(err, "Recipe", id)
	}
	removeImages(ctx, s.images, recipe.Image)
	return nil
}
