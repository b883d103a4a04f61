package importer

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// EnsureStoreLocation returns the id of the store location for category,
// creating it on first use. Blank categories share the "General Store"
// location.
func (im *Importer) EnsureStoreLocation(ctx context.Context, category string) (string, error) {
	category = types.NormalizeCategory(category)
	if id, seen, err := im.storeLocations.lookup(category); seen {
		if err != nil {
			im.logger.Warn("store location marked as processed but id not found", zap.String("category", category))
			return "", fmt.Errorf("store location %q: %w", category, err)
		}
		im.metrics.CacheHit(types.KindStoreLocation)
		return id, nil
	}

	name := types.StoreLocationName(category)
	im.logger.Info("creating store location", zap.String("name", name), zap.String("category", category))
	resp, err := im.api.Call(ctx, http.MethodPost, storeLocationsPath, types.StoreLocationRequest{
		Name:        name,
		Description: types.StoreLocationDescription(category),
	})
	id, err := createdID(resp, err)
	if err != nil {
		im.logger.Error("failed to create store location", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("store location %q: %w", name, err)
	}

	im.storeLocations.record(category, id)
	im.metrics.Created(types.KindStoreLocation)
	im.logger.Info("created store location", zap.String("name", name), zap.String("id", id))
	return id, nil
}

// EnsureIngredient returns the id of the ingredient named name, creating it
// and its store location on first use. A new ingredient is linked to its
// store location; a failed link is logged and does not fail the ingredient.
func (im *Importer) EnsureIngredient(ctx context.Context, name, category string) (string, error) {
	if id, seen, err := im.ingredients.lookup(name); seen {
		if err != nil {
			im.logger.Warn("ingredient marked as processed but id not found", zap.String("ingredient", name))
			return "", fmt.Errorf("ingredient %q: %w", name, err)
		}
		im.metrics.CacheHit(types.KindIngredient)
		return id, nil
	}

	locationID, err := im.EnsureStoreLocation(ctx, category)
	if err != nil {
		im.logger.Error("cannot create ingredient, store location creation failed",
			zap.String("ingredient", name),
			zap.String("category", category))
		return "", fmt.Errorf("ingredient %q: %w: %w", name, types.ErrStoreLocationUnresolved, err)
	}

	im.logger.Info("creating ingredient", zap.String("ingredient", name))
	resp, err := im.api.Call(ctx, http.MethodPost, ingredientsPath, types.IngredientRequest{
		Name:              name,
		PurchaseFrequency: types.PurchaseFrequencyUsually,
	})
	id, err := createdID(resp, err)
	if err != nil {
		im.logger.Error("failed to create ingredient", zap.String("ingredient", name), zap.Error(err))
		return "", fmt.Errorf("ingredient %q: %w", name, err)
	}

	im.ingredients.record(name, id)
	im.metrics.Created(types.KindIngredient)
	im.logger.Info("created ingredient", zap.String("ingredient", name), zap.String("id", id))

	im.LinkIngredientToStoreLocation(ctx, id, locationID)
	return id, nil
}

// EnsureRecipe returns the id of the recipe named name. On first use it
// creates the recipe and then resolves and links every item in order. Item
// and link failures are logged and skipped; the recipe still counts as
// created. A cached recipe returns at once without touching its items.
func (im *Importer) EnsureRecipe(ctx context.Context, name string, items []types.SourceItem) (string, error) {
	if id, seen, err := im.recipes.lookup(name); seen {
		if err != nil {
			im.logger.Warn("recipe marked as processed but id not found", zap.String("recipe", name))
			return "", fmt.Errorf("recipe %q: %w", name, err)
		}
		im.metrics.CacheHit(types.KindRecipe)
		im.logger.Info("recipe already exists", zap.String("recipe", name), zap.String("id", id))
		return id, nil
	}

	im.logger.Info("creating recipe", zap.String("recipe", name))
	resp, err := im.api.Call(ctx, http.MethodPost, recipesPath, types.RecipeRequest{
		Name:        name,
		Description: types.RecipeDescription(name),
	})
	id, err := createdID(resp, err)
	if err != nil {
		im.logger.Error("failed to create recipe", zap.String("recipe", name), zap.Error(err))
		return "", fmt.Errorf("recipe %q: %w", name, err)
	}

	im.recipes.record(name, id)
	im.metrics.Created(types.KindRecipe)
	im.logger.Info("created recipe", zap.String("recipe", name), zap.String("id", id))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		ingredientID, err := im.EnsureIngredient(ctx, item.Name, item.Category)
		if err != nil {
			im.logger.Warn("skipping ingredient of recipe",
				zap.String("recipe", name),
				zap.String("ingredient", item.Name),
				zap.Error(err))
			continue
		}
		im.LinkRecipeToIngredient(ctx, id, ingredientID)
	}
	return id, nil
}
