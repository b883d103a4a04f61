package importer

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// LinkIngredientToStoreLocation records where an ingredient is bought.
// Links are not cached; every call reaches the service. Failures are logged
// and counted in the run report.
func (im *Importer) LinkIngredientToStoreLocation(ctx context.Context, ingredientID, storeLocationID string) {
	im.link(ctx, types.LinkIngredientStoreLocation, ingredientStoreLocationPath(ingredientID, storeLocationID),
		zap.String("ingredient_id", ingredientID),
		zap.String("store_location_id", storeLocationID))
}

// LinkRecipeToIngredient adds an ingredient to a recipe.
func (im *Importer) LinkRecipeToIngredient(ctx context.Context, recipeID, ingredientID string) {
	im.link(ctx, types.LinkRecipeIngredient, recipeIngredientPath(recipeID, ingredientID),
		zap.String("recipe_id", recipeID),
		zap.String("ingredient_id", ingredientID))
}

func (im *Importer) link(ctx context.Context, kind, path string, fields ...zap.Field) {
	fields = append(fields, zap.String("kind", kind))
	if _, err := im.api.Call(ctx, http.MethodPost, path, nil); err != nil {
		im.linkFailures++
		im.metrics.Link(kind, metrics.OutcomeFailure)
		im.logger.Warn("failed to create relationship", append(fields, zap.Error(err))...)
		return
	}
	im.metrics.Link(kind, metrics.OutcomeSuccess)
	im.logger.Info("created relationship", fields...)
}
