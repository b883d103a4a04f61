package importer

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/internal/source"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Report summarizes one import run.
type Report struct {
	Total          int      // recipes in the export
	Succeeded      int      // recipes that resolved to an id
	Failed         []string // names of recipes that did not
	StoreLocations int      // store locations created
	Ingredients    int      // ingredients created
	Recipes        int      // distinct recipes created
	LinkFailures   int      // link calls that failed
}

// Success reports whether every recipe in the export was imported.
func (r *Report) Success() bool {
	return r != nil && r.Succeeded == r.Total
}

// Run loads the export at path and imports it. A file that cannot be read or
// decoded fails the run before any request is sent.
func (im *Importer) Run(ctx context.Context, path string) (*Report, error) {
	export, err := source.Load(path)
	if err != nil {
		im.logger.Error("error reading source file", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return im.Import(ctx, export.Recipes)
}

// Import processes recipes in order, pausing after each one. It stops early
// only when ctx is cancelled, returning the partial report and ctx.Err().
func (im *Importer) Import(ctx context.Context, recipes []types.SourceRecipe) (*Report, error) {
	report := &Report{Total: len(recipes)}
	im.logger.Info("starting import", zap.Int("recipes", report.Total))

	var runErr error
	for i, recipe := range recipes {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		log := im.logger.With(zap.String("recipe", recipe.Name))
		log.Info("processing recipe",
			zap.Int("index", i+1),
			zap.Int("total", report.Total),
			zap.Int("items", len(recipe.Items)))

		if _, err := im.EnsureRecipe(ctx, recipe.Name, recipe.Items); err != nil {
			report.Failed = append(report.Failed, recipe.Name)
			im.metrics.Recipe(metrics.OutcomeFailure)
			log.Warn("recipe failed",
				zap.Int("succeeded", report.Succeeded),
				zap.Int("total", report.Total),
				zap.Error(err))
		} else {
			report.Succeeded++
			im.metrics.Recipe(metrics.OutcomeSuccess)
			log.Info("recipe imported",
				zap.Int("succeeded", report.Succeeded),
				zap.Int("total", report.Total))
		}

		if err := im.sleep(ctx, im.throttle); err != nil {
			runErr = err
			break
		}
	}

	report.StoreLocations = im.storeLocations.len()
	report.Ingredients = im.ingredients.len()
	report.Recipes = im.recipes.len()
	report.LinkFailures = im.linkFailures

	im.logger.Info("import completed",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("total", report.Total),
		zap.Int("store_locations", report.StoreLocations),
		zap.Int("ingredients", report.Ingredients),
		zap.Int("link_failures", report.LinkFailures))
	return report, runErr
}
