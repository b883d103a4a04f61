// Package importer walks a grocery export and creates the matching store
// locations, ingredients and recipes on the food-chain service, in dependency
// order and at most once per name per run.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// DefaultThrottle is the pause after each recipe.
const DefaultThrottle = 100 * time.Millisecond

const (
	storeLocationsPath = types.APIPrefix + "/store-locations"
	ingredientsPath    = types.APIPrefix + "/ingredients"
	recipesPath        = types.APIPrefix + "/recipes"
)

// Caller issues a single food-chain API call. *gateway.Client implements it.
type Caller interface {
	Call(ctx context.Context, method, path string, body any) (map[string]any, error)
}

// Importer owns the per-run caches. It is not safe for concurrent use.
type Importer struct {
	api      Caller
	logger   *zap.Logger
	metrics  *metrics.Recorder
	throttle time.Duration
	sleep    func(ctx context.Context, d time.Duration) error

	storeLocations *nameCache // keyed by normalized raw category
	ingredients    *nameCache // keyed by item name
	recipes        *nameCache // keyed by recipe name

	linkFailures int
}

// Option configures an Importer.
type Option func(*Importer)

// WithThrottle sets the pause after each recipe.
func WithThrottle(d time.Duration) Option {
	return func(im *Importer) {
		if d >= 0 {
			im.throttle = d
		}
	}
}

// WithMetrics records created entities, cache hits and links in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(im *Importer) { im.metrics = m }
}

// WithSleeper replaces the pause between recipes.
func WithSleeper(s func(ctx context.Context, d time.Duration) error) Option {
	return func(im *Importer) { im.sleep = s }
}

// New creates an Importer with empty caches.
func New(api Caller, logger *zap.Logger, opts ...Option) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	im := &Importer{
		api:            api,
		logger:         logger,
		throttle:       DefaultThrottle,
		sleep:          sleepContext,
		storeLocations: newNameCache(),
		ingredients:    newNameCache(),
		recipes:        newNameCache(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

func ingredientStoreLocationPath(ingredientID, storeLocationID string) string {
	return fmt.Sprintf("%s/%s/store-locations/%s", ingredientsPath, url.PathEscape(ingredientID), url.PathEscape(storeLocationID))
}

func recipeIngredientPath(recipeID, ingredientID string) string {
	return fmt.Sprintf("%s/%s/ingredients/%s", recipesPath, url.PathEscape(recipeID), url.PathEscape(ingredientID))
}

// createdID extracts the id of a created entity from a creation response.
func createdID(resp map[string]any, err error) (string, error) {
	if err != nil {
		return "", err
	}
	switch id := resp["id"].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		return id.String(), nil
	case float64:
		return fmt.Sprint(id), nil
	}
	return "", types.ErrMissingID
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
