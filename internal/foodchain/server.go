// Package foodchain serves a local implementation of the food-chain REST API
// backed by the SQLite store. It is used for dry runs of the importer and by
// end-to-end tests.
package foodchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/internal/metrics"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// shutdownTimeout bounds graceful shutdown after the context is cancelled.
const shutdownTimeout = 5 * time.Second

// Store is the storage the server needs.
type Store interface {
	CreateStoreLocation(name, description string) (*types.StoreLocation, error)
	CreateIngredient(name, purchaseFrequency string) (*types.Ingredient, error)
	CreateRecipe(name, description string) (*types.Recipe, error)
	LinkIngredientStoreLocation(ingredientID, storeLocationID string) (*types.Link, bool, error)
	LinkRecipeIngredient(recipeID, ingredientID string) (*types.Link, bool, error)
	ListStoreLocations() ([]types.StoreLocation, error)
	ListIngredients() ([]types.Ingredient, error)
	ListRecipes() ([]types.Recipe, error)
}

// Server routes food-chain requests to a Store.
type Server struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.Recorder
	router  chi.Router
}

// NewServer builds the router. m may be nil, in which case /metrics is not
// mounted.
func NewServer(store Store, logger *zap.Logger, m *metrics.Recorder) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: store, logger: logger, metrics: m}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recovery)
	r.Use(s.logRequests)
	r.Use(s.countRequests)

	r.Get("/healthz", s.health)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	r.Route(types.APIPrefix, func(r chi.Router) {
		r.Get("/store-locations", s.listStoreLocations)
		r.Post("/store-locations", s.createStoreLocation)

		r.Get("/ingredients", s.listIngredients)
		r.Post("/ingredients", s.createIngredient)
		r.Post("/ingredients/{ingredientID}/store-locations/{storeLocationID}", s.linkIngredientStoreLocation)

		r.Get("/recipes", s.listRecipes)
		r.Post("/recipes", s.createRecipe)
		r.Post("/recipes/{recipeID}/ingredients/{ingredientID}", s.linkRecipeIngredient)
	})

	s.router = r
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("food-chain service listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down food-chain service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
