package foodchain

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// storeError maps a store error to a response.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrInvalidData):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("store operation failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON body into v and rejects it when name is blank.
func decode[T any](w http.ResponseWriter, r *http.Request, name func(T) string) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	if strings.TrimSpace(name(v)) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return v, false
	}
	return v, true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createStoreLocation(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r, func(v types.StoreLocationRequest) string { return v.Name })
	if !ok {
		return
	}
	loc, err := s.store.CreateStoreLocation(req.Name, req.Description)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("store location created", zap.String("id", loc.ID), zap.String("name", loc.Name))
	writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) createIngredient(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r, func(v types.IngredientRequest) string { return v.Name })
	if !ok {
		return
	}
	ing, err := s.store.CreateIngredient(req.Name, req.PurchaseFrequency)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("ingredient created", zap.String("id", ing.ID), zap.String("name", ing.Name))
	writeJSON(w, http.StatusCreated, ing)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r, func(v types.RecipeRequest) string { return v.Name })
	if !ok {
		return
	}
	rec, err := s.store.CreateRecipe(req.Name, req.Description)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("recipe created", zap.String("id", rec.ID), zap.String("name", rec.Name))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) linkIngredientStoreLocation(w http.ResponseWriter, r *http.Request) {
	link, created, err := s.store.LinkIngredientStoreLocation(
		chi.URLParam(r, "ingredientID"), chi.URLParam(r, "storeLocationID"),
	)
	s.writeLink(w, r, link, created, err)
}

func (s *Server) linkRecipeIngredient(w http.ResponseWriter, r *http.Request) {
	link, created, err := s.store.LinkRecipeIngredient(
		chi.URLParam(r, "recipeID"), chi.URLParam(r, "ingredientID"),
	)
	s.writeLink(w, r, link, created, err)
}

// writeLink answers 201 for a new link and 200 for an existing one.
func (s *Server) writeLink(w http.ResponseWriter, r *http.Request, link *types.Link, created bool, err error) {
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, link)
}

func (s *Server) listStoreLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.store.ListStoreLocations()
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(locs))
}

func (s *Server) listIngredients(w http.ResponseWriter, r *http.Request) {
	ings, err := s.store.ListIngredients()
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ings))
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListRecipes()
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
