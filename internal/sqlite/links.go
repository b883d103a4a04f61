package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

type linkSpec struct {
	kind      string
	table     string
	fromCol   string
	toCol     string
	fromTable string
	toTable   string
}

var (
	ingredientStoreLocationLink = linkSpec{
		kind:      types.LinkIngredientStoreLocation,
		table:     tableIngredientStoreLocations,
		fromCol:   "ingredient_id",
		toCol:     "store_location_id",
		fromTable: tableIngredients,
		toTable:   tableStoreLocations,
	}
	recipeIngredientLink = linkSpec{
		kind:      types.LinkRecipeIngredient,
		table:     tableRecipeIngredients,
		fromCol:   "recipe_id",
		toCol:     "ingredient_id",
		fromTable: tableRecipes,
		toTable:   tableIngredients,
	}
)

// LinkIngredientStoreLocation associates an ingredient with a store location.
// Linking an existing pair returns the stored link with created false.
// Unknown ids return ErrNotFound.
func (s *Store) LinkIngredientStoreLocation(ingredientID, storeLocationID string) (*types.Link, bool, error) {
	return s.link(ingredientStoreLocationLink, ingredientID, storeLocationID)
}

// LinkRecipeIngredient associates a recipe with an ingredient. Same
// semantics as LinkIngredientStoreLocation.
func (s *Store) LinkRecipeIngredient(recipeID, ingredientID string) (*types.Link, bool, error) {
	return s.link(recipeIngredientLink, recipeID, ingredientID)
}

func (s *Store) link(spec linkSpec, fromID, toID string) (*types.Link, bool, error) {
	if fromID == "" || toID == "" {
		return nil, false, types.ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, false, types.ErrDetached
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ref := range []struct{ table, id string }{{spec.fromTable, fromID}, {spec.toTable, toID}} {
		ok, err := exists(tx, ref.table, ref.id)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fmt.Errorf("%w: %s %s", types.ErrNotFound, ref.table, ref.id)
		}
	}

	var created string
	err = tx.QueryRow(
		fmt.Sprintf("SELECT created_at FROM %s WHERE %s = ? AND %s = ?", spec.table, spec.fromCol, spec.toCol),
		fromID, toID,
	).Scan(&created)
	if err == nil {
		return &types.Link{Kind: spec.kind, FromID: fromID, ToID: toID, CreatedAt: parseTime(created)}, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("checking %s: %w", spec.table, err)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(
		fmt.Sprintf("INSERT INTO %s (%s, %s, created_at) VALUES (?, ?, ?)", spec.table, spec.fromCol, spec.toCol),
		fromID, toID, formatTime(now),
	)
	if err != nil {
		return nil, false, fmt.Errorf("inserting into %s: %w", spec.table, err)
	}
	if err := s.persist(tx, spec.table); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing %s: %w", spec.table, err)
	}
	return &types.Link{Kind: spec.kind, FromID: fromID, ToID: toID, CreatedAt: now}, true, nil
}

// ListIngredientStoreLocations returns all ingredient/store-location links.
func (s *Store) ListIngredientStoreLocations() ([]types.Link, error) {
	return s.listLinks(ingredientStoreLocationLink)
}

// ListRecipeIngredients returns all recipe/ingredient links.
func (s *Store) ListRecipeIngredients() ([]types.Link, error) {
	return s.listLinks(recipeIngredientLink)
}

func (s *Store) listLinks(spec linkSpec) ([]types.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrDetached
	}

	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT %s, %s, created_at FROM %s ORDER BY rowid", spec.fromCol, spec.toCol, spec.table,
	))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", spec.table, err)
	}
	defer rows.Close()

	var out []types.Link
	for rows.Next() {
		var from, to, created string
		if err := rows.Scan(&from, &to, &created); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", spec.table, err)
		}
		out = append(out, types.Link{Kind: spec.kind, FromID: from, ToID: to, CreatedAt: parseTime(created)})
	}
	return out, rows.Err()
}
