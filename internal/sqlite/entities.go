package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// CreateStoreLocation inserts a store location. Names are unique; a second
// location with the same name returns ErrDuplicateName.
func (s *Store) CreateStoreLocation(name, description string) (*types.StoreLocation, error) {
	loc := &types.StoreLocation{Name: name, Description: description}
	if err := s.insertEntity(tableStoreLocations, name, description, &loc.ID, &loc.CreatedAt); err != nil {
		return nil, err
	}
	return loc, nil
}

// CreateIngredient inserts an ingredient. Names are unique.
func (s *Store) CreateIngredient(name, purchaseFrequency string) (*types.Ingredient, error) {
	ing := &types.Ingredient{Name: name, PurchaseFrequency: purchaseFrequency}
	if err := s.insertEntity(tableIngredients, name, purchaseFrequency, &ing.ID, &ing.CreatedAt); err != nil {
		return nil, err
	}
	return ing, nil
}

// CreateRecipe inserts a recipe. Names are unique.
func (s *Store) CreateRecipe(name, description string) (*types.Recipe, error) {
	rec := &types.Recipe{Name: name, Description: description}
	if err := s.insertEntity(tableRecipes, name, description, &rec.ID, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

// secondColumn is the non-name attribute column of each entity table.
var secondColumn = map[string]string{
	tableStoreLocations: "description",
	tableIngredients:    "purchase_frequency",
	tableRecipes:        "description",
}

func (s *Store) insertEntity(table, name, attr string, id *string, createdAt *time.Time) error {
	if strings.TrimSpace(name) == "" {
		return types.ErrInvalidData
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrDetached
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var dupID string
	err = tx.QueryRow("SELECT id FROM "+table+" WHERE name = ?", name).Scan(&dupID)
	if err == nil {
		return types.ErrDuplicateName
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking %s uniqueness: %w", table, err)
	}

	newEntityID := newID()
	now := time.Now().UTC()
	_, err = tx.Exec(
		fmt.Sprintf("INSERT INTO %s (id, name, %s, created_at) VALUES (?, ?, ?, ?)", table, secondColumn[table]),
		newEntityID, name, attr, formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", table, err)
	}
	if err := s.persist(tx, table); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", table, err)
	}

	*id = newEntityID
	*createdAt = now
	return nil
}

// ListStoreLocations returns all store locations in creation order.
func (s *Store) ListStoreLocations() ([]types.StoreLocation, error) {
	var out []types.StoreLocation
	err := s.listEntities(tableStoreLocations, func(id, name, attr string, created time.Time) {
		out = append(out, types.StoreLocation{ID: id, Name: name, Description: attr, CreatedAt: created})
	})
	return out, err
}

// ListIngredients returns all ingredients in creation order.
func (s *Store) ListIngredients() ([]types.Ingredient, error) {
	var out []types.Ingredient
	err := s.listEntities(tableIngredients, func(id, name, attr string, created time.Time) {
		out = append(out, types.Ingredient{ID: id, Name: name, PurchaseFrequency: attr, CreatedAt: created})
	})
	return out, err
}

// ListRecipes returns all recipes in creation order.
func (s *Store) ListRecipes() ([]types.Recipe, error) {
	var out []types.Recipe
	err := s.listEntities(tableRecipes, func(id, name, attr string, created time.Time) {
		out = append(out, types.Recipe{ID: id, Name: name, Description: attr, CreatedAt: created})
	})
	return out, err
}

func (s *Store) listEntities(table string, add func(id, name, attr string, created time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrDetached
	}

	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT id, name, %s, created_at FROM %s ORDER BY rowid", secondColumn[table], table,
	))
	if err != nil {
		return fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name, attr, created string
		if err := rows.Scan(&id, &name, &attr, &created); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		add(id, name, attr, parseTime(created))
	}
	return rows.Err()
}

// exists reports whether id is present in table.
func exists(tx *sql.Tx, table, id string) (bool, error) {
	var one int
	err := tx.QueryRow("SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s existence: %w", table, err)
	}
	return true, nil
}
