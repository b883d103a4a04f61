package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newTestStore(t *testing.T, dataDir string) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Attach(dataDir))
	t.Cleanup(func() { s.Detach() })
	return s
}

func TestAttachDetach(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Attach(""))
	assert.ErrorIs(t, s.Attach(""), types.ErrAttached)

	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach(), "detach is idempotent")

	_, err := s.CreateRecipe("Tacos", "")
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = s.ListRecipes()
	assert.ErrorIs(t, err, types.ErrDetached)
}

func TestCreateEntities(t *testing.T) {
	s := newTestStore(t, "")

	loc, err := s.CreateStoreLocation("Produce", "Produce section")
	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID)
	assert.False(t, loc.CreatedAt.IsZero())

	ing, err := s.CreateIngredient("Milk", types.PurchaseFrequencyUsually)
	require.NoError(t, err)
	assert.NotEqual(t, loc.ID, ing.ID)

	rec, err := s.CreateRecipe("Pancakes", "Imported recipe: Pancakes")
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", rec.Name)

	ings, err := s.ListIngredients()
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, ing.ID, ings[0].ID)
	assert.Equal(t, types.PurchaseFrequencyUsually, ings[0].PurchaseFrequency)
}

func TestCreateEntityValidation(t *testing.T) {
	s := newTestStore(t, "")

	tests := []struct {
		name   string
		create func() error
	}{
		{"store location", func() error { _, err := s.CreateStoreLocation(" ", "x"); return err }},
		{"ingredient", func() error { _, err := s.CreateIngredient("", "Usually"); return err }},
		{"recipe", func() error { _, err := s.CreateRecipe("", ""); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.create(), types.ErrInvalidData)
		})
	}
}

func TestCreateDuplicateName(t *testing.T) {
	s := newTestStore(t, "")

	_, err := s.CreateIngredient("Eggs", "Usually")
	require.NoError(t, err)
	_, err = s.CreateIngredient("Eggs", "Usually")
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	// Names are unique per kind only.
	_, err = s.CreateRecipe("Eggs", "")
	assert.NoError(t, err)

	ings, err := s.ListIngredients()
	require.NoError(t, err)
	assert.Len(t, ings, 1)
}

func TestLinks(t *testing.T) {
	s := newTestStore(t, "")

	loc, err := s.CreateStoreLocation("Dairy", "Dairy section")
	require.NoError(t, err)
	ing, err := s.CreateIngredient("Milk", "Usually")
	require.NoError(t, err)
	rec, err := s.CreateRecipe("Pancakes", "")
	require.NoError(t, err)

	link, created, err := s.LinkIngredientStoreLocation(ing.ID, loc.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, types.LinkIngredientStoreLocation, link.Kind)
	assert.Equal(t, ing.ID, link.FromID)
	assert.Equal(t, loc.ID, link.ToID)

	again, created, err := s.LinkIngredientStoreLocation(ing.ID, loc.ID)
	require.NoError(t, err)
	assert.False(t, created, "existing pair is returned, not duplicated")
	assert.Equal(t, link.FromID, again.FromID)

	_, created, err = s.LinkRecipeIngredient(rec.ID, ing.ID)
	require.NoError(t, err)
	assert.True(t, created)

	isl, err := s.ListIngredientStoreLocations()
	require.NoError(t, err)
	assert.Len(t, isl, 1)
	ri, err := s.ListRecipeIngredients()
	require.NoError(t, err)
	require.Len(t, ri, 1)
	assert.Equal(t, rec.ID, ri[0].FromID)
}

func TestLinkUnknownIDs(t *testing.T) {
	s := newTestStore(t, "")

	ing, err := s.CreateIngredient("Milk", "Usually")
	require.NoError(t, err)

	_, _, err = s.LinkIngredientStoreLocation(ing.ID, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, _, err = s.LinkRecipeIngredient("missing", ing.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, _, err = s.LinkRecipeIngredient("", ing.ID)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := NewStore()
	require.NoError(t, s.Attach(dir))
	loc, err := s.CreateStoreLocation("Bakery", "Bakery section")
	require.NoError(t, err)
	ing, err := s.CreateIngredient("Bread", "Usually")
	require.NoError(t, err)
	_, _, err = s.LinkIngredientStoreLocation(ing.ID, loc.ID)
	require.NoError(t, err)
	require.NoError(t, s.Detach())

	data, err := os.ReadFile(filepath.Join(dir, "ingredients.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Bread", rec["name"])

	reopened := newTestStore(t, dir)
	ings, err := reopened.ListIngredients()
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, ing.ID, ings[0].ID)

	links, err := reopened.ListIngredientStoreLocations()
	require.NoError(t, err)
	assert.Len(t, links, 1)

	_, err = reopened.CreateIngredient("Bread", "Usually")
	assert.ErrorIs(t, err, types.ErrDuplicateName, "uniqueness survives a reload")
}

func TestAttachSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"id":"a","name":"Produce","description":"Produce section","created_at":"2026-01-01T00:00:00Z"}
not json
{"id":"b","name":"Produce","description":"dup","created_at":"2026-01-01T00:00:00Z"}

{"id":"c","name":"Dairy","description":"Dairy section","created_at":"2026-01-01T00:00:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store_locations.jsonl"), []byte(content), 0o644))

	s := newTestStore(t, dir)
	locs, err := s.ListStoreLocations()
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "a", locs[0].ID)
	assert.Equal(t, "c", locs[1].ID)
}

func TestAttachCreatesTableFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	newTestStore(t, dir)

	for _, m := range jsonlTableMapping {
		_, err := os.Stat(filepath.Join(dir, m.table+".jsonl"))
		assert.NoError(t, err, m.table)
	}
}

// blockTableFile replaces table's JSONL file with a non-empty directory so
// the next save of that table fails. The returned func restores a file.
func blockTableFile(t *testing.T, dir, table string) func() {
	t.Helper()
	path := filepath.Join(dir, table+".jsonl")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "blocker"), 0o755))
	return func() {
		require.NoError(t, os.RemoveAll(path))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func TestCreateRolledBackWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	restore := blockTableFile(t, dir, tableStoreLocations)
	_, err := s.CreateStoreLocation("Produce Section", "Store location for produce items")
	require.Error(t, err)

	locs, err := s.ListStoreLocations()
	require.NoError(t, err)
	assert.Empty(t, locs, "failed save leaves no row behind")

	restore()
	loc, err := s.CreateStoreLocation("Produce Section", "Store location for produce items")
	require.NoError(t, err, "retry after the disk recovers is not a duplicate")

	require.NoError(t, s.Detach())
	reopened := newTestStore(t, dir)
	locs, err = reopened.ListStoreLocations()
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, loc.ID, locs[0].ID)
}

func TestLinkRolledBackWhenSaveFails(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	rec, err := s.CreateRecipe("Soup", "Recipe for Soup")
	require.NoError(t, err)
	ing, err := s.CreateIngredient("Carrot", types.PurchaseFrequencyUsually)
	require.NoError(t, err)

	restore := blockTableFile(t, dir, tableRecipeIngredients)
	_, _, err = s.LinkRecipeIngredient(rec.ID, ing.ID)
	require.Error(t, err)

	links, err := s.ListRecipeIngredients()
	require.NoError(t, err)
	assert.Empty(t, links)

	restore()
	_, created, err := s.LinkRecipeIngredient(rec.ID, ing.ID)
	require.NoError(t, err)
	assert.True(t, created, "the failed link was not kept")

	require.NoError(t, s.Detach())
	reopened := newTestStore(t, dir)
	links, err = reopened.ListRecipeIngredients()
	require.NoError(t, err)
	assert.Len(t, links, 1)
}
