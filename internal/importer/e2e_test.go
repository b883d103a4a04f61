package importer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/pantry/internal/foodchain"
	"github.com/mesh-intelligence/pantry/internal/gateway"
	"github.com/mesh-intelligence/pantry/internal/importer"
	"github.com/mesh-intelligence/pantry/internal/sqlite"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

const soupExport = `{"recipes":[{"name":"Soup","items":[{"name":"Carrot","category":"Produce"}]}]}`

// counter records every request reaching the food-chain service and fails
// the paths listed in failing with a 500.
type counter struct {
	mu      sync.Mutex
	hits    map[string]int
	failing map[string]bool
	next    http.Handler
}

func (c *counter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.Method+" "+classify(r.URL.Path)]++
	fail := c.failing[r.URL.Path]
	c.mu.Unlock()

	if fail {
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	c.next.ServeHTTP(w, r)
}

func (c *counter) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[key]
}

func (c *counter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.hits {
		n += v
	}
	return n
}

// classify replaces the ids in link paths so calls can be counted by shape.
func classify(path string) string {
	rest := strings.TrimPrefix(path, types.APIPrefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 4 {
		return parts[0] + "/{id}/" + parts[2] + "/{id}"
	}
	return rest
}

type env struct {
	counter  *counter
	store    *sqlite.Store
	importer *importer.Importer
	logs     *observer.ObservedLogs
}

func newEnv(t *testing.T, failing ...string) *env {
	t.Helper()

	store := sqlite.NewStore()
	require.NoError(t, store.Attach(""))
	t.Cleanup(func() { store.Detach() })

	c := &counter{
		hits:    map[string]int{},
		failing: map[string]bool{},
		next:    foodchain.NewServer(store, zap.NewNop(), nil).Handler(),
	}
	for _, p := range failing {
		c.failing[p] = true
	}
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	noSleep := func(context.Context, time.Duration) error { return nil }

	client := gateway.New(srv.URL, logger, gateway.WithSleeper(noSleep))
	im := importer.New(client, logger, importer.WithSleeper(noSleep))
	return &env{counter: c, store: store, importer: im, logs: logs}
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunSingleRecipe(t *testing.T) {
	e := newEnv(t)

	report, err := e.importer.Run(context.Background(), writeExport(t, soupExport))
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Succeeded)

	assert.Equal(t, 1, e.counter.count("POST /store-locations"))
	assert.Equal(t, 1, e.counter.count("POST /ingredients"))
	assert.Equal(t, 1, e.counter.count("POST ingredients/{id}/store-locations/{id}"))
	assert.Equal(t, 1, e.counter.count("POST /recipes"))
	assert.Equal(t, 1, e.counter.count("POST recipes/{id}/ingredients/{id}"))
	assert.Equal(t, 5, e.counter.total())

	locs, err := e.store.ListStoreLocations()
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Produce Section", locs[0].Name)
	assert.Equal(t, "Store location for produce items", locs[0].Description)

	ings, err := e.store.ListIngredients()
	require.NoError(t, err)
	require.Len(t, ings, 1)
	assert.Equal(t, "Carrot", ings[0].Name)
	assert.Equal(t, types.PurchaseFrequencyUsually, ings[0].PurchaseFrequency)

	recs, err := e.store.ListRecipes()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Soup", recs[0].Name)

	links, err := e.store.ListRecipeIngredients()
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, recs[0].ID, links[0].FromID)
	assert.Equal(t, ings[0].ID, links[0].ToID)
}

func TestRunIngredientFailureKeepsRecipe(t *testing.T) {
	e := newEnv(t, types.APIPrefix+"/ingredients")

	report, err := e.importer.Run(context.Background(), writeExport(t, soupExport))
	require.NoError(t, err)
	assert.True(t, report.Success(), "the recipe itself was created")
	assert.Equal(t, 1, report.Succeeded)

	assert.Equal(t, gateway.DefaultMaxAttempts, e.counter.count("POST /ingredients"))
	assert.Zero(t, e.counter.count("POST ingredients/{id}/store-locations/{id}"))
	assert.Zero(t, e.counter.count("POST recipes/{id}/ingredients/{id}"))
	assert.Equal(t, 1, e.counter.count("POST /recipes"))

	assert.NotZero(t, e.logs.FilterMessage("giving up on request").Len())

	recs, err := e.store.ListRecipes()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRunUnreadableSource(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }, types.ErrSourceRead},
		{"malformed json", func(t *testing.T) string { return writeExport(t, `{"recipes": [`) }, types.ErrSourceDecode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			report, err := e.importer.Run(context.Background(), tt.path(t))
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, report.Success())
			assert.Zero(t, e.counter.total())
		})
	}
}

func TestRunSharedEntitiesAcrossRecipes(t *testing.T) {
	e := newEnv(t)
	export := `{"recipes":[
		{"name":"Soup","items":[{"name":"Carrot","category":"Produce"},{"name":"Cream","category":"Dairy"}]},
		{"name":"Salad","items":[{"name":"Carrot","category":"Produce"},{"name":"Lettuce","category":"Produce"}]},
		{"name":"Soup","items":[{"name":"Carrot","category":"Produce"}]}
	]}`

	report, err := e.importer.Run(context.Background(), writeExport(t, export))
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 2, report.StoreLocations)
	assert.Equal(t, 3, report.Ingredients)
	assert.Equal(t, 2, report.Recipes)

	assert.Equal(t, 2, e.counter.count("POST /store-locations"))
	assert.Equal(t, 3, e.counter.count("POST /ingredients"))
	assert.Equal(t, 2, e.counter.count("POST /recipes"))
	assert.Equal(t, 4, e.counter.count("POST recipes/{id}/ingredients/{id}"))
}
