package sqlite

import (
	"database/sql"
	"fmt"
)

// Table names.
const (
	tableStoreLocations           = "store_locations"
	tableIngredients              = "ingredients"
	tableRecipes                  = "recipes"
	tableIngredientStoreLocations = "ingredient_store_locations"
	tableRecipeIngredients        = "recipe_ingredients"
)

const (
	createStoreLocations = `CREATE TABLE store_locations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createIngredients = `CREATE TABLE ingredients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    purchase_frequency TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createRecipes = `CREATE TABLE recipes (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createIngredientStoreLocations = `CREATE TABLE ingredient_store_locations (
    ingredient_id TEXT NOT NULL,
    store_location_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (ingredient_id, store_location_id),
    FOREIGN KEY (ingredient_id) REFERENCES ingredients(id),
    FOREIGN KEY (store_location_id) REFERENCES store_locations(id)
);`

	createRecipeIngredients = `CREATE TABLE recipe_ingredients (
    recipe_id TEXT NOT NULL,
    ingredient_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (recipe_id, ingredient_id),
    FOREIGN KEY (recipe_id) REFERENCES recipes(id),
    FOREIGN KEY (ingredient_id) REFERENCES ingredients(id)
);`
)

const (
	idxIngredientStoreLocationsLocation = `CREATE INDEX idx_ingredient_store_locations_location ON ingredient_store_locations(store_location_id);`
	idxRecipeIngredientsIngredient      = `CREATE INDEX idx_recipe_ingredients_ingredient ON recipe_ingredients(ingredient_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createStoreLocations,
	createIngredients,
	createRecipes,
	createIngredientStoreLocations,
	createRecipeIngredients,
}

var indexDDL = []string{
	idxIngredientStoreLocationsLocation,
	idxRecipeIngredientsIngredient,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	return nil
}
