package types

import "time"

// APIPrefix is the path prefix of every food-chain endpoint.
const APIPrefix = "/api/v1/food-chain"

// Entity kinds, used as cache, metric and table labels.
const (
	KindStoreLocation = "store_location"
	KindIngredient    = "ingredient"
	KindRecipe        = "recipe"
)

// Link kinds.
const (
	LinkIngredientStoreLocation = "ingredient_store_location"
	LinkRecipeIngredient        = "recipe_ingredient"
)

// PurchaseFrequencyUsually is the purchase frequency given to every imported
// ingredient. The export carries no frequency field.
const PurchaseFrequencyUsually = "Usually"

// StoreLocation is a physical area of a store, derived from an item category.
type StoreLocation struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ingredient is a purchasable grocery item.
type Ingredient struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PurchaseFrequency string    `json:"purchaseFrequency"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Recipe is a named set of ingredients.
type Recipe struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Link is an association between two entities. FromID is the ingredient for
// ingredient/store-location links and the recipe for recipe/ingredient links.
type Link struct {
	Kind      string    `json:"kind"`
	FromID    string    `json:"fromId"`
	ToID      string    `json:"toId"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoreLocationRequest is the body of a store-location creation call.
type StoreLocationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// IngredientRequest is the body of an ingredient creation call.
type IngredientRequest struct {
	Name              string `json:"name"`
	PurchaseFrequency string `json:"purchaseFrequency"`
}

// RecipeRequest is the body of a recipe creation call.
type RecipeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
