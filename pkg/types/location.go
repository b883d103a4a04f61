package types

import "strings"

// DefaultStoreLocation is the display name for items without a category.
const DefaultStoreLocation = "General Store"

// storeLocationNames maps raw export categories to store location names.
var storeLocationNames = map[string]string{
	"Produce":     "Produce Section",
	"Meat":        "Meat Department",
	"Dairy":       "Dairy Section",
	"Cheese":      "Cheese Counter",
	"Middle":      "Center Aisles",
	"Bakery":      "Bakery Department",
	"Deli":        "Deli Counter",
	"Frozen Food": "Frozen Foods",
	"":            DefaultStoreLocation,
}

// NormalizeCategory collapses empty and whitespace-only categories to "".
// Any other category is returned unchanged.
func NormalizeCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return ""
	}
	return category
}

// StoreLocationName returns the display name for a normalized category.
// Categories missing from the table are their own display name.
func StoreLocationName(category string) string {
	if name, ok := storeLocationNames[category]; ok {
		return name
	}
	return category
}

// StoreLocationDescription returns the description sent when creating the
// store location for category.
func StoreLocationDescription(category string) string {
	return "Store location for " + strings.ToLower(category) + " items"
}

// RecipeDescription returns the description sent when creating a recipe.
func RecipeDescription(name string) string {
	return "Recipe for " + name
}
