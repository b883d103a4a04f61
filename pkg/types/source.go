package types

// Export is the top-level shape of a grocery export file.
type Export struct {
	Recipes []SourceRecipe `json:"recipes"`
}

// SourceRecipe is a recipe as it appears in the export. Items keep file order.
type SourceRecipe struct {
	Name  string       `json:"name"`
	Items []SourceItem `json:"items"`
}

// SourceItem is a single grocery item of a recipe. Category may be empty.
type SourceItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}
