package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// jsonlTableMapping lists the persisted tables and their columns. Entity
// tables come before the link tables that reference them.
var jsonlTableMapping = []struct {
	table   string
	columns []string
}{
	{tableStoreLocations, []string{"id", "name", "description", "created_at"}},
	{tableIngredients, []string{"id", "name", "purchase_frequency", "created_at"}},
	{tableRecipes, []string{"id", "name", "description", "created_at"}},
	{tableIngredientStoreLocations, []string{"ingredient_id", "store_location_id", "created_at"}},
	{tableRecipeIngredients, []string{"recipe_id", "ingredient_id", "created_at"}},
}

// loadAllJSONL loads every table file in one transaction: either all records
// load or the database stays empty. Malformed lines, unknown fields and rows
// that violate a constraint are skipped.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range jsonlTableMapping {
		records, err := readJSONL(jsonlPath(dataDir, m.table))
		if err != nil {
			return err
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, m.table, m.columns, records); err != nil {
			return fmt.Errorf("loading %s: %w", m.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = obj[col]
		}
		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}
