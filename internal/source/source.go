// Package source reads grocery export files.
package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Load reads the export at path. Missing names, items and categories decode
// to their zero values. Read failures wrap types.ErrSourceRead and malformed
// JSON wraps types.ErrSourceDecode.
func Load(path string) (*types.Export, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSourceRead, err)
	}
	defer file.Close()

	var export types.Export
	if err := json.NewDecoder(file).Decode(&export); err != nil {
		return nil, fmt.Errorf("%w %s: %v", types.ErrSourceDecode, path, err)
	}
	return &export, nil
}
