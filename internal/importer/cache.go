package importer

import "github.com/mesh-intelligence/pantry/pkg/types"

// nameCache maps entity names to remote ids for the lifetime of one Importer.
// Entries are only ever added.
type nameCache struct {
	ids       map[string]string
	processed map[string]struct{}
}

func newNameCache() *nameCache {
	return &nameCache{
		ids:       make(map[string]string),
		processed: make(map[string]struct{}),
	}
}

// lookup reports whether name was already processed in this run. A processed
// name without an id returns types.ErrCacheInconsistent.
func (c *nameCache) lookup(name string) (string, bool, error) {
	if _, ok := c.processed[name]; !ok {
		return "", false, nil
	}
	id, ok := c.ids[name]
	if !ok || id == "" {
		return "", true, types.ErrCacheInconsistent
	}
	return id, true, nil
}

func (c *nameCache) record(name, id string) {
	c.ids[name] = id
	c.processed[name] = struct{}{}
}

func (c *nameCache) len() int {
	return len(c.processed)
}
