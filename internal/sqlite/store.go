// Package sqlite implements the storage of the local food-chain service.
// SQLite is the query engine; when a data directory is configured, one JSONL
// file per table is the source of truth and is reloaded on Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "foodchain.db"

// Store holds store locations, ingredients, recipes and their links.
type Store struct {
	mu       sync.Mutex
	attached bool
	dataDir  string
	db       *sql.DB
}

// NewStore creates a detached Store. Call Attach before use.
func NewStore() *Store {
	return &Store{}
}

// Attach opens the store. An empty dataDir keeps everything in memory;
// otherwise the directory is created if needed, the database is rebuilt
// and the table JSONL files in it are loaded.
// Returns ErrAttached if already attached.
func (s *Store) Attach(dataDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAttached
	}

	dsn := ":memory:"
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, dbFileName)
		// JSONL is the source of truth; the database is rebuilt from it.
		_ = os.Remove(dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	if dataDir != "" {
		if err := initJSONLFiles(dataDir); err != nil {
			db.Close()
			return err
		}
		if err := loadAllJSONL(db, dataDir); err != nil {
			db.Close()
			return fmt.Errorf("load JSONL: %w", err)
		}
	}

	s.db = db
	s.dataDir = dataDir
	s.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	return nil
}

// persist writes table, as seen by tx, to its JSONL file when the store has
// a data dir. Callers hold s.mu and commit tx only when persist succeeds.
func (s *Store) persist(tx *sql.Tx, table string) error {
	if s.dataDir == "" {
		return nil
	}
	if err := persistTableJSONL(tx, s.dataDir, table); err != nil {
		return fmt.Errorf("persisting %s.jsonl: %w", table, err)
	}
	return nil
}

// newID generates a UUID v7 for entity ids.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
