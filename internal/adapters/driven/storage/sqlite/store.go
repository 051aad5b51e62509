package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/catalogd/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.catalogd/data/catalogd.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".catalogd", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalogd.db")

	// Open database with WAL mode for concurrent compiles
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FactStore returns a FactStore interface backed by this store.
func (s *Store) FactStore() driven.FactStore {
	return &factStore{store: s}
}

// NodeStore returns a NodeClassificationStore interface backed by this store.
func (s *Store) NodeStore() driven.NodeClassificationStore {
	return &nodeStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Fact Store ====================

// factStore implements driven.FactStore.
type factStore struct {
	store *Store
}

var _ driven.FactStore = (*factStore)(nil)

// Save stores facts for owner, replacing any previous set.
func (s *factStore) Save(ctx context.Context, facts *domain.Facts, owner string, opts driven.FactSaveOptions) error {
	valuesJSON, err := json.Marshal(facts.Values)
	if err != nil {
		return fmt.Errorf("marshalling fact values: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO facts (certname, environment, transaction_uuid, values_json, timestamp, expiration, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(certname) DO UPDATE SET
			environment = excluded.environment,
			transaction_uuid = excluded.transaction_uuid,
			values_json = excluded.values_json,
			timestamp = excluded.timestamp,
			expiration = excluded.expiration,
			saved_at = excluded.saved_at
	`, owner, opts.Environment, opts.TransactionID, string(valuesJSON),
		nullTime(facts.Timestamp), nullTime(facts.Expiration), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving facts: %w", err)
	}
	return nil
}

// Get retrieves the last facts saved for a node.
func (s *factStore) Get(ctx context.Context, name string) (*domain.FactsRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT certname, environment, transaction_uuid, values_json, timestamp, expiration, saved_at
		FROM facts WHERE certname = ?
	`, name)

	var (
		rec        domain.FactsRecord
		valuesJSON string
		timestamp  sql.NullTime
		expiration sql.NullTime
	)
	err := row.Scan(&rec.Facts.Name, &rec.Environment, &rec.TransactionID, &valuesJSON,
		&timestamp, &expiration, &rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}

	if err := json.Unmarshal([]byte(valuesJSON), &rec.Facts.Values); err != nil {
		return nil, fmt.Errorf("unmarshalling fact values: %w", err)
	}
	rec.Facts.Timestamp = timestamp.Time
	rec.Facts.Expiration = expiration.Time
	return &rec, nil
}

// ==================== Node Store ====================

// nodeStore implements driven.NodeClassificationStore.
type nodeStore struct {
	store *Store
}

var _ driven.NodeClassificationStore = (*nodeStore)(nil)

// Save stores or replaces a node classification.
func (s *nodeStore) Save(ctx context.Context, node domain.Node) error {
	classes := node.Classes
	if classes == nil {
		classes = []string{}
	}
	classesJSON, err := json.Marshal(classes)
	if err != nil {
		return fmt.Errorf("marshalling classes: %w", err)
	}
	params := node.Parameters
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshalling parameters: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO nodes (name, environment, classes_json, parameters_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			environment = excluded.environment,
			classes_json = excluded.classes_json,
			parameters_json = excluded.parameters_json,
			updated_at = excluded.updated_at
	`, node.Name, node.Environment, string(classesJSON), string(paramsJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving node: %w", err)
	}
	return nil
}

// Find resolves a node by name. A classification without an environment
// takes the requested one.
func (s *nodeStore) Find(ctx context.Context, name string, opts driven.NodeLookupOptions) (*domain.Node, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT name, environment, classes_json, parameters_json FROM nodes WHERE name = ?
	`, name)

	var (
		node        domain.Node
		classesJSON string
		paramsJSON  string
	)
	err := row.Scan(&node.Name, &node.Environment, &classesJSON, &paramsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying node: %w", err)
	}

	if err := json.Unmarshal([]byte(classesJSON), &node.Classes); err != nil {
		return nil, fmt.Errorf("unmarshalling classes: %w", err)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &node.Parameters); err != nil {
		return nil, fmt.Errorf("unmarshalling parameters: %w", err)
	}
	if node.Environment == "" {
		node.Environment = opts.Environment
	}
	node.Facts = opts.Facts
	return &node, nil
}

// nullTime converts zero times to NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
