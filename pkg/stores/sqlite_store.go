package stores

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements StateStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations from the embedded migration files.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// FetchFrameworkID returns the registered framework id, if any.
func (s *SQLiteStore) FetchFrameworkID(ctx context.Context) (string, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT framework_id FROM framework WHERE singleton = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch framework id: %w", err)
	}
	return id, true, nil
}

// StoreFrameworkID records the framework id after registration.
func (s *SQLiteStore) StoreFrameworkID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO framework (singleton, framework_id) VALUES (1, ?)
		ON CONFLICT (singleton) DO UPDATE SET framework_id = excluded.framework_id`,
		id)
	if err != nil {
		return fmt.Errorf("failed to store framework id: %w", err)
	}
	return nil
}

// ClearFrameworkID removes the framework id.
func (s *SQLiteStore) ClearFrameworkID(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM framework`); err != nil {
		return fmt.Errorf("failed to clear framework id: %w", err)
	}
	return nil
}

// FetchTasks returns every known task record.
func (s *SQLiteStore) FetchTasks(ctx context.Context) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, state, resource_ids, created_at, updated_at
		FROM tasks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		var t TaskRecord
		var resourceIDs string
		if err := rows.Scan(&t.ID, &t.Name, &t.State, &resourceIDs, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := json.Unmarshal([]byte(resourceIDs), &t.ResourceIDs); err != nil {
			return nil, fmt.Errorf("failed to decode resource ids for task %s: %w", t.ID, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// StoreTask inserts or replaces a task record.
func (s *SQLiteStore) StoreTask(ctx context.Context, task TaskRecord) error {
	resourceIDs, err := json.Marshal(task.ResourceIDs)
	if err != nil {
		return fmt.Errorf("failed to encode resource ids: %w", err)
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, name, state, resource_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			state = excluded.state,
			resource_ids = excluded.resource_ids,
			updated_at = excluded.updated_at`,
		task.ID, task.Name, task.State, string(resourceIDs), task.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to store task %s: %w", task.ID, err)
	}
	return nil
}

// FetchResources returns every known resource record.
func (s *SQLiteStore) FetchResources(ctx context.Context) ([]ResourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, unreserved FROM resources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer rows.Close()

	var resources []ResourceRecord
	for rows.Next() {
		var r ResourceRecord
		if err := rows.Scan(&r.ID, &r.Unreserved); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// StoreResource inserts or replaces a resource record.
func (s *SQLiteStore) StoreResource(ctx context.Context, resource ResourceRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, unreserved) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET unreserved = excluded.unreserved`,
		resource.ID, resource.Unreserved)
	if err != nil {
		return fmt.Errorf("failed to store resource %s: %w", resource.ID, err)
	}
	return nil
}

// MarkResourceUnreserved writes the unreservation tombstone for the resource.
func (s *SQLiteStore) MarkResourceUnreserved(ctx context.Context, resourceID string) error {
	return s.StoreResource(ctx, ResourceRecord{ID: resourceID, Unreserved: true})
}

// GetProperty returns the named service property, if set.
func (s *SQLiteStore) GetProperty(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM properties WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch property %s: %w", key, err)
	}
	return value, true, nil
}

// SetProperty stores the named service property.
func (s *SQLiteStore) SetProperty(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set property %s: %w", key, err)
	}
	return nil
}

// ClearAllData wipes the store.
func (s *SQLiteStore) ClearAllData(ctx context.Context) error {
	for _, table := range []string{"framework", "tasks", "resources", "properties"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}
