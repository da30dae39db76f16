package harness

import (
	"bytes"
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

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/identity"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Instance is a materialized resource instance as persisted by the
// harness: the provider's identifier and computed fields alongside the
// attributes and salt needed to replay them.
type Instance struct {
	ID        string
	Name      string
	Kind      deli.Kind
	Attrs     json.RawMessage
	Computed  json.RawMessage
	Serial    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IDValue returns the identifier in the provider's typed form.
func (i Instance) IDValue() identity.ID {
	return identity.ID(i.ID)
}

// Fields decodes the instance's computed fields without losing decimal
// precision.
func (i Instance) Fields() (deli.Fields, error) {
	return deli.FieldsFromJSON(i.Computed)
}

// Attributes decodes the instance's stored attribute document. Numbers
// decode as json.Number so integer attributes survive the round trip
// instead of degrading to float64.
func (i Instance) Attributes() (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(i.Attrs))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decoding attributes of %s: %w", i.ID, err)
	}
	return attrs, nil
}

// Store persists materialized instances in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a store backed by the SQLite database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &Store{path: path}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *Store) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

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
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *Store) Migrate(_ context.Context) error {
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

// PutInstance inserts or replaces an instance by its logical name.
func (s *Store) PutInstance(ctx context.Context, inst Instance) error {
	query := `
		INSERT INTO instances (id, name, kind, attrs, computed, serial, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			kind = excluded.kind,
			attrs = excluded.attrs,
			computed = excluded.computed,
			serial = excluded.serial,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, query,
		inst.ID,
		inst.Name,
		string(inst.Kind),
		string(inst.Attrs),
		string(inst.Computed),
		inst.Serial,
		inst.CreatedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to store instance %s: %w", inst.Name, err)
	}
	return nil
}

// GetInstance retrieves an instance by its logical name.
func (s *Store) GetInstance(ctx context.Context, name string) (*Instance, error) {
	query := `
		SELECT id, name, kind, attrs, computed, serial, created_at, updated_at
		FROM instances
		WHERE name = ?
	`

	inst := &Instance{}
	var kind, attrs, computed string
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&inst.ID,
		&inst.Name,
		&kind,
		&attrs,
		&computed,
		&inst.Serial,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instance not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	inst.Kind = deli.Kind(kind)
	inst.Attrs = json.RawMessage(attrs)
	inst.Computed = json.RawMessage(computed)
	return inst, nil
}

// GetInstanceByID retrieves an instance by its provider identifier.
func (s *Store) GetInstanceByID(ctx context.Context, id string) (*Instance, error) {
	query := `
		SELECT id, name, kind, attrs, computed, serial, created_at, updated_at
		FROM instances
		WHERE id = ?
	`

	inst := &Instance{}
	var kind, attrs, computed string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inst.ID,
		&inst.Name,
		&kind,
		&attrs,
		&computed,
		&inst.Serial,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("instance not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	inst.Kind = deli.Kind(kind)
	inst.Attrs = json.RawMessage(attrs)
	inst.Computed = json.RawMessage(computed)
	return inst, nil
}

// HasInstance reports whether an instance with the logical name exists.
func (s *Store) HasInstance(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM instances WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check instance: %w", err)
	}
	return n > 0, nil
}

// ListInstances returns every stored instance, oldest first so that
// children created before their parents replay in dependency order.
func (s *Store) ListInstances(ctx context.Context) ([]Instance, error) {
	query := `
		SELECT id, name, kind, attrs, computed, serial, created_at, updated_at
		FROM instances
		ORDER BY created_at ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	instances := []Instance{}
	for rows.Next() {
		var inst Instance
		var kind, attrs, computed string
		err := rows.Scan(
			&inst.ID,
			&inst.Name,
			&kind,
			&attrs,
			&computed,
			&inst.Serial,
			&inst.CreatedAt,
			&inst.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		inst.Kind = deli.Kind(kind)
		inst.Attrs = json.RawMessage(attrs)
		inst.Computed = json.RawMessage(computed)
		instances = append(instances, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating instances: %w", err)
	}

	return instances, nil
}

// DeleteInstance removes an instance by its logical name.
func (s *Store) DeleteInstance(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete instance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("instance not found: %s", name)
	}
	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}
