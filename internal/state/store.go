// Package state tracks which instance spuff currently considers "active" —
// the one `up` most recently created and `ssh`/`tunnel`/`down` act on by
// default. Grounded on original_source/src/state.rs.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spuff/internal/config"
)

// Instance is one provisioned environment, as recorded at the moment it
// came up.
type Instance struct {
	ID        string
	Name      string
	IP        string
	Provider  string
	Region    string
	Size      string
	CreatedAt time.Time
}

// Store is the sqlite-backed instance ledger at ~/.config/spuff/state.db.
type Store struct {
	db *sql.DB
}

func dbPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// Open opens (creating if necessary) the state database and runs its
// migration.
func Open() (*Store, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt opens the state database at an explicit path, mainly for tests.
func OpenAt(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ip TEXT NOT NULL,
			provider TEXT NOT NULL,
			region TEXT NOT NULL,
			size TEXT NOT NULL,
			created_at TEXT NOT NULL,
			active INTEGER DEFAULT 1
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate state database: %w", err)
		}
	}
	return nil
}

// SaveInstance records instance as the sole active one, demoting any
// previously active instance (kept in history, not deleted).
func (s *Store) SaveInstance(ctx context.Context, instance Instance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE instances SET active = 0`); err != nil {
		return fmt.Errorf("failed to deactivate existing instances: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO instances (id, name, ip, provider, region, size, created_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		instance.ID, instance.Name, instance.IP, instance.Provider, instance.Region, instance.Size,
		instance.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	return tx.Commit()
}

// GetActiveInstance returns the currently active instance, or ok=false if
// none is recorded.
func (s *Store) GetActiveInstance(ctx context.Context) (Instance, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, ip, provider, region, size, created_at
		FROM instances
		WHERE active = 1
		LIMIT 1`)

	var inst Instance
	var createdAt string
	err := row.Scan(&inst.ID, &inst.Name, &inst.IP, &inst.Provider, &inst.Region, &inst.Size, &createdAt)
	if err == sql.ErrNoRows {
		return Instance{}, false, nil
	}
	if err != nil {
		return Instance{}, false, fmt.Errorf("failed to query active instance: %w", err)
	}

	inst.CreatedAt = parseCreatedAt(createdAt)
	return inst, true, nil
}

// RemoveInstance deletes an instance by ID from the ledger entirely.
func (s *Store) RemoveInstance(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove instance: %w", err)
	}
	return nil
}

// ListInstances returns every recorded instance, most recently created
// first.
func (s *Store) ListInstances(ctx context.Context) ([]Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ip, provider, region, size, created_at
		FROM instances
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var out []Instance
	for rows.Next() {
		var inst Instance
		var createdAt string
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.IP, &inst.Provider, &inst.Region, &inst.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan instance row: %w", err)
		}
		inst.CreatedAt = parseCreatedAt(createdAt)
		out = append(out, inst)
	}
	return out, rows.Err()
}

// UpdateInstanceIP updates the recorded IP of an instance, for when a
// provider reassigns one after boot.
func (s *Store) UpdateInstanceIP(ctx context.Context, id, ip string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE instances SET ip = ? WHERE id = ?`, ip, id); err != nil {
		return fmt.Errorf("failed to update instance IP: %w", err)
	}
	return nil
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}
