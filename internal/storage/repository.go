// Package storage persists the ledger state blob in SQLite. The core
// only requires "load a state blob" / "save a state blob"; the blob is
// opaque here and keyed by a versioned snapshot key.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load returns the stored blob for the given key. ok is false when no
// snapshot has been saved yet; that is not an error.
func (r *SnapshotRepository) Load(ctx context.Context, key string) (data []byte, ok bool, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE key = ?`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Save upserts the blob for the given key.
func (r *SnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Snapshot saved", "key", key, "bytes", len(data))
	return nil
}

// LastSavedAt returns when the snapshot for the given key was last
// written, ok false when it never was.
func (r *SnapshotRepository) LastSavedAt(ctx context.Context, key string) (t time.Time, ok bool, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT updated_at FROM snapshots WHERE key = ?`, key)
	if err := row.Scan(&t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("snapshot age %s: %w", key, err)
	}
	return t, true, nil
}
