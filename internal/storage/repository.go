// Package storage is the durable local store: a single SQLite table of
// keyed text values. One fixed key holds the encoded ledger, the others hold
// plain settings.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Fixed keys in app_state.
const (
	KeyLedger   = "ledger"
	KeyCloudURL = "cloud_url"
	KeyShowPet  = "show_pet"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema brings app_state up to date from the embedded scripts. It
// opens its own short-lived connection; golang-migrate owns and closes the
// handle it is given, and the repository handle must outlive it.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open for migration: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("load migration scripts: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadState returns the encoded ledger payload, or "" when none has been
// written yet.
func (r *SQLiteRepository) LoadState(ctx context.Context) (string, error) {
	return r.get(ctx, KeyLedger)
}

// SaveState upserts the encoded ledger payload under the fixed ledger key.
func (r *SQLiteRepository) SaveState(ctx context.Context, payload string) error {
	if err := r.set(ctx, KeyLedger, payload); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	slog.DebugContext(ctx, "Ledger state saved", "bytes", len(payload))
	return nil
}

// GetSetting returns the value for a settings key, or "" when absent.
func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	return r.get(ctx, key)
}

// SetSetting upserts a settings value.
func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	if err := r.set(ctx, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO app_state (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value)
	return err
}
