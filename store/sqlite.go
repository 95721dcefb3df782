package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens (creating if needed) the database at path and brings its
// schema up to date.
func NewSQLite(path string) (*SQLite, error) {
	if err := migrateUp(path); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One writer; sqlite serialises anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SQLite{db: db}, nil
}

// migrateUp runs on its own connection because closing the migrator closes
// the database it was given.
func migrateUp(path string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
	if err != nil {
		_ = conn.Close()
		return err
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		_ = conn.Close()
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.GetContext(ctx, &v, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys in order.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.SelectContext(ctx, &keys, `SELECT key FROM kv ORDER BY key`); err != nil {
		return nil, fmt.Errorf("sqlite keys: %w", err)
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
