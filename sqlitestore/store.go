// Package sqlitestore provides a SQLite-backed guardar.Backend.
package sqlitestore

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS guardar_items (
	item_key   TEXT PRIMARY KEY,
	item_value TEXT NOT NULL
)`

// Store persists backend entries in one SQLite table.
type Store struct {
	sqlDB *sql.DB
}

// Open opens or creates the database at path and ensures the table exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlitestore: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlitestore: open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "sqlitestore: ping sqlite db")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "sqlitestore: create schema")
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := s.ready(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT item_value FROM guardar_items WHERE item_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "sqlitestore: get item")
	}
	return value, true, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO guardar_items (item_key, item_value) VALUES (?, ?)
		 ON CONFLICT(item_key) DO UPDATE SET item_value = excluded.item_value`,
		key, value,
	)
	if err != nil {
		return errors.Wrap(err, "sqlitestore: set item")
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM guardar_items WHERE item_key = ?`, key); err != nil {
		return errors.Wrap(err, "sqlitestore: remove item")
	}
	return nil
}

// CompareAndSwap updates the row only while it still holds oldValue. It is
// atomic across every process sharing the database file.
func (s *Store) CompareAndSwap(ctx context.Context, key, oldValue, newValue string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE guardar_items SET item_value = ? WHERE item_key = ? AND item_value = ?`,
		newValue, key, oldValue,
	)
	if err != nil {
		return false, errors.Wrap(err, "sqlitestore: compare and swap")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "sqlitestore: compare and swap")
	}
	return n == 1, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("sqlitestore: storage is not configured")
	}
	return nil
}
