// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	moderncsqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// maxCodeAttempts bounds the search for an unused group code.
const maxCodeAttempts = 10

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	newCode func() int
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithCodeGenerator replaces the random group code generator.
func WithCodeGenerator(gen func() int) Option {
	return func(s *SQLiteStore) {
		s.newCode = gen
	}
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := Migrate(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, newCode: randomCode}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dsn enables foreign keys on every pooled connection, waits on a locked
// database instead of failing, and takes the write lock when a transaction
// begins so read-then-write transactions cannot deadlock.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

func ensureDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func randomCode() int {
	return models.MinGroupCode + rand.IntN(models.MaxGroupCode-models.MinGroupCode+1)
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// checkVersion verifies the group exists and, if expected is non-zero, that
// its ledger version still matches.
func checkVersion(ctx context.Context, tx *sql.Tx, groupID string, expected int64) (int64, error) {
	var current int64
	err := tx.QueryRowContext(ctx,
		"SELECT ledger_version FROM groups WHERE id = ?", groupID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrGroupNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger version: %w", err)
	}
	if expected != 0 && expected != current {
		return 0, fmt.Errorf("%w: expected version %d, current %d", storage.ErrStaleLedger, expected, current)
	}
	return current, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
