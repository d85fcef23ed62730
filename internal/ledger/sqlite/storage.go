// Package sqlite implements the sync ledger on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/journalsync/internal/ledger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage is the SQLite ledger.
type Storage struct {
	db *sql.DB
}

var _ ledger.Ledger = (*Storage)(nil)

// New opens the database at dbPath and applies migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Одно соединение: все изменения идут через единственного писателя,
	// а in-memory база остается той же базой
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Включаем WAL mode и другие оптимизации
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	storage := &Storage{db: db}

	// Запускаем миграции
	if err := storage.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

// DB returns the underlying database connection for testing purposes.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// withTx runs fn in a transaction and commits when it returns nil.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
