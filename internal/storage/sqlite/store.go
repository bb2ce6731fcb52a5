// Package sqlite is the relational realization of the storage contract,
// backed by modernc.org/sqlite with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"expenseintel/internal/storage"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, runs migrations and returns a
// ready Store. The handle is owned by the caller; nothing here is global.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := "file:" + url.PathEscape(dbPath) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Opened SQLite store", "path", dbPath)
	return &Store{db: db}, nil
}

func (s *Store) Expenses() storage.ExpenseRepository    { return &expenseRepo{db: s.db} }
func (s *Store) Users() storage.UserRepository          { return &userRepo{db: s.db} }
func (s *Store) Pots() storage.PotRepository            { return &potRepo{db: s.db} }
func (s *Store) Categories() storage.CategoryRepository { return &categoryRepo{db: s.db} }

func (s *Store) Close(ctx context.Context) error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
