package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const collectionsSchema = `CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL
)`

// SQLStore keeps every collection as one row of the collections table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens driver ("sqlite" or "postgres") at dsn and ensures the schema.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver == "sqlite" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sql store: %w", err)
			}
		}
	}
	conn, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql store: connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite allows a single writer
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.ExecContext(ctx, collectionsSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sql store: schema: %w", err)
	}
	return &SQLStore{db: conn}, nil
}

func (s *SQLStore) ReadCollection(ctx context.Context, name string, out any) error {
	var body string
	err := s.db.GetContext(ctx, &body, s.db.Rebind(`SELECT body FROM collections WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return fmt.Errorf("sql store: select %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("sql store: decode %s: %w", name, err)
	}
	return nil
}

func (s *SQLStore) WriteCollection(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sql store: encode %s: %w", name, err)
	}
	query := s.db.Rebind(`INSERT INTO collections (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body`)
	if _, err := s.db.ExecContext(ctx, query, name, string(body)); err != nil {
		return fmt.Errorf("sql store: upsert %s: %w", name, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
