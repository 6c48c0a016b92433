package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/DeafMist/newsdesk/internal/models"
	"github.com/DeafMist/newsdesk/internal/newserr"
)

// SQLite keeps one row per cache key.
type SQLite struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, opts: buildOptions(opts)}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key       TEXT PRIMARY KEY,
			stored_at REAL NOT NULL,
			data      TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (models.NewsResult, bool, error) {
	var (
		storedAt float64
		data     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT stored_at, data FROM cache_entries WHERE key = ?`, key,
	).Scan(&storedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewsResult{}, false, nil
	}
	if err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", err)
	}

	entry := Entry{Timestamp: storedAt}
	if err := json.Unmarshal([]byte(data), &entry.Data); err != nil {
		return models.NewsResult{}, false, newserr.Cache("read", fmt.Errorf("decode %s: %w", key, err))
	}
	if !entry.fresh(s.opts.now(), s.opts.ttl) {
		s.opts.log.Debug("cache expired", slog.String("key", key))
		return models.NewsResult{}, false, nil
	}
	return entry.Data, true, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, key string, value models.NewsResult) error {
	entry := newEntry(s.opts.now(), value)
	payload, err := json.Marshal(entry.Data)
	if err != nil {
		return newserr.Cache("write", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, stored_at, data) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET stored_at = excluded.stored_at, data = excluded.data
	`, key, entry.Timestamp, string(payload))
	if err != nil {
		return newserr.Cache("write", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
