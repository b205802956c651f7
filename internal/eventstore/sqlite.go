package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/assetbuilder/internal/events"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the history database.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bundle_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		build_id TEXT NOT NULL,
		bundle TEXT NOT NULL,
		status TEXT NOT NULL,
		output TEXT,
		url TEXT,
		hash TEXT,
		sources INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bundle_events_build_id ON bundle_events(build_id);
	CREATE INDEX IF NOT EXISTS idx_bundle_events_bundle ON bundle_events(bundle, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Publish records the event.
func (s *SQLiteStore) Publish(ctx context.Context, ev events.BundleEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Type == "" {
		ev.Type = events.TypeBundleBuilt
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bundle_events (event_type, build_id, bundle, status, output, url, hash, sources, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Type, ev.BuildID, ev.Bundle, ev.Status, ev.Output, ev.URL, ev.Hash, ev.Sources, ev.DurationMS, ts.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const selectColumns = "SELECT id, event_type, build_id, bundle, status, output, url, hash, sources, duration_ms, timestamp FROM bundle_events"

// Recent returns the newest records first.
func (s *SQLiteStore) Recent(ctx context.Context, bundle string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query := selectColumns + " WHERE (? = '' OR bundle = ?) ORDER BY id DESC LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, bundle, bundle, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByBuildID returns the records of one build.
func (s *SQLiteStore) ByBuildID(ctx context.Context, buildID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE build_id = ? ORDER BY id", buildID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var output, url, hash sql.NullString
		var ts int64
		if err := rows.Scan(&r.ID, &r.Type, &r.BuildID, &r.Bundle, &r.Status,
			&output, &url, &hash, &r.Sources, &r.DurationMS, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Output, r.URL, r.Hash = output.String, url.String, hash.String
		r.Timestamp = time.Unix(0, ts)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
