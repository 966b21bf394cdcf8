package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/dshills/sessionkit/internal/project/search"
	"github.com/dshills/sessionkit/internal/session"
)

// DefaultSnapshotName is the snapshot slot used when none is given.
const DefaultSnapshotName = "default"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS session_index (
	path        TEXT PRIMARY KEY,
	open_count  INTEGER NOT NULL,
	last_opened INTEGER NOT NULL
);
`

// Store is a SQLite-backed session store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// One connection keeps pragmas and transactions on the same handle.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		schema,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init store: %w", err)
		}
	}

	logger.Debug("store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores snap under name, replacing any previous snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, name string, snap session.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(data), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	s.logger.Debug("snapshot saved", zap.String("name", name), zap.Int("tabs", len(snap.OpenPaths)))
	return nil
}

// LoadSnapshot returns the snapshot stored under name. The boolean is false
// when there is none.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (session.Snapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, false, nil
	}
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	snap, err := DecodeSnapshot([]byte(data))
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return snap, true, nil
}

// SaveIndex replaces the stored session index with entries.
func (s *Store) SaveIndex(ctx context.Context, entries []search.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_index"); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO session_index (path, open_count, last_opened) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Path, e.Count, e.LastOpened.UnixNano()); err != nil {
			return fmt.Errorf("save index %s: %w", e.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	s.logger.Debug("index saved", zap.Int("entries", len(entries)))
	return nil
}

// LoadIndex returns the stored session index, most recently opened first.
func (s *Store) LoadIndex(ctx context.Context) ([]search.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, open_count, last_opened FROM session_index ORDER BY last_opened DESC, path ASC")
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	defer rows.Close()

	var entries []search.IndexEntry
	for rows.Next() {
		var (
			e    search.IndexEntry
			nano int64
		)
		if err := rows.Scan(&e.Path, &e.Count, &nano); err != nil {
			return nil, fmt.Errorf("load index: %w", err)
		}
		e.LastOpened = time.Unix(0, nano)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
