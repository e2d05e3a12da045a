package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	ioutils "github.com/handiism/feed-downloader/internal/io"
	"github.com/handiism/feed-downloader/internal/model"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const createDownloadsTable = `
CREATE TABLE IF NOT EXISTS downloads (
	position INTEGER NOT NULL,
	url      TEXT    NOT NULL,
	title    TEXT    NOT NULL,
	PRIMARY KEY (url, title)
)`

// SQLiteStore keeps progress in a SQLite database.
//
// Save replaces the table inside a single transaction, so readers on another
// connection see either the previous or the new set.
type SQLiteStore struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore creates a store backed by the database at path. The database
// is opened lazily on first use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	if err := ioutils.EnsureDir(filepath.Dir(s.path)); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, createDownloadsTable); err != nil {
		db.Close()
		return nil, s.classify(fmt.Errorf("failed to create downloads table: %w", err))
	}

	s.db = db
	return db, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (*Set, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT url, title FROM downloads ORDER BY position`)
	if err != nil {
		return nil, s.classify(fmt.Errorf("query downloads: %w", err))
	}
	defer rows.Close()

	set := NewSet()
	for rows.Next() {
		var item model.MediaItem
		if err := rows.Scan(&item.URL, &item.Title); err != nil {
			return nil, &CorruptStateError{Path: s.path, Err: err}
		}
		set.Add(item)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify(err)
	}
	return set, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, items *Set) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM downloads`); err != nil {
		return fmt.Errorf("clear downloads: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO downloads (position, url, title) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items.Items() {
		if _, err := stmt.ExecContext(ctx, i, item.URL, item.Title); err != nil {
			return fmt.Errorf("insert %s: %w", item, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit progress: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// classify turns "not a database" and corruption errors into CorruptStateError.
func (s *SQLiteStore) classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return &CorruptStateError{Path: s.path, Err: err}
		}
	}
	// Connection pragmas can fail before a typed error is available.
	if strings.Contains(err.Error(), "file is not a database") {
		return &CorruptStateError{Path: s.path, Err: err}
	}
	return err
}
