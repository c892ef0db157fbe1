package sink

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stairlog/agent/internal/fault"
)

//go:embed schema.sql
var schemaSQL string

// SQLite stores every destination in one samples table keyed by the
// destination and tagged with the recording run.
type SQLite struct {
	db     *sql.DB
	insert statement
}

// statement is the part of *sql.Stmt the sink uses.
type statement interface {
	Exec(args ...any) (sql.Result, error)
	Close() error
}

// OpenSQLite creates or opens the database at path, creating its parent
// directory if needed.
//
// The database is configured with WAL journaling and NORMAL synchronous mode
// so a 50 Hz insert rate does not fsync on every row.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	insert, err := db.Prepare(`
		INSERT INTO samples (destination, run_id, ts, x, y, z, label)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &SQLite{db: db, insert: insert}, nil
}

// Append inserts one row.
func (s *SQLite) Append(dest Destination, smp Sample) error {
	_, err := s.insert.Exec(
		dest.Key(),
		smp.RunID,
		smp.Time.Format(TimestampLayout),
		float64(smp.X), float64(smp.Y), float64(smp.Z),
		smp.Label.String(),
	)
	return fault.New(fault.SinkWrite, "insert "+dest.Key(), err)
}

// Count returns the number of rows stored for dest.
func (s *SQLite) Count(dest Destination) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE destination = ?`, dest.Key()).Scan(&n)
	return n, err
}

// Close releases the statement and the database. Errors from both are
// reported. Closing twice is a no-op.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := errors.Join(s.insert.Close(), s.db.Close())
	s.db = nil
	return err
}
