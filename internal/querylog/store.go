// Package querylog provides an append-only diagnostic audit trail of
// completed resolutions: what was queried, which backend answered, the
// result code and how long it took. It is a troubleshooting aid, not a
// resolution cache — nothing here is ever consulted to short-circuit a
// query.
package querylog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is an append-only SQLite-backed query log.
type Store struct {
	conn *sql.DB
}

// Entry records the outcome of a single completed resolution.
type Entry struct {
	QueriedAt time.Time
	Name      string
	RRType    string
	Backend   string
	RCode     string
	Answers   int
	Latency   time.Duration
	Err       error
}

// Open opens or creates a SQLite-backed query log at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open query log: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn}

	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate query log: %w", err)
	}

	return s, nil
}

func (s *Store) runMigrations() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(s.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("up: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record appends one entry to the log. Callers should not block a
// resolution on this — it is diagnostic, not load-bearing.
func (s *Store) Record(ctx context.Context, e Entry) error {
	errStr := ""
	if e.Err != nil {
		errStr = e.Err.Error()
	}
	queriedAt := e.QueriedAt
	if queriedAt.IsZero() {
		queriedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO query_log (queried_at, name, rr_type, backend, rcode, answers, latency_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		queriedAt, e.Name, e.RRType, e.Backend, e.RCode, e.Answers, e.Latency.Milliseconds(), nullString(errStr),
	)
	if err != nil {
		return fmt.Errorf("record query log entry: %w", err)
	}
	return nil
}

// Recent returns the most recent n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT queried_at, name, rr_type, backend, rcode, answers, latency_ms, COALESCE(error, '')
		 FROM query_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var latencyMs int64
		var errStr string
		if err := rows.Scan(&e.QueriedAt, &e.Name, &e.RRType, &e.Backend, &e.RCode, &e.Answers, &latencyMs, &errStr); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		e.Latency = time.Duration(latencyMs) * time.Millisecond
		if errStr != "" {
			e.Err = fmt.Errorf("%s", errStr)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
