// Package sqlite provides the SQLite connection factory and migrations
// for the membridge audit store. Uses modernc.org/sqlite — a pure-Go
// driver, no CGO required.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// NewDB opens (or creates) a SQLite database at path, configured for a
// single-writer audit workload:
//   - WAL journal mode (readers don't block the audit writer)
//   - busy timeout so bursts of events don't surface SQLITE_BUSY
//   - synchronous=NORMAL (safe with WAL, faster than FULL)
//
// Use ":memory:" for an ephemeral store (the default) and in tests.
// The parent directory must already exist for file-backed paths.
func NewDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	// The audit writer is a single goroutine; one writer plus a few
	// readers is all this store ever sees. An in-memory database is
	// private to its connection, so the pool must stay at exactly one
	// or migrations and inserts would land in different databases.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}

	return db, nil
}
