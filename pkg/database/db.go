package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is ONSPOP_HISTORY_DB, or ~/.onspop/history.db when unset.
func DefaultPath() string {
	if p := os.Getenv("ONSPOP_HISTORY_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".onspop", "history.db")
}

// Open opens the run ledger at path, creating its directory, and applies
// the schema. Writes wait up to five seconds for a concurrent writer.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	dsn := "file:" + filepath.ToSlash(path) + "?" + url.Values{"_busy_timeout": {"5000"}}.Encode()
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// one writer per run; a single connection keeps inserts serialized
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history %s: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
