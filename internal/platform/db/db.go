package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Driver names understood by Open. They match the database/sql driver names
// registered by pgx and modernc sqlite.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Open connects to the session store. dsn is a Postgres URL for DriverPostgres
// and a file path for DriverSQLite; the file's directory is created if missing.
func Open(driver, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("openDB: empty dsn for driver %q", driver)
	}

	switch driver {
	case DriverPostgres:
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("openDB: create directory for %q: %w", dsn, err)
			}
		}
	default:
		return nil, fmt.Errorf("openDB: unknown driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("openDB: open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps ":memory:" on a single database
		db.SetMaxOpenConns(1)
	} else {
		// checkpoints and trace batches come from one persistence worker
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: verify %s connection: %w", driver, err)
	}

	return db, nil
}
