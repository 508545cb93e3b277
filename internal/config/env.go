package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetInt is Get for integer values. Unparsable values fall back with a log line.
func GetInt(key string, fallback int) int {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid integer key=%s value=%q, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

// Database returns the session store driver and its DSN: DATABASE_URL for
// pgx, DB_PATH for sqlite.
func Database() (driver, dsn string) {
	driver = Get("DB_DRIVER", "sqlite")
	if driver == "pgx" {
		return driver, Get("DATABASE_URL", "")
	}
	return driver, Get("DB_PATH", "data/app.db")
}
