package db

import (
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	conn, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	if got := conn.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("max open connections = %d, want 1", got)
	}
}

func TestOpenRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
	}{
		{name: "empty dsn", driver: DriverPostgres, dsn: " "},
		{name: "unknown driver", driver: "mysql", dsn: "user@/db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.driver, tt.dsn); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
