package repositories

import (
	"database/sql"
	"fmt"

	"turn-guidance-service/internal/platform/db"
	"turn-guidance-service/internal/ports"
)

// Stores groups the persistence adapters of one database.
type Stores struct {
	Resume ports.ResumeStore
	Trace  ports.TraceStore
}

// NewStores picks the adapter flavour for driver ("sqlite" or "pgx").
// The SQLite schema is created on the spot; Postgres is prepared by dbtool.
func NewStores(driver string, conn *sql.DB) (Stores, error) {
	switch driver {
	case db.DriverSQLite:
		if err := InitSchema(conn); err != nil {
			return Stores{}, fmt.Errorf("new stores: %w", err)
		}
		return Stores{Resume: NewSqliteResumeStore(conn), Trace: NewSqliteTraceStore(conn)}, nil
	case db.DriverPostgres:
		return Stores{Resume: NewSQLResumeStore(conn), Trace: NewSQLTraceStore(conn)}, nil
	default:
		return Stores{}, fmt.Errorf("new stores: unknown driver %q", driver)
	}
}
