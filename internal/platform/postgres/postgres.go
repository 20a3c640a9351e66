package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to the registry mirror and verifies the connection. The
// schema is owned externally; no tables are created here.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping registry database: %w", err)
	}
	return db, nil
}
