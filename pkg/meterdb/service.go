// MeterDB stores what the simulated device would keep in flash:
// notification history, settings and periodic channel samples.
package meterdb

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/NotCoffee418/dbmigrator"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	// One writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	// Apply migrations
	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}
