package main

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// openDB connects and verifies the connection. The schema itself is created
// out-of-band; see schema.sql for the reference DDL.
func openDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
