package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema mirrors the legacy stox.db layout: one table per series kind.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS equities (
	ticker TEXT NOT NULL,
	market TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL,
	high   REAL,
	low    REAL,
	close  REAL,
	volume REAL,
	PRIMARY KEY (ticker, market, date)
);
CREATE TABLE IF NOT EXISTS indices (
	ticker TEXT NOT NULL,
	market TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL,
	high   REAL,
	low    REAL,
	close  REAL,
	volume REAL,
	PRIMARY KEY (ticker, market, date)
);
`

// OpenSQLite opens (creating if needed) a sqlite bar store
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return db, nil
}
