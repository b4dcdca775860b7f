package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open initializes and returns a read-only connection pool for the catalog
// database file. The catalog is written exclusively by the offline
// data-preparation scripts, so the service never needs write access.
//
// mode=ro also stops the driver from creating an empty database file as a
// side effect when the path does not exist yet.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// The file may legitimately not exist yet (the indexer scripts build it
	// out of band). In that case we keep the pool and let each catalog query
	// report the store as unavailable until the file shows up.
	if _, statErr := os.Stat(path); statErr != nil {
		log.Printf("WARNING: catalog database not found at %s. Product browsing will fail until it exists.", path)
		return db, nil
	}

	if err := db.Ping(); err != nil {
		log.Printf("Error connecting to catalog database at %s: %v", path, err)
		return nil, err
	}

	log.Println("Catalog database connection pool established successfully")
	return db, nil
}
