package database

import (
	"database/sql"
	"fmt"
	"time"

	"imagedupes/logging"
	"imagedupes/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the export database and empties it. The export
// describes the latest run only; nothing is read back on later runs.
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		fingerprint TEXT NOT NULL,
		created_at TEXT
	);
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path_a TEXT NOT NULL,
		path_b TEXT NOT NULL,
		distance INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprint ON images(fingerprint);
	CREATE INDEX IF NOT EXISTS idx_matches_path_a ON matches(path_a);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create schema in %s: %w", dbPath, err)
	}

	if _, err = db.Exec(`DELETE FROM matches; DELETE FROM images;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot clear previous export in %s: %w", dbPath, err)
	}

	logging.DebugLog("Initialized export database %s", dbPath)
	return db, nil
}

// StoreImages writes the registry contents in one transaction. The row id
// of each image is its registry index.
func StoreImages(db *sql.DB, images []types.FingerprintedImage) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO images (id, path, fingerprint, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("cannot prepare image insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Format(time.RFC3339)
	for i, img := range images {
		if _, err := stmt.Exec(i, string(img.Path), string(img.Fingerprint), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("cannot insert data for %s: %w", img.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit images: %w", err)
	}
	return nil
}

// StoreMatch records one similarity result
func StoreMatch(db *sql.DB, result types.SimilarityResult) error {
	_, err := db.Exec(`INSERT INTO matches (path_a, path_b, distance) VALUES (?, ?, ?)`,
		string(result.A), string(result.B), result.Distance)
	if err != nil {
		return fmt.Errorf("cannot insert match %s | %s: %w", result.A, result.B, err)
	}
	return nil
}

// MatchSink adapts the database to reporter.Sink
type MatchSink struct {
	db *sql.DB
}

// NewMatchSink creates a sink that stores every reported result
func NewMatchSink(db *sql.DB) *MatchSink {
	return &MatchSink{db: db}
}

// Report stores r
func (s *MatchSink) Report(r types.SimilarityResult) error {
	return StoreMatch(s.db, r)
}

// ScanStats contains statistics from an exported run
type ScanStats struct {
	TotalImages        int
	UniqueFingerprints int
	MatchCount         int
}

// GetScanStats retrieves statistics about the exported run
func GetScanStats(db *sql.DB) (*ScanStats, error) {
	var stats ScanStats

	err := db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT fingerprint) FROM images").
		Scan(&stats.TotalImages, &stats.UniqueFingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to get image counts: %w", err)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&stats.MatchCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get match count: %w", err)
	}

	return &stats, nil
}
