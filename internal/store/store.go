// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists cross-run state in SQLite: the per-Person venue
// snapshots used for novelty detection, the append-only watchlist decision
// history, the persons seen, and the run log.
//
// One run at a time may use a cache directory. Concurrent runs against the
// same talent.db are not guarded beyond SQLite's own locking.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/talent-engine/pkg/types"
)

const dbFile = "talent.db"

// Store manages the talent database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates cacheDir/talent.db and its schema.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("store: cache directory not set")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CacheDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer keeps WAL contention out of the picture.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dir: cfg.CacheDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			config_version TEXT,
			records INTEGER DEFAULT 0,
			persons INTEGER DEFAULT 0,
			dropped INTEGER DEFAULT 0,
			row_count INTEGER DEFAULT 0,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS persons (
			person_id TEXT PRIMARY KEY,
			identity_key TEXT NOT NULL,
			full_name TEXT,
			primary_affiliation TEXT,
			first_seen TEXT,
			last_seen TEXT,
			last_run_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS venue_snapshots (
			person_id TEXT PRIMARY KEY,
			venues TEXT NOT NULL,
			run_id TEXT,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			person_id TEXT NOT NULL,
			monitoring_tier INTEGER NOT NULL,
			promote_flag INTEGER NOT NULL,
			composite_score REAL NOT NULL,
			rationale TEXT,
			config_version TEXT,
			tier_change TEXT,
			previous_tier INTEGER,
			next_review_at TEXT,
			decided_at TEXT NOT NULL,
			envelope TEXT NOT NULL,
			UNIQUE (run_id, person_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_person ON decisions(person_id, decided_at)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_tier ON decisions(monitoring_tier)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// UpsertPersons records the persons resolved in a run. first_seen only
// moves earlier and last_seen only moves later.
func (s *Store) UpsertPersons(ctx context.Context, runID string, persons []*types.Person) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertPersons(ctx, tx, runID, persons)
	})
}

func upsertPersons(ctx context.Context, tx *sql.Tx, runID string, persons []*types.Person) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO persons (person_id, identity_key, full_name, primary_affiliation, first_seen, last_seen, last_run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(person_id) DO UPDATE SET
			full_name = CASE WHEN persons.full_name = '' OR persons.full_name IS NULL THEN excluded.full_name ELSE persons.full_name END,
			primary_affiliation = CASE WHEN persons.primary_affiliation = '' OR persons.primary_affiliation IS NULL THEN excluded.primary_affiliation ELSE persons.primary_affiliation END,
			first_seen = CASE WHEN excluded.first_seen <> '' AND (persons.first_seen = '' OR excluded.first_seen < persons.first_seen) THEN excluded.first_seen ELSE persons.first_seen END,
			last_seen = CASE WHEN excluded.last_seen > persons.last_seen THEN excluded.last_seen ELSE persons.last_seen END,
			last_run_id = excluded.last_run_id`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range persons {
		if _, err := stmt.ExecContext(ctx,
			p.PersonID, p.IdentityKey, p.FullName, p.PrimaryAffiliation,
			formatTime(p.FirstSeen), formatTime(p.LastSeen), runID,
		); err != nil {
			return fmt.Errorf("upserting person %s: %w", p.PersonID, err)
		}
	}
	return nil
}

// withTx runs fn in one transaction and commits when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// PersonName returns the stored full name of personID, or "" if unknown.
func (s *Store) PersonName(ctx context.Context, personID string) (string, error) {
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT full_name FROM persons WHERE person_id = ?`, personID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying person: %w", err)
	}
	return name.String, nil
}

// Stored times are UTC RFC3339Nano text so that string order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
