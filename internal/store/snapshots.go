// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// LoadVenues returns the venue set saved for personID by the previous run.
// found is false when no snapshot exists.
func (s *Store) LoadVenues(ctx context.Context, personID string) ([]string, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT venues FROM venue_snapshots WHERE person_id = ?`, personID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying venue snapshot: %w", err)
	}

	var venues []string
	if err := json.Unmarshal([]byte(raw), &venues); err != nil {
		return nil, false, fmt.Errorf("decoding venue snapshot of %s: %w", personID, err)
	}
	return venues, true, nil
}

// SaveVenues overwrites the venue snapshot of personID.
func (s *Store) SaveVenues(ctx context.Context, personID, runID string, venues []string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return saveVenues(ctx, tx, personID, runID, venues, time.Now())
	})
}

func saveVenues(ctx context.Context, tx *sql.Tx, personID, runID string, venues []string, at time.Time) error {
	if venues == nil {
		venues = []string{}
	}
	raw, err := json.Marshal(venues)
	if err != nil {
		return fmt.Errorf("encoding venue snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO venue_snapshots (person_id, venues, run_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(person_id) DO UPDATE SET
			venues=excluded.venues, run_id=excluded.run_id, updated_at=excluded.updated_at`,
		personID, string(raw), runID, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("saving venue snapshot of %s: %w", personID, err)
	}
	return nil
}
