// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunTotals are the counts recorded when a run finishes.
type RunTotals struct {
	Records int `json:"records" yaml:"records"`
	Persons int `json:"persons" yaml:"persons"`
	Dropped int `json:"dropped" yaml:"dropped"`
	Rows    int `json:"rows" yaml:"rows"`
}

// Run is one row of the run log.
type Run struct {
	RunID         string    `json:"run_id" yaml:"run_id"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status        string    `json:"status" yaml:"status"`
	ConfigVersion string    `json:"config_version" yaml:"config_version"`
	RunTotals     `yaml:",inline"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BeginRun records a run as running.
func (s *Store) BeginRun(ctx context.Context, runID, configVersion string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, status, config_version) VALUES (?, ?, ?, ?)`,
		runID, formatTime(startedAt), RunRunning, configVersion,
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. runErr nil means success.
func (s *Store) FinishRun(ctx context.Context, runID string, totals RunTotals, runErr error, finishedAt time.Time) error {
	status, msg := RunSucceeded, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, records = ?, persons = ?, dropped = ?, row_count = ?, error = ?
		 WHERE run_id = ?`,
		formatTime(finishedAt), status, totals.Records, totals.Persons, totals.Dropped, totals.Rows, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recording run finish: unknown run %s", runID)
	}
	return nil
}

// Runs lists the most recent runs first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, started_at, finished_at, status, config_version, records, persons, dropped, row_count, error
		FROM runs ORDER BY started_at DESC, run_id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished sql.NullString
			version, errMsg   sql.NullString
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Status, &version,
			&r.Records, &r.Persons, &r.Dropped, &r.Rows, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.ConfigVersion = version.String
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}
