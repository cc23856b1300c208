// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// AppendDecisions stores the decisions of one run. Decisions are never
// updated: a second decision for the same run and person is an error, and
// later runs add rows instead of replacing earlier ones.
func (s *Store) AppendDecisions(ctx context.Context, decisions []types.WatchlistDecision) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return appendDecisions(ctx, tx, decisions)
	})
}

func appendDecisions(ctx context.Context, tx *sql.Tx, decisions []types.WatchlistDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (run_id, person_id, monitoring_tier, promote_flag, composite_score,
			rationale, config_version, tier_change, previous_tier, next_review_at, decided_at, envelope)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range decisions {
		envelope, err := json.Marshal(d.EvidenceEnvelope)
		if err != nil {
			return fmt.Errorf("encoding envelope of %s: %w", d.PersonID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			d.RunID, d.PersonID, int(d.MonitoringTier), d.PromoteFlag, d.CompositeScore,
			d.Rationale, d.ConfigVersion, string(d.TierChange), int(d.PreviousTier),
			formatTime(d.NextReviewAt), formatTime(d.DecidedAt), string(envelope),
		); err != nil {
			return fmt.Errorf("inserting decision %s/%s: %w", d.RunID, d.PersonID, err)
		}
	}
	return nil
}

// LatestDecision returns the most recent decision stored for personID.
// found is false when the Person has none.
func (s *Store) LatestDecision(ctx context.Context, personID string) (types.WatchlistDecision, bool, error) {
	ds, err := s.History(ctx, HistoryOptions{PersonID: personID, Newest: true, Limit: 1})
	if err != nil {
		return types.WatchlistDecision{}, false, err
	}
	if len(ds) == 0 {
		return types.WatchlistDecision{}, false, nil
	}
	return ds[0], true, nil
}

// LatestDecisions returns the most recent decision of each listed person,
// keyed by person id. Persons with no history are absent from the map.
func (s *Store) LatestDecisions(ctx context.Context, personIDs []string) (map[string]types.WatchlistDecision, error) {
	out := make(map[string]types.WatchlistDecision, len(personIDs))
	for _, id := range personIDs {
		d, ok, err := s.LatestDecision(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = d
		}
	}
	return out, nil
}

// HistoryOptions filters decision history queries.
type HistoryOptions struct {
	// PersonID restricts the history to one Person.
	PersonID string

	// RunID restricts the history to one run.
	RunID string

	// Tier restricts to one monitoring tier (zero means any).
	Tier types.Tier

	// Since drops decisions made before this time.
	Since time.Time

	// Newest orders most recent first; the default is oldest first.
	Newest bool

	// Limit caps the result count. Zero means no limit.
	Limit int
}

// History returns stored decisions matching opts in decision order.
func (s *Store) History(ctx context.Context, opts HistoryOptions) ([]types.WatchlistDecision, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT run_id, person_id, monitoring_tier, promote_flag, composite_score,
			rationale, config_version, tier_change, previous_tier, next_review_at, decided_at, envelope
		FROM decisions WHERE 1=1`)

	if opts.PersonID != "" {
		qb.WriteString(` AND person_id = ?`)
		args = append(args, opts.PersonID)
	}
	if opts.RunID != "" {
		qb.WriteString(` AND run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.Tier != 0 {
		qb.WriteString(` AND monitoring_tier = ?`)
		args = append(args, int(opts.Tier))
	}
	if !opts.Since.IsZero() {
		qb.WriteString(` AND decided_at >= ?`)
		args = append(args, formatTime(opts.Since))
	}

	if opts.Newest {
		qb.WriteString(` ORDER BY decided_at DESC, rowid DESC`)
	} else {
		qb.WriteString(` ORDER BY decided_at, rowid`)
	}
	if opts.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var out []types.WatchlistDecision
	for rows.Next() {
		var (
			d          types.WatchlistDecision
			tier, prev int
			rationale  sql.NullString
			version    sql.NullString
			change     sql.NullString
			nextReview sql.NullString
			decidedAt  sql.NullString
			envelope   string
		)
		if err := rows.Scan(
			&d.RunID, &d.PersonID, &tier, &d.PromoteFlag, &d.CompositeScore,
			&rationale, &version, &change, &prev, &nextReview, &decidedAt, &envelope,
		); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}
		d.MonitoringTier = types.Tier(tier)
		d.PreviousTier = types.Tier(prev)
		d.Rationale = rationale.String
		d.ConfigVersion = version.String
		d.TierChange = types.TierChange(change.String)
		d.NextReviewAt = parseTime(nextReview)
		d.DecidedAt = parseTime(decidedAt)
		if err := json.Unmarshal([]byte(envelope), &d.EvidenceEnvelope); err != nil {
			return nil, fmt.Errorf("decoding envelope of %s/%s: %w", d.RunID, d.PersonID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
