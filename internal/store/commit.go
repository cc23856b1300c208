// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// Commit is everything a passing run persists.
type Commit struct {
	RunID     string
	Persons   []*types.Person
	Venues    map[string][]string
	Decisions []types.WatchlistDecision
}

// Commit writes persons, venue snapshots and decisions in one transaction.
// Either all of them become the baseline of the next run or none do.
// Snapshots are written in person id order.
func (s *Store) Commit(ctx context.Context, c Commit) error {
	ids := make([]string, 0, len(c.Venues))
	for id := range c.Venues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	now := time.Now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertPersons(ctx, tx, c.RunID, c.Persons); err != nil {
			return err
		}
		for _, id := range ids {
			if err := saveVenues(ctx, tx, id, c.RunID, c.Venues[id], now); err != nil {
				return err
			}
		}
		return appendDecisions(ctx, tx, c.Decisions)
	})
	if err != nil {
		return fmt.Errorf("committing run %s: %w", c.RunID, err)
	}
	return nil
}
