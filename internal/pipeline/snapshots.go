// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"sync"

	"github.com/pdiddy/talent-engine/internal/signal"
)

// stagedSnapshots reads venue snapshots from the store but holds this run's
// saves in memory. They reach the store only through Store.Commit, after the
// run has passed its guardrails, so a failed run never moves the baseline.
type stagedSnapshots struct {
	base signal.SnapshotStore

	mu      sync.Mutex
	pending map[string][]string
}

func newStagedSnapshots(base signal.SnapshotStore) *stagedSnapshots {
	return &stagedSnapshots{base: base, pending: make(map[string][]string)}
}

func (s *stagedSnapshots) LoadVenues(ctx context.Context, personID string) ([]string, bool, error) {
	return s.base.LoadVenues(ctx, personID)
}

// SaveVenues stages venues. The run id is the committing run's.
func (s *stagedSnapshots) SaveVenues(_ context.Context, personID, _ string, venues []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[personID] = append([]string(nil), venues...)
	return nil
}

// staged returns a copy of the pending snapshots keyed by person id.
func (s *stagedSnapshots) staged() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.pending))
	for id, v := range s.pending {
		out[id] = v
	}
	return out
}
