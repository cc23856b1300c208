// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// CollectOptions tunes Collect.
type CollectOptions struct {
	// Concurrency caps the number of scenarios searched at once (0 = 4).
	Concurrency int

	// DefaultLimit applies to scenarios without a limit.
	DefaultLimit int

	// Now stamps DiscoveredAt on records that lack it.
	Now func() time.Time

	Log *logger.Logger
}

// Report summarizes a collection. Every scenario appears in Yields, with 0
// when it returned nothing or failed.
type Report struct {
	Yields   map[string]int
	Errors   map[string]string
	BySource map[types.SourceSystem]int
	Records  int
}

// Failed returns the ids of failed scenarios in sorted order.
func (r Report) Failed() []string {
	ids := make([]string, 0, len(r.Errors))
	for id := range r.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CheckScenarios reports scenarios that name an unknown connector or reuse
// an id.
func CheckScenarios(scenarios []types.ScenarioConfig, set Set) error {
	seen := make(map[string]bool, len(scenarios))
	var problems []string
	for _, sc := range scenarios {
		if seen[sc.ID] {
			problems = append(problems, fmt.Sprintf("scenario %q declared twice", sc.ID))
		}
		seen[sc.ID] = true
		if _, ok := set[sc.Connector]; !ok {
			problems = append(problems, fmt.Sprintf("scenario %q: unknown connector %q (have %s)",
				sc.ID, sc.Connector, strings.Join(set.Names(), ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid scenarios: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Collect runs every scenario against its connector concurrently and sends
// the records to out. A failing scenario is recorded in the report and does
// not stop the others; zero records is not a failure. Collect returns an
// error only for invalid scenarios or a cancelled context. It never closes
// out.
func Collect(ctx context.Context, scenarios []types.ScenarioConfig, set Set, out chan<- types.RawCandidateRecord, opt CollectOptions) (Report, error) {
	rep := Report{
		Yields:   make(map[string]int, len(scenarios)),
		Errors:   make(map[string]string),
		BySource: make(map[types.SourceSystem]int),
	}
	if err := CheckScenarios(scenarios, set); err != nil {
		return rep, err
	}
	for _, sc := range scenarios {
		rep.Yields[sc.ID] = 0
	}

	log := opt.Log
	if log == nil {
		log = logger.Named("collect")
	}
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	limit := opt.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, sc := range scenarios {
		g.Go(func() error {
			c := set[sc.Connector]
			n := sc.Limit
			if n <= 0 {
				n = opt.DefaultLimit
			}

			start := time.Now()
			recs, err := c.Search(gctx, sc.Query, n)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("scenario", sc.ID).Str("connector", c.Name()).Msg("scenario failed")
				mu.Lock()
				rep.Errors[sc.ID] = err.Error()
				mu.Unlock()
				return nil
			}

			at := now().UTC()
			for _, rec := range recs {
				rec.Scenario = sc.ID
				if rec.SourceQuery == "" {
					rec.SourceQuery = sc.Query
				}
				if rec.SourceSystem == "" {
					rec.SourceSystem = c.System()
				}
				if rec.DiscoveredAt.IsZero() {
					rec.DiscoveredAt = at
				}
				select {
				case out <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
				mu.Lock()
				rep.Yields[sc.ID]++
				rep.BySource[rec.SourceSystem]++
				rep.Records++
				mu.Unlock()
			}
			log.Info().
				Str("scenario", sc.ID).
				Str("connector", c.Name()).
				Int("records", len(recs)).
				Dur("took", time.Since(start)).
				Msg("scenario collected")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rep, fmt.Errorf("collecting: %w", err)
	}
	return rep, nil
}
