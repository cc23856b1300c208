// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package signal

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/pdiddy/talent-engine/internal/evidence"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Activity recency tiers: days since the last activity and the bonus it
// earns. Older activity earns nothing.
var recencyTiers = []struct {
	days  float64
	bonus float64
}{
	{14, 0.5},
	{60, 0.35},
	{180, 0.15},
}

const (
	popularityMax   = 0.5
	venueBaseMax    = 0.7
	noveltyPerVenue = 0.15
	noveltyMax      = 0.3
)

func (e *Engine) citationVelocity(p *types.Person, w span) types.SubSignal {
	if p.ScholarAuthorID == "" {
		return notComputed("no scholarly identity")
	}
	obs := within(p.ObservationsOf(types.ObservationCitation), w)
	total := 0
	for _, o := range obs {
		if o.Count > 0 {
			total += o.Count
		}
	}
	score := math.Log10(1+float64(total)) / math.Log10(1+float64(e.cfg.CitationCap))
	return types.SubSignal{
		Score: Clamp(score),
		Details: types.SignalDetails{
			Status: types.SignalComputed,
			Counts: map[string]float64{
				"citations":    float64(total),
				"observations": float64(len(obs)),
				"cap":          float64(e.cfg.CitationCap),
			},
		},
	}
}

// activity scores recency plus popularity. When a labelled artifact (a
// repository) is known, the most popular one drives both terms; otherwise the
// aggregate of unlabelled activity events in the window is used.
func (e *Engine) activity(p *types.Person, w span, now time.Time) types.SubSignal {
	all := p.ObservationsOf(types.ObservationActivity)
	if len(all) == 0 {
		return notComputed("no activity evidence")
	}

	var artifacts, events []types.Observation
	for _, o := range within(all, w) {
		if o.Label != "" {
			artifacts = append(artifacts, o)
		} else {
			events = append(events, o)
		}
	}

	details := types.SignalDetails{Status: types.SignalComputed, Counts: map[string]float64{}}
	var last time.Time
	popularity := 0

	switch {
	case len(artifacts) > 0:
		best := bestArtifact(artifacts)
		details.Mode = "artifact"
		details.Items = []string{best.Label}
		last = best.At
		popularity = best.Count
	case len(events) > 0:
		details.Mode = "aggregate"
		for _, o := range events {
			if o.At.After(last) {
				last = o.At
			}
			if o.Count > 0 {
				popularity += o.Count
			} else {
				popularity++
			}
		}
		details.Counts["events"] = float64(len(events))
	default:
		details.Mode = "aggregate"
		details.Reason = "no activity within window"
		details.Counts["events"] = 0
		return types.SubSignal{Details: details}
	}

	if popularity < 0 {
		popularity = 0
	}
	days := now.Sub(last).Hours() / 24
	recency := 0.0
	for _, tier := range recencyTiers {
		if days <= tier.days {
			recency = tier.bonus
			break
		}
	}
	pop := popularityMax * math.Log10(1+float64(popularity)) / math.Log10(1+float64(e.cfg.PopularityCap))
	pop = math.Min(pop, popularityMax)

	details.Counts["days_since_activity"] = math.Floor(days)
	details.Counts["popularity"] = float64(popularity)
	details.Counts["recency_bonus"] = recency
	details.Counts["popularity_term"] = pop
	return types.SubSignal{Score: Clamp(recency + pop), Details: details}
}

// bestArtifact picks the most popular artifact, then the most recent, then
// the smallest label, so the choice does not depend on slice order.
func bestArtifact(obs []types.Observation) types.Observation {
	best := obs[0]
	for _, o := range obs[1:] {
		switch {
		case o.Count != best.Count:
			if o.Count > best.Count {
				best = o
			}
		case !o.At.Equal(best.At):
			if o.At.After(best.At) {
				best = o
			}
		case o.Label < best.Label:
			best = o
		}
	}
	return best
}

// venueChange counts target-venue hits in the window and adds a novelty
// bonus for venues missing from the previous run's snapshot. The current
// venue set then replaces the snapshot.
func (e *Engine) venueChange(ctx context.Context, p *types.Person, w span) types.SubSignal {
	all := p.ObservationsOf(types.ObservationVenue)
	if len(all) == 0 {
		return notComputed("no venue evidence")
	}

	targets := make(map[string]struct{}, len(e.cfg.TargetVenues))
	for _, v := range e.cfg.TargetVenues {
		if v = evidence.NormalizeTag(v); v != "" {
			targets[v] = struct{}{}
		}
	}

	hits := 0
	seen := make(map[string]struct{})
	var current []string
	for _, o := range within(all, w) {
		v := evidence.NormalizeTag(o.Label)
		if v == "" {
			continue
		}
		if _, ok := targets[v]; ok {
			hits++
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			current = append(current, v)
		}
	}
	sort.Strings(current)

	details := types.SignalDetails{
		Status: types.SignalComputed,
		Items:  current,
		Counts: map[string]float64{
			"target_hits": float64(hits),
			"venues":      float64(len(current)),
		},
		Flags: map[string]string{},
	}
	base := venueBaseMax * math.Min(1, float64(hits)/float64(e.cfg.VenueHitCap))

	novelty := 0.0
	if e.store == nil {
		details.Flags["novelty"] = "no_snapshot_store"
	} else {
		prev, found, err := e.store.LoadVenues(ctx, p.PersonID)
		switch {
		case err != nil:
			cerr := &ComputationError{Kind: KindSourceUnavailable, Signal: NameVenue, Err: err}
			details.Flags["novelty"] = string(cerr.Kind)
			details.Flags["error"] = cerr.Error()
			e.log.Warn().Err(cerr).Str("person_id", p.PersonID).Msg("venue snapshot unavailable")
		case !found:
			details.Flags["novelty"] = "no_prior_snapshot"
		default:
			before := make(map[string]struct{}, len(prev))
			for _, v := range prev {
				before[v] = struct{}{}
			}
			var added []string
			for _, v := range current {
				if _, ok := before[v]; !ok {
					added = append(added, v)
				}
			}
			novelty = math.Min(noveltyMax, noveltyPerVenue*float64(len(added)))
			details.Counts["new_venues"] = float64(len(added))
			details.Flags["novelty"] = "compared"
		}

		if err == nil {
			if serr := e.store.SaveVenues(ctx, p.PersonID, e.runID, current); serr != nil {
				cerr := &ComputationError{Kind: KindSourceUnavailable, Signal: NameVenue, Err: serr}
				details.Flags["snapshot_write"] = cerr.Error()
				e.log.Warn().Err(cerr).Str("person_id", p.PersonID).Msg("venue snapshot not saved")
			}
		}
	}

	details.Counts["base"] = base
	details.Counts["novelty"] = novelty
	return types.SubSignal{Score: Clamp(base + novelty), Details: details}
}

// ipEvent counts patent filings matched to the Person by inventor name.
// Name matching is fuzzy, so the result is always flagged low confidence.
func (e *Engine) ipEvent(p *types.Person, w span) types.SubSignal {
	if p.PatentInventorName == "" {
		return notComputed("no inventor name")
	}
	obs := within(p.ObservationsOf(types.ObservationPatent), w)
	filings := make(map[string]struct{}, len(obs))
	var items []string
	for _, o := range obs {
		key := o.Label
		if key == "" {
			key = o.Key()
		}
		if _, ok := filings[key]; ok {
			continue
		}
		filings[key] = struct{}{}
		if o.Label != "" {
			items = append(items, o.Label)
		}
	}
	sort.Strings(items)
	n := len(filings)
	score := math.Log2(1+float64(n)) / math.Log2(1+float64(e.cfg.PatentCap))
	return types.SubSignal{
		Score: Clamp(score),
		Details: types.SignalDetails{
			Status: types.SignalComputed,
			Items:  items,
			Counts: map[string]float64{"filings": float64(n), "cap": float64(e.cfg.PatentCap)},
			Flags:  map[string]string{"confidence": "low", "match": "name"},
		},
	}
}
