// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output projects ranked persons and their decisions into the
// canonical row set and writes the run artifacts: rows.csv, the decision
// sidecar and the run manifest.
package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/talent-engine/internal/schema"
	"github.com/pdiddy/talent-engine/internal/scoring"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// ListSeparator joins multi-valued fields inside one cell.
const ListSeparator = "|"

// RunMeta identifies the run a row set belongs to.
type RunMeta struct {
	RunID       string
	GeneratedAt time.Time
}

// Input is everything a row may draw from. Bundles and Decisions are keyed by
// person id and may be nil when the signal stage is disabled.
type Input struct {
	Ranked    []scoring.Ranked
	Bundles   map[string]types.SignalBundle
	Decisions map[string]types.WatchlistDecision
	Run       RunMeta
}

type rowContext struct {
	r        scoring.Ranked
	bundle   *types.SignalBundle
	decision *types.WatchlistDecision
	run      RunMeta
}

type columnFunc func(c rowContext) string

// columns maps every supported canonical column to its value.
var columns = map[string]columnFunc{
	"person_id":            func(c rowContext) string { return c.r.Person.PersonID },
	"rank":                 func(c rowContext) string { return strconv.Itoa(c.r.Rank) },
	"score":                func(c rowContext) string { return formatFloat(c.r.Score, -1) },
	"full_name":            func(c rowContext) string { return c.r.Person.FullName },
	"primary_affiliation":  func(c rowContext) string { return c.r.Person.PrimaryAffiliation },
	"source_systems":       func(c rowContext) string { return joinSources(c.r.Person.SourceSystems) },
	"scenario_tags":        func(c rowContext) string { return strings.Join(c.r.Person.ScenarioTags, ListSeparator) },
	"scholar_author_id":    func(c rowContext) string { return c.r.Person.ScholarAuthorID },
	"code_host_handle":     func(c rowContext) string { return c.r.Person.CodeHostHandle },
	"patent_inventor_name": func(c rowContext) string { return c.r.Person.PatentInventorName },
	"evidence_urls":        func(c rowContext) string { return strings.Join(c.r.Person.EvidenceURLs, ListSeparator) },
	"evidence_count":       func(c rowContext) string { return strconv.Itoa(len(c.r.Person.EvidenceURLs)) },
	"raw_signal_tags":      func(c rowContext) string { return strings.Join(c.r.Person.RawSignalTags, ListSeparator) },
	"topic_tag_count":      func(c rowContext) string { return strconv.Itoa(len(c.r.Person.RawSignalTags)) },

	"citation_velocity":        subScore(func(b *types.SignalBundle) types.SubSignal { return b.CitationVelocity }),
	"citation_velocity_status": subStatus(func(b *types.SignalBundle) types.SubSignal { return b.CitationVelocity }),
	"activity":                 subScore(func(b *types.SignalBundle) types.SubSignal { return b.Activity }),
	"activity_status":          subStatus(func(b *types.SignalBundle) types.SubSignal { return b.Activity }),
	"venue_change":             subScore(func(b *types.SignalBundle) types.SubSignal { return b.VenueChange }),
	"venue_change_status":      subStatus(func(b *types.SignalBundle) types.SubSignal { return b.VenueChange }),
	"ip_event":                 subScore(func(b *types.SignalBundle) types.SubSignal { return b.IPEvent }),
	"ip_event_status":          subStatus(func(b *types.SignalBundle) types.SubSignal { return b.IPEvent }),

	"composite_score": decisionField(func(d *types.WatchlistDecision) string { return formatFloat(d.CompositeScore, 4) }),
	"monitoring_tier": decisionField(func(d *types.WatchlistDecision) string { return d.MonitoringTier.String() }),
	"promote_flag":    decisionField(func(d *types.WatchlistDecision) string { return strconv.FormatBool(d.PromoteFlag) }),
	"tier_change":     decisionField(func(d *types.WatchlistDecision) string { return string(d.TierChange) }),
	"next_review_at":  decisionField(func(d *types.WatchlistDecision) string { return formatTime(d.NextReviewAt) }),
	"rationale":       decisionField(func(d *types.WatchlistDecision) string { return d.Rationale }),

	"first_seen":   func(c rowContext) string { return formatTime(c.r.Person.FirstSeen) },
	"last_seen":    func(c rowContext) string { return formatTime(c.r.Person.LastSeen) },
	"run_id":       func(c rowContext) string { return c.run.RunID },
	"generated_at": func(c rowContext) string { return formatTime(c.run.GeneratedAt) },
}

// Supported reports whether the projector knows how to fill column.
func Supported(column string) bool {
	_, ok := columns[column]
	return ok
}

// Project builds the row set in registry column order and rank order. A
// registry column the projector cannot fill is a schema error, so a schema
// change can never silently emit an empty column.
func Project(reg *schema.Registry, in Input) (types.RowSet, error) {
	cols := reg.Columns()
	fns := make([]columnFunc, len(cols))
	for i, c := range cols {
		fn, ok := columns[c]
		if !ok {
			return types.RowSet{}, &schema.Error{Kind: schema.KindUnknownColumn, Column: c, Detail: "no projection for column"}
		}
		fns[i] = fn
	}

	rs := types.RowSet{Columns: cols, Rows: make([]types.OutputRow, 0, len(in.Ranked))}
	for _, r := range in.Ranked {
		c := rowContext{r: r, run: in.Run}
		if b, ok := in.Bundles[r.Person.PersonID]; ok {
			c.bundle = &b
		}
		if d, ok := in.Decisions[r.Person.PersonID]; ok {
			c.decision = &d
		}
		row := make(types.OutputRow, len(fns))
		for i, fn := range fns {
			row[i] = fn(c)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func subScore(get func(*types.SignalBundle) types.SubSignal) columnFunc {
	return func(c rowContext) string {
		if c.bundle == nil {
			return ""
		}
		return formatFloat(get(c.bundle).Score, 4)
	}
}

func subStatus(get func(*types.SignalBundle) types.SubSignal) columnFunc {
	return func(c rowContext) string {
		if c.bundle == nil {
			return ""
		}
		return string(get(c.bundle).Details.Status)
	}
}

func decisionField(get func(*types.WatchlistDecision) string) columnFunc {
	return func(c rowContext) string {
		if c.decision == nil {
			return ""
		}
		return get(c.decision)
	}
}

func joinSources(ss []types.SourceSystem) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ListSeparator)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
