// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package signal computes the four normalized sub-signals of a Person from
// time-windowed observations: citation velocity, activity, venue change and
// IP (patent) events. Every sub-score is clamped to [0,1] and carries the
// counts that produced it. A sub-signal that lacks its input is marked
// not_computed rather than scored as low quality.
package signal

import (
	"context"
	"math"
	"time"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Sub-signal names, in the fixed order used by rationale and contributions.
const (
	NameCitation = "citation_velocity"
	NameActivity = "activity"
	NameVenue    = "venue_change"
	NameIP       = "ip_event"
)

// Config holds the engine settings.
type Config struct {
	Window        time.Duration
	CitationCap   int
	PopularityCap int
	VenueHitCap   int
	PatentCap     int
	TargetVenues  []string
}

// ConfigFrom converts the pipeline signal configuration.
func ConfigFrom(sc types.SignalConfig) Config {
	return Config{
		Window:        sc.Window,
		CitationCap:   sc.CitationCap,
		PopularityCap: sc.PopularityCap,
		VenueHitCap:   sc.VenueHitCap,
		PatentCap:     sc.PatentCap,
		TargetVenues:  sc.TargetVenues,
	}.withDefaults()
}

// withDefaults fills zero values; every cap must be positive because it is
// a log-scale denominator.
func (c Config) withDefaults() Config {
	def := types.DefaultPipelineConfig().Signals
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.CitationCap <= 0 {
		c.CitationCap = def.CitationCap
	}
	if c.PopularityCap <= 0 {
		c.PopularityCap = def.PopularityCap
	}
	if c.VenueHitCap <= 0 {
		c.VenueHitCap = def.VenueHitCap
	}
	if c.PatentCap <= 0 {
		c.PatentCap = def.PatentCap
	}
	return c
}

// SnapshotStore persists the venue set seen for each Person in the previous
// run. Implementations are keyed by person id and overwrite on save.
type SnapshotStore interface {
	// LoadVenues returns the previous venue set; found is false when the
	// Person has no snapshot yet.
	LoadVenues(ctx context.Context, personID string) (venues []string, found bool, err error)

	// SaveVenues replaces the snapshot of personID.
	SaveVenues(ctx context.Context, personID, runID string, venues []string) error
}

// Engine builds signal bundles. It is safe for sequential use; the snapshot
// store is touched once per Person.
type Engine struct {
	cfg   Config
	store SnapshotStore
	now   func() time.Time
	runID string
	log   *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock fixes the reference time of the windows.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunID tags snapshots written by the engine.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an Engine. store may be nil, in which case venue
// novelty is never awarded.
func NewEngine(cfg Config, store SnapshotStore, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg.withDefaults(),
		store: store,
		now:   time.Now,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildBundle computes the four sub-signals of p over window. A window of
// zero or less uses the configured window.
func (e *Engine) BuildBundle(ctx context.Context, p *types.Person, window time.Duration) types.SignalBundle {
	if window <= 0 {
		window = e.cfg.Window
	}
	now := e.now().UTC()
	w := span{from: now.Add(-window), to: now}

	b := types.SignalBundle{
		PersonID:         p.PersonID,
		CitationVelocity: e.citationVelocity(p, w),
		Activity:         e.activity(p, w, now),
		VenueChange:      e.venueChange(ctx, p, w),
		IPEvent:          e.ipEvent(p, w),
		Window:           window,
		GeneratedAt:      now,
	}

	for _, s := range Ordered(b) {
		if s.Sub.Details.Status == types.SignalNotComputed {
			e.log.Debug().Str("person_id", p.PersonID).Str("signal", s.Name).
				Str("reason", s.Sub.Details.Reason).Msg("signal not computed")
		}
	}
	return b
}

// Named pairs a sub-signal with its name.
type Named struct {
	Name string
	Sub  types.SubSignal
}

// Ordered returns the sub-signals of b in the fixed order citation,
// activity, venue, patent.
func Ordered(b types.SignalBundle) []Named {
	return []Named{
		{NameCitation, b.CitationVelocity},
		{NameActivity, b.Activity},
		{NameVenue, b.VenueChange},
		{NameIP, b.IPEvent},
	}
}

type span struct{ from, to time.Time }

func (s span) contains(t time.Time) bool {
	return !t.Before(s.from) && !t.After(s.to)
}

func within(obs []types.Observation, w span) []types.Observation {
	var out []types.Observation
	for _, o := range obs {
		if w.contains(o.At) {
			out = append(out, o)
		}
	}
	return out
}

func notComputed(reason string) types.SubSignal {
	return types.SubSignal{Details: types.SignalDetails{Status: types.SignalNotComputed, Reason: reason}}
}

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
