// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watchlist turns a signal bundle into a monitoring decision: a
// weighted composite score, a tier, a promotion flag, a fixed-order
// rationale and the full evidence envelope. Weights, thresholds and review
// cadence come from a versioned configuration.
package watchlist

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/internal/signal"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Engine makes watchlist decisions. It is immutable after New and safe for
// concurrent use.
type Engine struct {
	cfg       types.WatchlistConfig
	schedules map[types.Tier]cron.Schedule
	now       func() time.Time
	log       *logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the decision time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New validates cfg and returns an Engine.
func New(cfg types.WatchlistConfig, opts ...Option) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	schedules, err := compileCadence(cfg.Cadence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	e := &Engine{cfg: cfg, schedules: schedules, now: time.Now, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() types.WatchlistConfig { return e.cfg }

// Input carries the optional context of a decision.
type Input struct {
	RunID string

	// Person supplies evidence URLs and source systems for the envelope.
	Person *types.Person

	// Previous is the last stored decision for the Person, if any.
	Previous *types.WatchlistDecision
}

// Decide computes the decision for bundle with no run context.
func (e *Engine) Decide(bundle types.SignalBundle) types.WatchlistDecision {
	return e.DecideWith(bundle, Input{})
}

// DecideWith computes the decision for bundle, comparing the tier with the
// previous decision and scheduling the next review from the tier cadence.
func (e *Engine) DecideWith(bundle types.SignalBundle, in Input) types.WatchlistDecision {
	contributions := e.Contributions(bundle)
	composite := 0.0
	for _, c := range contributions {
		composite += c.Weighted
	}
	composite = round(composite)
	tier := e.TierFor(composite)

	decidedAt := e.now().UTC()
	d := types.WatchlistDecision{
		PersonID:       bundle.PersonID,
		RunID:          in.RunID,
		MonitoringTier: tier,
		PromoteFlag:    tier.AtLeast(types.Tier2),
		CompositeScore: composite,
		Rationale:      Rationale(bundle),
		ConfigVersion:  e.cfg.Version,
		TierChange:     types.TierNew,
		DecidedAt:      decidedAt,
		EvidenceEnvelope: types.EvidenceEnvelope{
			ConfigVersion: e.cfg.Version,
			Bundle:        bundle,
			Contributions: contributions,
		},
	}
	if in.Person != nil {
		if d.PersonID == "" {
			d.PersonID = in.Person.PersonID
		}
		d.EvidenceEnvelope.EvidenceURLs = append([]string(nil), in.Person.EvidenceURLs...)
		d.EvidenceEnvelope.SourceSystems = append([]types.SourceSystem(nil), in.Person.SourceSystems...)
	}
	if in.Previous != nil {
		d.PreviousTier = in.Previous.MonitoringTier
		d.TierChange = Change(in.Previous.MonitoringTier, tier)
	}
	if sched, ok := e.schedules[tier]; ok {
		d.NextReviewAt = sched.Next(decidedAt).UTC()
	}

	e.log.Debug().
		Str("person_id", d.PersonID).
		Float64("composite", composite).
		Str("tier", tier.String()).
		Str("change", string(d.TierChange)).
		Msg("watchlist decision")
	return d
}

// Contributions returns the weighted terms of the composite in the fixed
// order citation, activity, venue, patent. Sub-scores are assumed clamped.
func (e *Engine) Contributions(b types.SignalBundle) []types.Contribution {
	w := e.cfg.Weights
	weights := map[string]float64{
		signal.NameCitation: w.CitationVelocity,
		signal.NameActivity: w.Activity,
		signal.NameVenue:    w.VenueChange,
		signal.NameIP:       w.IPEvent,
	}
	out := make([]types.Contribution, 0, 4)
	for _, s := range signal.Ordered(b) {
		weight := weights[s.Name]
		out = append(out, types.Contribution{
			Signal:   s.Name,
			Score:    s.Sub.Score,
			Weight:   weight,
			Weighted: weight * s.Sub.Score,
		})
	}
	return out
}

// Composite returns the weighted composite score of b.
func (e *Engine) Composite(b types.SignalBundle) float64 {
	sum := 0.0
	for _, c := range e.Contributions(b) {
		sum += c.Weighted
	}
	return round(sum)
}

// TierFor maps a composite score to a tier, evaluating thresholds from the
// highest tier down.
func (e *Engine) TierFor(composite float64) types.Tier {
	th := e.cfg.Thresholds
	switch {
	case composite >= th.Tier1:
		return types.Tier1
	case composite >= th.Tier2:
		return types.Tier2
	case composite >= th.Tier3:
		return types.Tier3
	}
	return types.Tier4
}

// Change compares a new tier with the previous one.
func Change(prev, next types.Tier) types.TierChange {
	switch {
	case prev == 0:
		return types.TierNew
	case next < prev:
		return types.TierUp
	case next > prev:
		return types.TierDown
	}
	return types.TierSame
}

var rationaleLabels = map[string]string{
	signal.NameCitation: "citation",
	signal.NameActivity: "activity",
	signal.NameVenue:    "venue",
	signal.NameIP:       "patent",
}

// Rationale lists the fired sub-signals in the order citation, activity,
// venue, patent, followed by any that were not computed. Example:
// "fired: citation 0.620, venue 0.280; not computed: patent".
func Rationale(b types.SignalBundle) string {
	var fired, missing []string
	for _, s := range signal.Ordered(b) {
		label := rationaleLabels[s.Name]
		switch {
		case s.Sub.Fired():
			item := fmt.Sprintf("%s %.3f", label, s.Sub.Score)
			if s.Sub.Details.Flags["confidence"] == "low" {
				item += " (low confidence)"
			}
			fired = append(fired, item)
		case s.Sub.Details.Status == types.SignalNotComputed:
			missing = append(missing, label)
		}
	}

	var parts []string
	if len(fired) == 0 {
		parts = append(parts, "no signals fired")
	} else {
		parts = append(parts, "fired: "+strings.Join(fired, ", "))
	}
	if len(missing) > 0 {
		parts = append(parts, "not computed: "+strings.Join(missing, ", "))
	}
	return strings.Join(parts, "; ")
}

// round drops float noise below 1e-12 so that, for example, four 0.7
// sub-scores land exactly on the 0.70 threshold. It is monotone.
func round(v float64) float64 {
	return math.Round(v*1e12) / 1e12
}
