// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watchlist

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// Wednesday.
var decidedAt = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(types.DefaultWatchlistConfig(), WithClock(func() time.Time { return decidedAt }))
	require.NoError(t, err)
	return e
}

func computed(score float64) types.SubSignal {
	return types.SubSignal{Score: score, Details: types.SignalDetails{Status: types.SignalComputed}}
}

func bundle(c, a, v, ip float64) types.SignalBundle {
	return types.SignalBundle{
		PersonID:         "p1",
		CitationVelocity: computed(c),
		Activity:         computed(a),
		VenueChange:      computed(v),
		IPEvent:          computed(ip),
	}
}

func TestCompositeAndTier(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name      string
		b         types.SignalBundle
		composite float64
		tier      types.Tier
		promote   bool
	}{
		{"all max", bundle(1, 1, 1, 1), 1, types.Tier1, true},
		{"exact tier 1 boundary", bundle(0.7, 0.7, 0.7, 0.7), 0.7, types.Tier1, true},
		{"tier 2", bundle(1, 0.4, 0, 0), 0.45, types.Tier2, true},
		{"tier 3", bundle(0, 1, 0, 0), 0.25, types.Tier3, false},
		{"just below tier 3", bundle(0, 0.96, 0, 0), 0.24, types.Tier4, false},
		{"patent only", bundle(0, 0, 0, 1), 0.15, types.Tier4, false},
		{"nothing", bundle(0, 0, 0, 0), 0, types.Tier4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(tt.b)
			assert.InDelta(t, tt.composite, d.CompositeScore, 1e-9)
			assert.Equal(t, tt.tier, d.MonitoringTier)
			assert.Equal(t, tt.promote, d.PromoteFlag)
			assert.Equal(t, "v1", d.ConfigVersion)
		})
	}
}

func TestTierMonotonic(t *testing.T) {
	e := newEngine(t)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 2000; i++ {
		b := bundle(rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64())
		a := bundle(
			b.CitationVelocity.Score+rng.Float64()*(1-b.CitationVelocity.Score),
			b.Activity.Score+rng.Float64()*(1-b.Activity.Score),
			b.VenueChange.Score+rng.Float64()*(1-b.VenueChange.Score),
			b.IPEvent.Score+rng.Float64()*(1-b.IPEvent.Score),
		)
		da, db := e.Decide(a), e.Decide(b)
		require.GreaterOrEqual(t, da.CompositeScore, db.CompositeScore)
		require.True(t, da.MonitoringTier.AtLeast(db.MonitoringTier),
			"tier(A)=%s lower than tier(B)=%s", da.MonitoringTier, db.MonitoringTier)
	}
}

func TestRationaleOrder(t *testing.T) {
	b := bundle(0.62, 0, 0.28, 0.4)
	b.Activity = types.SubSignal{Details: types.SignalDetails{Status: types.SignalNotComputed, Reason: "no activity evidence"}}
	b.IPEvent.Details.Flags = map[string]string{"confidence": "low"}

	assert.Equal(t,
		"fired: citation 0.620, venue 0.280, patent 0.400 (low confidence); not computed: activity",
		Rationale(b))
	assert.Equal(t, "no signals fired", Rationale(bundle(0, 0, 0, 0)))
	assert.Equal(t, "fired: citation 0.100, activity 0.100, venue 0.100, patent 0.100",
		Rationale(bundle(0.1, 0.1, 0.1, 0.1)))
}

func TestEnvelopeAndHistory(t *testing.T) {
	e := newEngine(t)
	p := &types.Person{
		PersonID:      "p1",
		EvidenceURLs:  []string{"https://openalex.org/A1"},
		SourceSystems: []types.SourceSystem{types.SourceScholarIndex},
	}
	prev := &types.WatchlistDecision{PersonID: "p1", MonitoringTier: types.Tier3}

	d := e.DecideWith(bundle(1, 1, 0, 0), Input{RunID: "run-2", Person: p, Previous: prev})
	assert.Equal(t, "run-2", d.RunID)
	assert.Equal(t, types.Tier2, d.MonitoringTier)
	assert.Equal(t, types.TierUp, d.TierChange)
	assert.Equal(t, types.Tier3, d.PreviousTier)
	assert.Equal(t, decidedAt, d.DecidedAt)

	env := d.EvidenceEnvelope
	assert.Equal(t, "v1", env.ConfigVersion)
	assert.Equal(t, p.EvidenceURLs, env.EvidenceURLs)
	require.Len(t, env.Contributions, 4)
	assert.Equal(t, "citation_velocity", env.Contributions[0].Signal)
	assert.InDelta(t, 0.35, env.Contributions[0].Weighted, 1e-12)
	assert.Equal(t, "ip_event", env.Contributions[3].Signal)

	// Tier_2 cadence "0 6 1 * *": first of next month at 06:00.
	assert.Equal(t, time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC), d.NextReviewAt)

	first := e.DecideWith(bundle(0, 0, 0, 0), Input{})
	assert.Equal(t, types.TierNew, first.TierChange)
	// Tier_4 cadence "0 6 1 1 *": next January.
	assert.Equal(t, time.Date(2027, 1, 1, 6, 0, 0, 0, time.UTC), first.NextReviewAt)
}

func TestChange(t *testing.T) {
	assert.Equal(t, types.TierNew, Change(0, types.Tier2))
	assert.Equal(t, types.TierUp, Change(types.Tier3, types.Tier1))
	assert.Equal(t, types.TierDown, Change(types.Tier1, types.Tier4))
	assert.Equal(t, types.TierSame, Change(types.Tier2, types.Tier2))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.WatchlistConfig)
		want   string
	}{
		{"default", func(*types.WatchlistConfig) {}, ""},
		{"weights off", func(c *types.WatchlistConfig) { c.Weights.IPEvent = 0.2 }, "weights sum"},
		{"thresholds overlap", func(c *types.WatchlistConfig) { c.Thresholds.Tier2 = 0.7 }, "strictly descending"},
		{"missing version", func(c *types.WatchlistConfig) { c.Version = "" }, "version: required"},
		{"bad cron", func(c *types.WatchlistConfig) { c.Cadence["Tier_1"] = "every monday" }, "cadence Tier_1"},
		{"unknown tier", func(c *types.WatchlistConfig) { c.Cadence["Tier_9"] = "@daily" }, "cadence:"},
		{"lowercased keys", func(c *types.WatchlistConfig) {
			c.Cadence = map[string]string{"tier_1": "@weekly", "tier_2": "@monthly"}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultWatchlistConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(cfg)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := types.DefaultWatchlistConfig()
	cfg.Weights.Activity = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLowercasedCadenceSchedules(t *testing.T) {
	cfg := types.DefaultWatchlistConfig()
	cfg.Cadence = map[string]string{"tier_1": "0 6 * * 1"}
	e, err := New(cfg, WithClock(func() time.Time { return decidedAt }))
	require.NoError(t, err)

	d := e.Decide(bundle(1, 1, 1, 1))
	assert.Equal(t, time.Date(2026, 4, 20, 6, 0, 0, 0, time.UTC), d.NextReviewAt)

	// No cadence for Tier_4: no review scheduled.
	assert.True(t, e.Decide(bundle(0, 0, 0, 0)).NextReviewAt.IsZero())
}
