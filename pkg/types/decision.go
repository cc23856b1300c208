// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// SignalStatus records whether a sub-signal could be computed.
type SignalStatus string

const (
	SignalComputed    SignalStatus = "computed"
	SignalNotComputed SignalStatus = "not_computed"
)

// SignalDetails is the audit trail of one sub-signal: the raw counts and
// evidence that produced the score, or the reason it was not computed.
type SignalDetails struct {
	Status SignalStatus       `json:"status" yaml:"status"`
	Reason string             `json:"reason,omitempty" yaml:"reason,omitempty"`
	Mode   string             `json:"mode,omitempty" yaml:"mode,omitempty"`
	Counts map[string]float64 `json:"counts,omitempty" yaml:"counts,omitempty"`
	Items  []string           `json:"items,omitempty" yaml:"items,omitempty"`
	Flags  map[string]string  `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// SubSignal is a score in [0,1] with its details.
type SubSignal struct {
	Score   float64       `json:"score" yaml:"score"`
	Details SignalDetails `json:"details" yaml:"details"`
}

// Fired reports whether the sub-signal contributed a non-zero score.
func (s SubSignal) Fired() bool { return s.Score > 0 }

// SignalBundle holds the four sub-signals computed for one Person in one run.
type SignalBundle struct {
	PersonID         string        `json:"person_id" yaml:"person_id"`
	CitationVelocity SubSignal     `json:"citation_velocity" yaml:"citation_velocity"`
	Activity         SubSignal     `json:"activity" yaml:"activity"`
	VenueChange      SubSignal     `json:"venue_change" yaml:"venue_change"`
	IPEvent          SubSignal     `json:"ip_event" yaml:"ip_event"`
	Window           time.Duration `json:"window" yaml:"window"`
	GeneratedAt      time.Time     `json:"generated_at" yaml:"generated_at"`
}

// Tier is the monitoring priority bucket. Tier1 is the highest priority;
// a smaller value means a higher tier.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

// String returns the canonical label, e.g. "Tier_1".
func (t Tier) String() string {
	if t < Tier1 || t > Tier4 {
		return fmt.Sprintf("Tier_invalid(%d)", int(t))
	}
	return fmt.Sprintf("Tier_%d", int(t))
}

// AtLeast reports whether t is the same tier as other or a higher one.
func (t Tier) AtLeast(other Tier) bool { return t <= other }

// MarshalText encodes the tier label.
func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a tier label produced by MarshalText.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier decodes "Tier_1".."Tier_4".
func ParseTier(s string) (Tier, error) {
	var n int
	if _, err := fmt.Sscanf(s, "Tier_%d", &n); err != nil || n < int(Tier1) || n > int(Tier4) {
		return 0, fmt.Errorf("invalid tier %q", s)
	}
	return Tier(n), nil
}

// TierChange describes how a decision moved relative to the previous one.
type TierChange string

const (
	TierNew  TierChange = "new"
	TierUp   TierChange = "up"
	TierDown TierChange = "down"
	TierSame TierChange = "same"
)

// Contribution is one weighted term of the composite score.
type Contribution struct {
	Signal   string  `json:"signal" yaml:"signal"`
	Score    float64 `json:"score" yaml:"score"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Weighted float64 `json:"weighted" yaml:"weighted"`
}

// EvidenceEnvelope is the complete structured trace behind a decision. It
// is never truncated.
type EvidenceEnvelope struct {
	ConfigVersion string         `json:"config_version" yaml:"config_version"`
	Bundle        SignalBundle   `json:"bundle" yaml:"bundle"`
	Contributions []Contribution `json:"contributions" yaml:"contributions"`
	EvidenceURLs  []string       `json:"evidence_urls,omitempty" yaml:"evidence_urls,omitempty"`
	SourceSystems []SourceSystem `json:"source_systems,omitempty" yaml:"source_systems,omitempty"`
}

// WatchlistDecision is derived once per run per Person and never mutated.
type WatchlistDecision struct {
	PersonID         string           `json:"person_id" yaml:"person_id"`
	RunID            string           `json:"run_id" yaml:"run_id"`
	MonitoringTier   Tier             `json:"monitoring_tier" yaml:"monitoring_tier"`
	PromoteFlag      bool             `json:"promote_flag" yaml:"promote_flag"`
	CompositeScore   float64          `json:"composite_score" yaml:"composite_score"`
	Rationale        string           `json:"rationale" yaml:"rationale"`
	ConfigVersion    string           `json:"config_version" yaml:"config_version"`
	TierChange       TierChange       `json:"tier_change" yaml:"tier_change"`
	PreviousTier     Tier             `json:"previous_tier,omitempty" yaml:"previous_tier,omitempty"`
	NextReviewAt     time.Time        `json:"next_review_at" yaml:"next_review_at"`
	DecidedAt        time.Time        `json:"decided_at" yaml:"decided_at"`
	EvidenceEnvelope EvidenceEnvelope `json:"evidence_envelope" yaml:"evidence_envelope"`
}
