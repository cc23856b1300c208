// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Person is the canonical, deduplicated entity produced by identity
// resolution. Set-valued fields are kept sorted; EvidenceURLs keeps
// insertion order.
type Person struct {
	// PersonID is derived from IdentityKey by a one-way hash and never
	// changes for the same key.
	PersonID string `json:"person_id" yaml:"person_id"`

	// IdentityKey is the key the Person was created under.
	IdentityKey string `json:"identity_key" yaml:"identity_key"`

	FullName           string `json:"full_name" yaml:"full_name"`
	PrimaryAffiliation string `json:"primary_affiliation,omitempty" yaml:"primary_affiliation,omitempty"`

	SourceSystems []SourceSystem `json:"source_systems" yaml:"source_systems"`
	EvidenceURLs  []string       `json:"evidence_urls" yaml:"evidence_urls"`
	RawSignalTags []string       `json:"raw_signal_tags,omitempty" yaml:"raw_signal_tags,omitempty"`
	ScenarioTags  []string       `json:"scenario_tags,omitempty" yaml:"scenario_tags,omitempty"`

	CodeHostHandle     string `json:"code_host_handle,omitempty" yaml:"code_host_handle,omitempty"`
	ScholarAuthorID    string `json:"scholar_author_id,omitempty" yaml:"scholar_author_id,omitempty"`
	PatentInventorName string `json:"patent_inventor_name,omitempty" yaml:"patent_inventor_name,omitempty"`

	// AltHandles are further code-host handles carried by merged records,
	// normalized and sorted. CodeHostHandle is never among them.
	AltHandles []string `json:"alt_handles,omitempty" yaml:"alt_handles,omitempty"`

	Observations []Observation `json:"observations,omitempty" yaml:"observations,omitempty"`

	FirstSeen time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time `json:"last_seen" yaml:"last_seen"`
}

// HasSource reports whether any merged record came from s.
func (p *Person) HasSource(s SourceSystem) bool {
	for _, have := range p.SourceSystems {
		if have == s {
			return true
		}
	}
	return false
}

// ObservationsOf returns the observations of one kind in stored order.
func (p *Person) ObservationsOf(kind ObservationKind) []Observation {
	var out []Observation
	for _, o := range p.Observations {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}
