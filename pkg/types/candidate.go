// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the talent-engine pipeline:
// raw connector records, resolved persons, signal bundles, watchlist
// decisions, canonical output rows, and the configuration of every stage.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SourceSystem identifies the kind of discovery source that produced a record.
type SourceSystem string

const (
	SourceCodeHost     SourceSystem = "code_host"
	SourceScholarIndex SourceSystem = "scholar_index"
	SourcePatentIndex  SourceSystem = "patent_index"
)

// Valid reports whether s is one of the known source systems.
func (s SourceSystem) Valid() bool {
	switch s {
	case SourceCodeHost, SourceScholarIndex, SourcePatentIndex:
		return true
	}
	return false
}

// ParseSourceSystem accepts the canonical names plus a few common spellings
// ("github", "openalex", "patents").
func ParseSourceSystem(s string) (SourceSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code_host", "codehost", "github":
		return SourceCodeHost, nil
	case "scholar_index", "scholarindex", "scholar", "openalex", "semantic_scholar":
		return SourceScholarIndex, nil
	case "patent_index", "patentindex", "patent", "patents", "patentsview":
		return SourcePatentIndex, nil
	}
	return "", fmt.Errorf("unknown source system %q", s)
}

// ObservationKind names the signal family a dated observation feeds.
type ObservationKind string

const (
	ObservationCitation ObservationKind = "citation"
	ObservationActivity ObservationKind = "activity"
	ObservationVenue    ObservationKind = "venue"
	ObservationPatent   ObservationKind = "patent"
)

// Observation is one dated evidence fact reported by a connector, such as a
// yearly citation count, a repository push, a publication venue, or a patent
// filing. Observations are the only input of the signal engine.
type Observation struct {
	Kind ObservationKind `json:"kind" yaml:"kind"`

	// At is when the observed event happened.
	At time.Time `json:"at" yaml:"at"`

	// Count is the magnitude of the event (citations, stars, events).
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	// Label names the artifact: venue name, repository, patent number.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// URL points at the source artifact for provenance.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Key identifies an observation for deduplication. Count is excluded so
// that repeated sightings of the same event collapse into one entry.
func (o Observation) Key() string {
	return string(o.Kind) + "|" + strings.ToLower(o.Label) + "|" + o.At.UTC().Format(time.RFC3339) + "|" + o.URL
}

// RawCandidateRecord is the output of one source connector for one
// discovered entity. Records are immutable once produced.
type RawCandidateRecord struct {
	SourceSystem SourceSystem `json:"source_system" yaml:"source_system"`

	// SourceQuery is the search expression that produced the record.
	SourceQuery string `json:"source_query" yaml:"source_query"`

	// Scenario is the label of the scenario the collector ran. Empty means
	// the query itself is the scenario.
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty"`

	// ExternalID is source specific: an author id, a login, a patent number.
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`

	DisplayName string `json:"display_name" yaml:"display_name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`

	// EvidenceURLs is ordered and deduplicated.
	EvidenceURLs []string `json:"evidence_urls,omitempty" yaml:"evidence_urls,omitempty"`

	// RawSignalTags holds matched topic keywords.
	RawSignalTags []string `json:"raw_signal_tags,omitempty" yaml:"raw_signal_tags,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at" yaml:"discovered_at"`

	// Cross-source identity hints. A scholar record that links a code-host
	// profile sets CodeHostHandle, and so on.
	ScholarAuthorID    string `json:"scholar_author_id,omitempty" yaml:"scholar_author_id,omitempty"`
	CodeHostHandle     string `json:"code_host_handle,omitempty" yaml:"code_host_handle,omitempty"`
	PatentInventorName string `json:"patent_inventor_name,omitempty" yaml:"patent_inventor_name,omitempty"`

	Observations []Observation `json:"observations,omitempty" yaml:"observations,omitempty"`
}

// ScenarioLabel returns the scenario this record counts toward.
func (r RawCandidateRecord) ScenarioLabel() string {
	if r.Scenario != "" {
		return r.Scenario
	}
	return r.SourceQuery
}

// ScholarID returns the scholarly-author id carried by the record, if any.
func (r RawCandidateRecord) ScholarID() string {
	if id := strings.TrimSpace(r.ScholarAuthorID); id != "" {
		return id
	}
	if r.SourceSystem == SourceScholarIndex {
		return strings.TrimSpace(r.ExternalID)
	}
	return ""
}

// Handle returns the code-host handle carried by the record, if any.
func (r RawCandidateRecord) Handle() string {
	if h := strings.TrimSpace(r.CodeHostHandle); h != "" {
		return h
	}
	if r.SourceSystem == SourceCodeHost {
		return strings.TrimSpace(r.ExternalID)
	}
	return ""
}

// InventorName returns the patent inventor name carried by the record.
func (r RawCandidateRecord) InventorName() string {
	if n := strings.TrimSpace(r.PatentInventorName); n != "" {
		return n
	}
	if r.SourceSystem == SourcePatentIndex {
		return strings.TrimSpace(r.DisplayName)
	}
	return ""
}
