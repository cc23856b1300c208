// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/talent-engine/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scholarRecord() types.RawCandidateRecord {
	return types.RawCandidateRecord{
		SourceSystem:  types.SourceScholarIndex,
		SourceQuery:   "graph neural networks",
		Scenario:      "gnn",
		ExternalID:    "A123",
		DisplayName:   "Jane Doe",
		Affiliation:   "MIT",
		EvidenceURLs:  []string{"https://openalex.org/A123", "https://openalex.org/W1"},
		RawSignalTags: []string{"GNN", " graph learning "},
		DiscoveredAt:  t0,
		Observations: []types.Observation{
			{Kind: types.ObservationCitation, At: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Count: 40},
			{Kind: types.ObservationVenue, At: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Label: "NeurIPS", URL: "https://openalex.org/W1"},
		},
	}
}

func codeRecord() types.RawCandidateRecord {
	return types.RawCandidateRecord{
		SourceSystem:  types.SourceCodeHost,
		SourceQuery:   "language:rust gnn",
		Scenario:      "rust",
		ExternalID:    "janedoe",
		DisplayName:   "J. Doe",
		EvidenceURLs:  []string{"https://github.com/janedoe", "https://openalex.org/A123"},
		RawSignalTags: []string{"rust", "gnn"},
		DiscoveredAt:  t0.Add(-time.Hour),
		Observations: []types.Observation{
			{Kind: types.ObservationActivity, At: t0.Add(-48 * time.Hour), Count: 120, Label: "janedoe/graphs"},
		},
	}
}

func TestMergeFillsEmptyFieldsOnly(t *testing.T) {
	p := &types.Person{}
	Merge(p, scholarRecord(), 10)
	Merge(p, codeRecord(), 10)

	assert.Equal(t, "Jane Doe", p.FullName, "first non-empty name wins")
	assert.Equal(t, "MIT", p.PrimaryAffiliation)
	assert.Equal(t, "A123", p.ScholarAuthorID)
	assert.Equal(t, "janedoe", p.CodeHostHandle)
	assert.Equal(t, []types.SourceSystem{types.SourceCodeHost, types.SourceScholarIndex}, p.SourceSystems)
	assert.Equal(t, []string{"gnn", "graph learning", "rust"}, p.RawSignalTags)
	assert.Equal(t, []string{"gnn", "rust"}, p.ScenarioTags)
	assert.Equal(t, []string{
		"https://openalex.org/A123",
		"https://openalex.org/W1",
		"https://github.com/janedoe",
	}, p.EvidenceURLs)
	assert.Equal(t, t0.Add(-time.Hour), p.FirstSeen)
	assert.Equal(t, t0, p.LastSeen)
}

func TestMergeKeepsLaterHandles(t *testing.T) {
	p := &types.Person{}
	Merge(p, codeRecord(), 10)

	other := codeRecord()
	other.ExternalID = "@JaneDoe-Lab"
	Merge(p, other, 10)
	Merge(p, other, 10)

	again := codeRecord()
	again.ExternalID = "JANEDOE"
	Merge(p, again, 10)

	assert.Equal(t, "janedoe", p.CodeHostHandle)
	assert.Equal(t, []string{"janedoe-lab"}, p.AltHandles, "deduplicated, primary excluded")
}

func TestMergeIdempotent(t *testing.T) {
	once := &types.Person{}
	Merge(once, scholarRecord(), 10)

	twice := &types.Person{}
	Merge(twice, scholarRecord(), 10)
	Merge(twice, scholarRecord(), 10)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("merging the same record twice changed the person (-once +twice):\n%s", diff)
	}
}

func TestMergeCommutativeForEvidenceSets(t *testing.T) {
	ab := &types.Person{}
	Merge(ab, scholarRecord(), 10)
	Merge(ab, codeRecord(), 10)

	ba := &types.Person{}
	Merge(ba, codeRecord(), 10)
	Merge(ba, scholarRecord(), 10)

	assert.ElementsMatch(t, ab.EvidenceURLs, ba.EvidenceURLs)
	assert.Equal(t, ab.RawSignalTags, ba.RawSignalTags)
	assert.Equal(t, ab.ScenarioTags, ba.ScenarioTags)
	assert.Equal(t, ab.SourceSystems, ba.SourceSystems)
	assert.Equal(t, ab.Observations, ba.Observations)
	assert.Equal(t, ab.FirstSeen, ba.FirstSeen)
	assert.Equal(t, ab.LastSeen, ba.LastSeen)
}

func TestMergeCapKeepsEarliest(t *testing.T) {
	p := &types.Person{}
	var urls []string
	for i := 0; i < 8; i++ {
		urls = append(urls, fmt.Sprintf("https://example.org/%d", i))
	}
	Merge(p, types.RawCandidateRecord{SourceSystem: types.SourceCodeHost, EvidenceURLs: urls[:3]}, 5)
	Merge(p, types.RawCandidateRecord{SourceSystem: types.SourceCodeHost, EvidenceURLs: urls[3:]}, 5)

	assert.Equal(t, urls[:5], p.EvidenceURLs)
}

func TestMergeObservationsKeepsLargerCount(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	base := []types.Observation{{Kind: types.ObservationCitation, At: at, Count: 10}}
	add := []types.Observation{
		{Kind: types.ObservationCitation, At: at, Count: 25},
		{Kind: types.ObservationActivity, At: at, Count: 3},
	}
	got := MergeObservations(base, add)
	assert.Equal(t, []types.Observation{
		{Kind: types.ObservationActivity, At: at, Count: 3},
		{Kind: types.ObservationCitation, At: at, Count: 25},
	}, got)

	assert.Equal(t, got, MergeObservations(got, add), "re-merging is a no-op")
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "graph learning", NormalizeTag("  Graph   Learning "))
	assert.Equal(t, "", NormalizeTag("   "))
}
