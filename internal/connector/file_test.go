// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/talent-engine/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileLooselyTypedList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "seed.yaml", `
- source_system: github
  external_id: jdoe
  display_name: Jane Doe
  evidence_urls: "https://github.com/jdoe, https://jane.dev"
  raw_signal_tags: [robotics, control]
  observations:
    - {kind: Activity, at: "2026-09-01T00:00:00Z", count: "42", label: jdoe/walker}
- source_system: patents
  display_name: Wei Zhang
  discovered_at: 2026-01-02
  observations:
    - {kind: patent, at: 2025, count: 1, label: US1}
- external_id: 12345
  display_name: Ann Lee
`)

	c := &File{Dir: dir}
	recs, err := c.Search(context.Background(), "seed.yaml", 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	jane := recs[0]
	assert.Equal(t, types.SourceCodeHost, jane.SourceSystem)
	assert.Equal(t, "seed.yaml", jane.SourceQuery)
	assert.Equal(t, []string{"https://github.com/jdoe", "https://jane.dev"}, jane.EvidenceURLs)
	assert.Equal(t, []string{"robotics", "control"}, jane.RawSignalTags)
	require.Len(t, jane.Observations, 1)
	assert.Equal(t, types.ObservationActivity, jane.Observations[0].Kind)
	assert.Equal(t, 42, jane.Observations[0].Count)

	wei := recs[1]
	assert.Equal(t, types.SourcePatentIndex, wei.SourceSystem)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), wei.DiscoveredAt)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), wei.Observations[0].At)

	ann := recs[2]
	assert.Equal(t, types.SourceScholarIndex, ann.SourceSystem, "fallback system")
	assert.Equal(t, "12345", ann.ScholarID())

	limited, err := c.Search(context.Background(), filepath.Join(dir, "seed.yaml"), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad-system.yaml", "- {source_system: myspace, display_name: X}\n")
	writeFile(t, dir, "scalar.yaml", "just a string\n")
	writeFile(t, dir, "no-records.yaml", "people: []\n")
	writeFile(t, dir, "bad-time.yaml", "- {display_name: X, observations: [{kind: citation, at: yesterday}]}\n")
	writeFile(t, dir, "empty.yaml", "")

	c := &File{Dir: dir}
	tests := []struct {
		file string
		want string
	}{
		{"missing.yaml", "reading"},
		{"bad-system.yaml", "unknown source system"},
		{"scalar.yaml", "unexpected document"},
		{"no-records.yaml", "no records list"},
		{"bad-time.yaml", "observation 1: at"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			_, err := c.Search(context.Background(), tt.file, 0)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	recs, err := c.Search(context.Background(), "empty.yaml", 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCaptureReplaysThroughFileConnector(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	records := []types.RawCandidateRecord{
		{
			SourceSystem: types.SourceCodeHost, SourceQuery: "robotics", Scenario: "b",
			ExternalID: "jdoe", DisplayName: "Jane Doe", EvidenceURLs: []string{"https://github.com/jdoe"},
			DiscoveredAt: at,
			Observations: []types.Observation{{Kind: types.ObservationActivity, At: at.Add(-time.Hour), Count: 3, Label: "jdoe/x"}},
		},
		{
			SourceSystem: types.SourceScholarIndex, SourceQuery: "robotics", Scenario: "a",
			ExternalID: "A1", DisplayName: "Jane Doe", Affiliation: "MIT", CodeHostHandle: "jdoe",
			DiscoveredAt: at,
		},
	}
	rep := Report{Yields: map[string]int{"a": 1, "b": 1}}

	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, WriteCapture(path, NewCapture("run-1", at, records, rep)))

	back, err := ReadCapture(path)
	require.NoError(t, err)
	assert.Equal(t, 2, back.Summary.Total)
	assert.Equal(t, "a", back.Records[0].Scenario, "sorted by scenario")

	replayed, err := (&File{}).Search(context.Background(), path, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(back.Records, replayed); diff != "" {
		t.Errorf("replayed records differ (-capture +replay):\n%s", diff)
	}
}
