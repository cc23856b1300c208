// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// Capture is the on-disk form of the raw records a run collected. A capture
// can be replayed through the file connector without re-querying any API.
type Capture struct {
	RunID      string                     `yaml:"run_id"`
	CapturedAt time.Time                  `yaml:"captured_at"`
	Summary    CaptureSummary             `yaml:"summary"`
	Records    []types.RawCandidateRecord `yaml:"records"`
}

// CaptureSummary stores per-scenario yields and failures.
type CaptureSummary struct {
	Total          int               `yaml:"total"`
	ScenarioYields map[string]int    `yaml:"scenario_yields"`
	ScenarioErrors map[string]string `yaml:"scenario_errors,omitempty"`
}

// NewCapture builds a capture. Records are ordered by scenario, source and
// external id so two captures of the same collection compare equal.
func NewCapture(runID string, at time.Time, records []types.RawCandidateRecord, rep Report) Capture {
	recs := make([]types.RawCandidateRecord, len(records))
	copy(recs, records)
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.ScenarioLabel() != b.ScenarioLabel() {
			return a.ScenarioLabel() < b.ScenarioLabel()
		}
		if a.SourceSystem != b.SourceSystem {
			return a.SourceSystem < b.SourceSystem
		}
		if a.ExternalID != b.ExternalID {
			return a.ExternalID < b.ExternalID
		}
		return a.DisplayName < b.DisplayName
	})
	return Capture{
		RunID:      runID,
		CapturedAt: at.UTC(),
		Summary: CaptureSummary{
			Total:          len(recs),
			ScenarioYields: rep.Yields,
			ScenarioErrors: rep.Errors,
		},
		Records: recs,
	}
}

// EncodeCapture writes c as YAML.
func EncodeCapture(w io.Writer, c Capture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("marshaling capture: %w", err)
	}
	return enc.Close()
}

// WriteCapture saves a capture to a YAML file.
func WriteCapture(path string, c Capture) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating capture: %w", err)
	}
	if err := EncodeCapture(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCapture loads a capture written by WriteCapture.
func ReadCapture(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	var c Capture
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing capture: %w", err)
	}
	return &c, nil
}
