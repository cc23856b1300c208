// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one decision in a history export.
type ExportEntry struct {
	PersonID       string  `json:"person_id" yaml:"person_id"`
	FullName       string  `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	RunID          string  `json:"run_id" yaml:"run_id"`
	MonitoringTier string  `json:"monitoring_tier" yaml:"monitoring_tier"`
	PromoteFlag    bool    `json:"promote_flag" yaml:"promote_flag"`
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`
	TierChange     string  `json:"tier_change" yaml:"tier_change"`
	Rationale      string  `json:"rationale" yaml:"rationale"`
	ConfigVersion  string  `json:"config_version" yaml:"config_version"`
	DecidedAt      string  `json:"decided_at" yaml:"decided_at"`
	NextReviewAt   string  `json:"next_review_at,omitempty" yaml:"next_review_at,omitempty"`
}

// ExportYAML writes the decision history matching opts to cacheDir/history.yaml
// and returns the path.
func (s *Store) ExportYAML(ctx context.Context, opts HistoryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	path := filepath.Join(s.dir, "history.yaml")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the decision history matching opts to cacheDir/history.json
// and returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts HistoryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	path := filepath.Join(s.dir, "history.json")
	return path, os.WriteFile(path, data, 0o644)
}

// ExportEntries returns the history matching opts joined with person names.
func (s *Store) ExportEntries(ctx context.Context, opts HistoryOptions) ([]ExportEntry, error) {
	return s.exportEntries(ctx, opts)
}

func (s *Store) exportEntries(ctx context.Context, opts HistoryOptions) ([]ExportEntry, error) {
	decisions, err := s.History(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	names := make(map[string]string)
	entries := make([]ExportEntry, len(decisions))
	for i, d := range decisions {
		name, ok := names[d.PersonID]
		if !ok {
			if name, err = s.PersonName(ctx, d.PersonID); err != nil {
				return nil, err
			}
			names[d.PersonID] = name
		}
		entries[i] = ExportEntry{
			PersonID:       d.PersonID,
			FullName:       name,
			RunID:          d.RunID,
			MonitoringTier: d.MonitoringTier.String(),
			PromoteFlag:    d.PromoteFlag,
			CompositeScore: d.CompositeScore,
			TierChange:     string(d.TierChange),
			Rationale:      d.Rationale,
			ConfigVersion:  d.ConfigVersion,
			DecidedAt:      formatTime(d.DecidedAt),
			NextReviewAt:   formatTime(d.NextReviewAt),
		}
	}
	return entries, nil
}
