// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// File reads candidate records from a local YAML or JSON file. The query is
// the file path, relative to Dir unless absolute. The document is either a
// capture (a mapping with a records list) or a bare list of records.
//
// Hand-maintained lists are loosely typed: ids may be numbers, lists may be
// comma-separated strings, dates may be bare years. Values are coerced with
// cast rather than rejected.
type File struct {
	Dir string
}

func (c *File) Name() string { return NameFile }

// System is the fallback for rows that do not name a source system.
func (c *File) System() types.SourceSystem { return types.SourceScholarIndex }

// Search loads the file and returns at most limit records (0 means all).
func (c *File) Search(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error) {
	path := strings.TrimSpace(query)
	if path == "" {
		return nil, fmt.Errorf("empty file query")
	}
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	rows, err := recordRows(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var records []types.RawCandidateRecord
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limit > 0 && len(records) >= limit {
			break
		}
		rec, err := c.record(row, query)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordRows(doc any) ([]any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case map[string]any:
		recs, ok := v["records"]
		if !ok {
			return nil, fmt.Errorf("mapping has no records list")
		}
		list, ok := recs.([]any)
		if !ok && recs != nil {
			return nil, fmt.Errorf("records is %T, not a list", recs)
		}
		return list, nil
	}
	return nil, fmt.Errorf("unexpected document of type %T", doc)
}

func (c *File) record(row any, query string) (types.RawCandidateRecord, error) {
	m, err := cast.ToStringMapE(row)
	if err != nil {
		return types.RawCandidateRecord{}, err
	}

	sys := c.System()
	if s := cast.ToString(m["source_system"]); s != "" {
		if sys, err = types.ParseSourceSystem(s); err != nil {
			return types.RawCandidateRecord{}, err
		}
	}

	rec := types.RawCandidateRecord{
		SourceSystem:       sys,
		SourceQuery:        cast.ToString(m["source_query"]),
		Scenario:           cast.ToString(m["scenario"]),
		ExternalID:         cast.ToString(m["external_id"]),
		DisplayName:        cast.ToString(m["display_name"]),
		Affiliation:        cast.ToString(m["affiliation"]),
		EvidenceURLs:       stringList(m["evidence_urls"]),
		RawSignalTags:      stringList(m["raw_signal_tags"]),
		ScholarAuthorID:    cast.ToString(m["scholar_author_id"]),
		CodeHostHandle:     cast.ToString(m["code_host_handle"]),
		PatentInventorName: cast.ToString(m["patent_inventor_name"]),
	}
	if rec.SourceQuery == "" {
		rec.SourceQuery = query
	}
	if v, ok := m["discovered_at"]; ok && v != nil {
		if rec.DiscoveredAt, err = toTime(v); err != nil {
			return rec, fmt.Errorf("discovered_at: %w", err)
		}
	}

	obs, err := cast.ToSliceE(m["observations"])
	if err != nil && m["observations"] != nil {
		return rec, fmt.Errorf("observations: %w", err)
	}
	for j, o := range obs {
		om, err := cast.ToStringMapE(o)
		if err != nil {
			return rec, fmt.Errorf("observation %d: %w", j+1, err)
		}
		at, err := toTime(om["at"])
		if err != nil {
			return rec, fmt.Errorf("observation %d: at: %w", j+1, err)
		}
		rec.Observations = append(rec.Observations, types.Observation{
			Kind:  types.ObservationKind(strings.ToLower(cast.ToString(om["kind"]))),
			At:    at,
			Count: cast.ToInt(om["count"]),
			Label: cast.ToString(om["label"]),
			URL:   cast.ToString(om["url"]),
		})
	}
	return rec, nil
}

// stringList accepts a list or a comma-separated string.
func stringList(v any) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	out := cast.ToStringSlice(v)
	if len(out) == 0 {
		return nil
	}
	return out
}

// toTime accepts timestamps, dates and bare years. Integers below 10000
// are years, not unix seconds.
func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case int, int64, uint64, float64:
		if y := cast.ToInt(x); y > 0 && y < 10000 {
			return yearStart(y), nil
		}
	case string:
		if y, err := strconv.Atoi(strings.TrimSpace(x)); err == nil && y > 0 && y < 10000 {
			return yearStart(y), nil
		}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func yearStart(y int) time.Time {
	return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
}
