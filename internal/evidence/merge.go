// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence accumulates provenance from raw connector records onto a
// resolved Person without losing information.
//
// Merge is commutative and idempotent for every set-valued field: applying
// the same record twice, or records in another order, yields the same
// source systems, tags, scenario tags and observations. Two fields are
// order-sensitive by contract: the first non-empty name/affiliation/identity
// hint wins, and when EvidenceURLs reaches its limit the earliest URLs are the
// ones retained. Handles after the first are kept in AltHandles. The identity resolver feeds records in a canonical order so
// that both exceptions are reproducible.
package evidence

import (
	"sort"
	"strings"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// DefaultEvidenceCap is used when Merge is called with limit <= 0.
const DefaultEvidenceCap = 25

// Merge folds rec into p. The caller owns p.
func Merge(p *types.Person, rec types.RawCandidateRecord, limit int) {
	if limit <= 0 {
		limit = DefaultEvidenceCap
	}

	if rec.SourceSystem != "" {
		p.SourceSystems = insertSource(p.SourceSystems, rec.SourceSystem)
	}
	p.EvidenceURLs = appendURLs(p.EvidenceURLs, rec.EvidenceURLs, limit)
	for _, o := range rec.Observations {
		if o.URL != "" {
			p.EvidenceURLs = appendURLs(p.EvidenceURLs, []string{o.URL}, limit)
		}
	}

	for _, tag := range rec.RawSignalTags {
		p.RawSignalTags = insertSorted(p.RawSignalTags, NormalizeTag(tag))
	}
	p.ScenarioTags = insertSorted(p.ScenarioTags, strings.TrimSpace(rec.ScenarioLabel()))
	p.Observations = MergeObservations(p.Observations, rec.Observations)

	fillEmpty(&p.FullName, rec.DisplayName)
	fillEmpty(&p.PrimaryAffiliation, rec.Affiliation)
	fillEmpty(&p.ScholarAuthorID, rec.ScholarID())
	fillEmpty(&p.CodeHostHandle, rec.Handle())
	if h := NormalizeHandle(rec.Handle()); h != "" && h != NormalizeHandle(p.CodeHostHandle) {
		p.AltHandles = insertSorted(p.AltHandles, h)
	}
	fillEmpty(&p.PatentInventorName, rec.InventorName())

	if !rec.DiscoveredAt.IsZero() {
		at := rec.DiscoveredAt.UTC()
		if p.FirstSeen.IsZero() || at.Before(p.FirstSeen) {
			p.FirstSeen = at
		}
		if at.After(p.LastSeen) {
			p.LastSeen = at
		}
	}
}

// NormalizeHandle lowercases a code-host handle and strips a leading "@".
func NormalizeHandle(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

// NormalizeTag lowercases and trims a topic tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.Join(strings.Fields(tag), " "))
}

// MergeObservations unions add into base keyed by Observation.Key. When the
// same event is seen twice the larger count is kept. The result is sorted by
// kind, time, label and URL.
func MergeObservations(base, add []types.Observation) []types.Observation {
	if len(add) == 0 {
		return base
	}
	idx := make(map[string]int, len(base)+len(add))
	out := make([]types.Observation, 0, len(base)+len(add))
	for _, group := range [][]types.Observation{base, add} {
		for _, o := range group {
			o.At = o.At.UTC()
			k := o.Key()
			if i, ok := idx[k]; ok {
				if o.Count > out[i].Count {
					out[i].Count = o.Count
				}
				continue
			}
			idx[k] = len(out)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.URL < b.URL
	})
	return out
}

func fillEmpty(dst *string, v string) {
	if *dst != "" {
		return
	}
	*dst = strings.TrimSpace(v)
}

func appendURLs(dst, urls []string, limit int) []string {
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || len(dst) >= limit || contains(dst, u) {
			continue
		}
		dst = append(dst, u)
	}
	return dst
}

func contains(list []string, v string) bool {
	for _, have := range list {
		if have == v {
			return true
		}
	}
	return false
}

func insertSorted(list []string, v string) []string {
	if v == "" {
		return list
	}
	i := sort.SearchStrings(list, v)
	if i < len(list) && list[i] == v {
		return list
	}
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}

func insertSource(list []types.SourceSystem, s types.SourceSystem) []types.SourceSystem {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	list = append(list, s)
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}
