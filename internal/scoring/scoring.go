// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes the deterministic ranking score of a resolved
// Person and the total order used for output rows.
package scoring

import (
	"sort"
	"strings"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// Fixed, auditable weights of the ranking score. They are not tunable per
// call; changing them changes every ranking.
const (
	ScenarioWeight = 10.0
	EvidenceWeight = 2.0
	TopicWeight    = 1.5
)

// Score returns 10*|scenario_tags| + 2*|evidence_urls| + 1.5*|topic tags|.
// Tags are counted after case folding, so "Rust" and "rust" count once.
func Score(p *types.Person) float64 {
	return ScenarioWeight*float64(countUnique(p.ScenarioTags, false)) +
		EvidenceWeight*float64(countUnique(p.EvidenceURLs, false)) +
		TopicWeight*float64(countUnique(p.RawSignalTags, true))
}

// Ranked is a Person with its score and 1-based rank.
type Ranked struct {
	Person *types.Person
	Score  float64
	Rank   int
}

// Rank scores persons and sorts them by score descending, then full name
// ascending (case-insensitive), then person id. The order is total, so the
// same persons always produce the same row order. The input is not modified.
func Rank(persons []*types.Person) []Ranked {
	out := make([]Ranked, 0, len(persons))
	for _, p := range persons {
		if p == nil {
			continue
		}
		out = append(out, Ranked{Person: p, Score: Score(p)})
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Less reports whether a sorts before b.
func Less(a, b Ranked) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	an, bn := strings.ToLower(a.Person.FullName), strings.ToLower(b.Person.FullName)
	if an != bn {
		return an < bn
	}
	return a.Person.PersonID < b.Person.PersonID
}

func countUnique(values []string, fold bool) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
