// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity resolves raw connector records into deduplicated Person
// entities using a fixed precedence of identity keys: scholarly-author id,
// then code-host handle, then the normalized name + affiliation composite.
package identity

import (
	"sort"
	"strings"

	"github.com/pdiddy/talent-engine/internal/evidence"
	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Result holds the resolved persons and resolution statistics.
type Result struct {
	// Persons are in creation order, which is deterministic for a given
	// input set. Ranking decides output order.
	Persons []*types.Person

	// Dropped lists records without a usable identity key.
	Dropped []*Error

	// Merged counts records folded into an existing Person.
	Merged int

	// Conflicts counts records whose handle belonged to a Person with a
	// different scholarly id; they were kept apart.
	Conflicts int

	// AltHandles counts handles kept as aliases on a Person that already
	// had a different handle.
	AltHandles int
}

// Resolver merges records into persons. It holds no state between calls.
type Resolver struct {
	EvidenceCap int
	Log         *logger.Logger
}

// NewResolver returns a Resolver with the given evidence cap.
func NewResolver(evidenceCap int, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{EvidenceCap: evidenceCap, Log: log}
}

type keyedRecord struct {
	rec  types.RawCandidateRecord
	keys Keys
	best Key
}

// Resolve resolves records into persons. The result depends only on the set
// of records, not on their order: records are first sorted by their best key
// (strongest level first) and a fixed list of tie-breakers.
func (r *Resolver) Resolve(records []types.RawCandidateRecord) Result {
	var res Result

	keyed := make([]keyedRecord, 0, len(records))
	for _, rec := range records {
		ks := KeysFor(rec)
		best, ok := ks.Best()
		if !ok {
			err := &Error{
				Kind:         KindNoUsableKey,
				SourceSystem: string(rec.SourceSystem),
				SourceQuery:  rec.SourceQuery,
				ExternalID:   rec.ExternalID,
			}
			res.Dropped = append(res.Dropped, err)
			r.Log.Debug().Err(err).Msg("dropping record")
			continue
		}
		keyed = append(keyed, keyedRecord{rec: rec, keys: ks, best: best})
	}
	sortCanonical(keyed)

	byScholar := make(map[string]*types.Person)
	byHandle := make(map[string]*types.Person)
	byName := make(map[string]*types.Person)

	for _, kr := range keyed {
		target := r.lookup(kr, byScholar, byHandle, byName, &res)
		if target == nil {
			target = &types.Person{
				PersonID:    PersonID(kr.best),
				IdentityKey: kr.best.String(),
			}
			res.Persons = append(res.Persons, target)
			if kr.best.Level == LevelName {
				byName[kr.best.Value] = target
			}
		} else {
			res.Merged++
		}

		alts := len(target.AltHandles)
		evidence.Merge(target, kr.rec, r.EvidenceCap)
		if len(target.AltHandles) > alts {
			res.AltHandles++
			r.Log.Debug().
				Str("person_id", target.PersonID).
				Str("handle", target.CodeHostHandle).
				Strs("alt_handles", target.AltHandles).
				Msg("additional handle kept as alias")
		}

		// Strong keys the Person now carries become lookup aliases, unless
		// another Person already claimed them. They never change the id.
		if id := target.ScholarAuthorID; id != "" {
			if _, taken := byScholar[id]; !taken {
				byScholar[id] = target
			}
		}
		for _, h := range append([]string{NormalizeHandle(target.CodeHostHandle)}, target.AltHandles...) {
			if h == "" {
				continue
			}
			if _, taken := byHandle[h]; !taken {
				byHandle[h] = target
			}
		}
	}

	r.Log.Info().
		Int("records", len(records)).
		Int("persons", len(res.Persons)).
		Int("merged", res.Merged).
		Int("dropped", len(res.Dropped)).
		Int("conflicts", res.Conflicts).
		Int("alt_handles", res.AltHandles).
		Msg("identity resolution complete")
	return res
}

// lookup finds the Person a record belongs to, or nil for a new Person.
// A record matches on its highest-precedence strong key. The name composite
// is consulted only for records with no strong key, and only matches
// persons that were themselves created under a name composite.
func (r *Resolver) lookup(kr keyedRecord, byScholar, byHandle, byName map[string]*types.Person, res *Result) *types.Person {
	if !kr.keys.Scholar.IsZero() {
		if p, ok := byScholar[kr.keys.Scholar.Value]; ok {
			return p
		}
	}
	if !kr.keys.CodeHost.IsZero() {
		if p, ok := byHandle[kr.keys.CodeHost.Value]; ok {
			if kr.keys.Scholar.IsZero() || p.ScholarAuthorID == "" {
				return p
			}
			res.Conflicts++
			r.Log.Warn().
				Str("handle", kr.keys.CodeHost.Value).
				Str("existing_scholar_id", p.ScholarAuthorID).
				Str("record_scholar_id", kr.keys.Scholar.Value).
				Msg("handle already bound to another scholarly id, keeping persons apart")
			return nil
		}
	}
	if kr.keys.Scholar.IsZero() && kr.keys.CodeHost.IsZero() {
		return byName[kr.keys.Name.Value]
	}
	return nil
}

func sortCanonical(keyed []keyedRecord) {
	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.best.Level != b.best.Level {
			return a.best.Level < b.best.Level
		}
		if a.best.Value != b.best.Value {
			return a.best.Value < b.best.Value
		}
		if a.rec.SourceSystem != b.rec.SourceSystem {
			return a.rec.SourceSystem < b.rec.SourceSystem
		}
		if !a.rec.DiscoveredAt.Equal(b.rec.DiscoveredAt) {
			return a.rec.DiscoveredAt.Before(b.rec.DiscoveredAt)
		}
		if a.rec.ScenarioLabel() != b.rec.ScenarioLabel() {
			return a.rec.ScenarioLabel() < b.rec.ScenarioLabel()
		}
		if a.rec.ExternalID != b.rec.ExternalID {
			return a.rec.ExternalID < b.rec.ExternalID
		}
		if a.rec.DisplayName != b.rec.DisplayName {
			return a.rec.DisplayName < b.rec.DisplayName
		}
		if a.keys.CodeHost.Value != b.keys.CodeHost.Value {
			return a.keys.CodeHost.Value < b.keys.CodeHost.Value
		}
		return strings.Join(a.rec.EvidenceURLs, "\n") < strings.Join(b.rec.EvidenceURLs, "\n")
	})
}
