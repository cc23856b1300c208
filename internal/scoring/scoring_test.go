// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/talent-engine/pkg/types"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		person types.Person
		want   float64
	}{
		{"empty", types.Person{}, 0},
		{
			name: "all terms",
			person: types.Person{
				ScenarioTags:  []string{"robotics", "rust"},
				EvidenceURLs:  []string{"https://a", "https://b", "https://c"},
				RawSignalTags: []string{"lidar", "slam"},
			},
			want: 10*2 + 2*3 + 1.5*2,
		},
		{
			name: "topic tags counted case-insensitively",
			person: types.Person{
				RawSignalTags: []string{"Rust", "rust", " RUST "},
			},
			want: 1.5,
		},
		{
			name: "blank values ignored",
			person: types.Person{
				ScenarioTags: []string{"", "  "},
				EvidenceURLs: []string{""},
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(&tt.person), 1e-9)
		})
	}
}

func TestRankOrder(t *testing.T) {
	persons := []*types.Person{
		{PersonID: "c", FullName: "bob", ScenarioTags: []string{"x"}},
		{PersonID: "b", FullName: "Alice", ScenarioTags: []string{"x"}},
		{PersonID: "a", FullName: "alice", ScenarioTags: []string{"x"}},
		{PersonID: "d", FullName: "Zed", ScenarioTags: []string{"x", "y"}},
		nil,
	}

	ranked := Rank(persons)
	require.Len(t, ranked, 4)

	var ids []string
	for i, r := range ranked {
		ids = append(ids, r.Person.PersonID)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
	assert.InDelta(t, 20.0, ranked[0].Score, 1e-9)
}

func TestRankDeterministic(t *testing.T) {
	a := &types.Person{PersonID: "1", FullName: "Ann", EvidenceURLs: []string{"u"}}
	b := &types.Person{PersonID: "2", FullName: "Ben", EvidenceURLs: []string{"u"}}
	c := &types.Person{PersonID: "3", FullName: "Cat", ScenarioTags: []string{"s"}}

	first := Rank([]*types.Person{a, b, c})
	second := Rank([]*types.Person{c, b, a})
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Person.PersonID, second[i].Person.PersonID)
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	in := []*types.Person{
		{PersonID: "low", FullName: "A"},
		{PersonID: "high", FullName: "B", ScenarioTags: []string{"s"}},
	}
	Rank(in)
	assert.Equal(t, "low", in[0].PersonID)
}
