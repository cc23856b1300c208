// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/talent-engine/internal/logger"
	"github.com/pdiddy/talent-engine/pkg/types"
)

type fakeConnector struct {
	name   string
	system types.SourceSystem
	search func(ctx context.Context, query string, limit int) ([]types.RawCandidateRecord, error)
}

func (f *fakeConnector) Name() string               { return f.name }
func (f *fakeConnector) System() types.SourceSystem { return f.system }
func (f *fakeConnector) Search(ctx context.Context, q string, limit int) ([]types.RawCandidateRecord, error) {
	return f.search(ctx, q, limit)
}

func fixed(n int) func(context.Context, string, int) ([]types.RawCandidateRecord, error) {
	return func(_ context.Context, q string, limit int) ([]types.RawCandidateRecord, error) {
		m := n
		if limit > 0 && m > limit {
			m = limit
		}
		out := make([]types.RawCandidateRecord, m)
		for i := range out {
			out[i] = types.RawCandidateRecord{ExternalID: q + string(rune('a'+i)), DisplayName: "P"}
		}
		return out, nil
	}
}

func drain(ch <-chan types.RawCandidateRecord) (*[]types.RawCandidateRecord, *sync.WaitGroup) {
	var got []types.RawCandidateRecord
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range ch {
			got = append(got, r)
		}
	}()
	return &got, &wg
}

func TestCollect(t *testing.T) {
	defer goleak.VerifyNone(t)

	set := Set{
		"scholar": &fakeConnector{name: "scholar", system: types.SourceScholarIndex, search: fixed(3)},
		"code":    &fakeConnector{name: "code", system: types.SourceCodeHost, search: fixed(5)},
		"empty":   &fakeConnector{name: "empty", system: types.SourcePatentIndex, search: fixed(0)},
		"broken": &fakeConnector{name: "broken", system: types.SourcePatentIndex, search: func(context.Context, string, int) ([]types.RawCandidateRecord, error) {
			return nil, errors.New("upstream down")
		}},
	}
	scenarios := []types.ScenarioConfig{
		{ID: "s1", Connector: "scholar", Query: "x"},
		{ID: "s2", Connector: "code", Query: "y", Limit: 2},
		{ID: "s3", Connector: "empty", Query: "z"},
		{ID: "s4", Connector: "broken", Query: "w"},
	}

	at := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	ch := make(chan types.RawCandidateRecord)
	got, wg := drain(ch)
	rep, err := Collect(context.Background(), scenarios, set, ch, CollectOptions{
		Concurrency:  2,
		DefaultLimit: 10,
		Now:          func() time.Time { return at },
		Log:          logger.Nop(),
	})
	close(ch)
	wg.Wait()
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"s1": 3, "s2": 2, "s3": 0, "s4": 0}, rep.Yields)
	assert.Equal(t, []string{"s4"}, rep.Failed())
	assert.Equal(t, 5, rep.Records)
	assert.Equal(t, 3, rep.BySource[types.SourceScholarIndex])
	assert.Equal(t, 2, rep.BySource[types.SourceCodeHost])

	require.Len(t, *got, 5)
	for _, r := range *got {
		assert.NotEmpty(t, r.Scenario)
		assert.Equal(t, at, r.DiscoveredAt)
		assert.True(t, r.SourceSystem.Valid())
		assert.NotEmpty(t, r.SourceQuery)
	}
}

func TestCollectRejectsBadScenarios(t *testing.T) {
	set := Set{"a": &fakeConnector{name: "a", system: types.SourceCodeHost, search: fixed(1)}}
	_, err := Collect(context.Background(), []types.ScenarioConfig{
		{ID: "x", Connector: "a", Query: "q"},
		{ID: "x", Connector: "nope", Query: "q"},
	}, set, make(chan types.RawCandidateRecord, 4), CollectOptions{Log: logger.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "x" declared twice`)
	assert.Contains(t, err.Error(), `unknown connector "nope"`)
}

func TestCollectCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	set := Set{"slow": &fakeConnector{name: "slow", system: types.SourceCodeHost, search: func(ctx context.Context, _ string, _ int) ([]types.RawCandidateRecord, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}}

	_, err := Collect(ctx, []types.ScenarioConfig{{ID: "s", Connector: "slow", Query: "q"}}, set,
		make(chan types.RawCandidateRecord), CollectOptions{Log: logger.Nop()})
	assert.ErrorIs(t, err, context.Canceled)
}
