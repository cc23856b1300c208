// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	a, b := New(), New()
	a.PersonsResolved.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.PersonsResolved))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PersonsResolved))
}

func TestCounters(t *testing.T) {
	m := New()
	m.RecordsCollected.WithLabelValues("scholar_index").Add(4)
	m.RecordsDropped.WithLabelValues("no_usable_key").Inc()
	m.Decisions.WithLabelValues("Tier_1", "new").Inc()
	m.ObserveStage("resolve", time.Now().Add(-time.Second))

	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsCollected.WithLabelValues("scholar_index")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsDropped.WithLabelValues("no_usable_key")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RowsEmitted.Set(12)
	path := filepath.Join(t.TempDir(), "talent.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "talent_rows_emitted 12")
}
