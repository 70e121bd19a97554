package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		full string
		want Name
	}{
		{
			name: "three segments",
			full: "app.web.requests",
			want: Name{Full: "app.web.requests", Group: "app", Category: "web", ShortName: "requests"},
		},
		{
			name: "extra segments join the short name",
			full: "app.web.requests.latency.p99",
			want: Name{Full: "app.web.requests.latency.p99", Group: "app", Category: "web", ShortName: "requests.latency.p99"},
		},
		{
			name: "single word",
			full: "singleword",
			want: Name{Full: "singleword", Group: "singleword"},
		},
		{
			name: "two segments",
			full: "app.requests",
			want: Name{Full: "app.requests", Group: "app.requests"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseName(tt.full))
		})
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	r, err := NewRegistry(10)
	require.NoError(t, err)

	m := r.GetOrCreate("app.web.requests", KindCounter, false)
	require.NotNil(t, m)
	assert.Equal(t, KindCounter, m.Kind())

	// Repeat sightings return the same instance; the claimed kind no longer
	// matters.
	again := r.GetOrCreate("app.web.requests", KindGauge, false)
	assert.Same(t, m, again)
	assert.Equal(t, 1, r.Len())

	snap, ok := r.Lookup("app.web.requests")
	require.True(t, ok)
	assert.Equal(t, "app", snap.Group)
	assert.Equal(t, "web", snap.Category)
	assert.Equal(t, "requests", snap.ShortName)
}

func TestRegistryUnknownKind(t *testing.T) {
	r, err := NewRegistry(10)
	require.NoError(t, err)

	m := r.GetOrCreate("app.web.bogus", Kind("sparkline"), false)
	assert.Nil(t, m)
	assert.Zero(t, r.Len())

	_, ok := r.Lookup("app.web.bogus")
	assert.False(t, ok)
}

func TestRegistryLRUEviction(t *testing.T) {
	const capacity = 3

	r, err := NewRegistry(capacity)
	require.NoError(t, err)

	r.GetOrCreate("a", KindCounter, false)
	r.GetOrCreate("b", KindCounter, false)
	r.GetOrCreate("c", KindCounter, false)

	// Touch "a" so "b" becomes the least recently used entry.
	r.GetOrCreate("a", KindCounter, false)

	r.GetOrCreate("d", KindCounter, false)
	assert.Equal(t, capacity, r.Len())

	_, ok := r.Lookup("b")
	assert.False(t, ok, "least recently used entry should have been evicted")

	for _, name := range []string{"a", "c", "d"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "entry %q should survive the eviction", name)
	}
}

func TestRegistrySnapshotDoesNotDisturbEvictionOrder(t *testing.T) {
	r, err := NewRegistry(2)
	require.NoError(t, err)

	r.GetOrCreate("first", KindCounter, false)
	r.GetOrCreate("second", KindCounter, false)

	// A reporter reading snapshots must not refresh recency.
	r.Snapshot()
	r.Lookup("first")

	r.GetOrCreate("third", KindCounter, false)

	_, ok := r.Lookup("first")
	assert.False(t, ok, "ingestion order alone decides eviction")
}

func TestRegistryDefaultCapacity(t *testing.T) {
	r, err := NewRegistry(0)
	require.NoError(t, err)

	for i := 0; i < DefaultMaxMetrics+50; i++ {
		r.GetOrCreate(fmt.Sprintf("metric.%d", i), KindGauge, false)
	}

	assert.Equal(t, DefaultMaxMetrics, r.Len())
}

func TestRegistrySnapshotPerKind(t *testing.T) {
	r, err := NewRegistry(10)
	require.NoError(t, err)

	r.GetOrCreate("app.web.hits", KindCounter, false).Update(5)
	r.GetOrCreate("app.web.depth", KindGauge, false).Update(42)
	r.GetOrCreate("app.web.rate", KindMeter, false).Update(1)
	r.GetOrCreate("app.web.sizes", KindHistogram, true).Update(100)
	r.GetOrCreate("app.web.latency", KindTimer, false).Update(2500)

	snapshots := r.Snapshot()
	require.Len(t, snapshots, 5)

	byName := make(map[string]NamedSnapshot, len(snapshots))
	for _, s := range snapshots {
		byName[s.Full] = s
	}

	require.NotNil(t, byName["app.web.hits"].Value)
	assert.Equal(t, int64(5), *byName["app.web.hits"].Value)

	require.NotNil(t, byName["app.web.depth"].Value)
	assert.Equal(t, int64(42), *byName["app.web.depth"].Value)

	require.NotNil(t, byName["app.web.rate"].Rates)
	assert.Equal(t, int64(1), byName["app.web.rate"].Rates.Count)

	require.NotNil(t, byName["app.web.sizes"].Distribution)
	assert.Equal(t, int64(100), byName["app.web.sizes"].Distribution.Max)

	latency := byName["app.web.latency"]
	require.NotNil(t, latency.Rates)
	require.NotNil(t, latency.Distribution)
	assert.Equal(t, int64(1), latency.Rates.Count)
}
