package metrics

import (
	"fmt"
	"log"
	"strings"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxMetrics is the registry capacity used when none is configured.
const DefaultMaxMetrics = 500

// Name is the decomposed form of a dot-delimited metric name. For names with
// at least three segments the first is the group, the second the category and
// the rest rejoined form the short name; anything shorter is all group.
type Name struct {
	Full      string `json:"name"`
	Group     string `json:"group"`
	Category  string `json:"category"`
	ShortName string `json:"short_name"`
}

// ParseName splits a metric name into its hierarchy.
func ParseName(full string) Name {
	parts := strings.Split(full, ".")
	if len(parts) >= 3 {
		return Name{
			Full:      full,
			Group:     parts[0],
			Category:  parts[1],
			ShortName: strings.Join(parts[2:], "."),
		}
	}

	return Name{Full: full, Group: full}
}

// NamedSnapshot ties a snapshot to its decomposed name for reporters.
type NamedSnapshot struct {
	Name
	Snapshot
}

type entry struct {
	name   Name
	metric Metric
}

// Registry is a bounded name→metric map with lazy creation. Inserting past
// capacity silently evicts the entry least recently touched by ingestion.
// All methods are safe to call concurrently, so reporters can read snapshots
// while the ingestion loop keeps writing.
type Registry struct {
	cache *lru.Cache[string, *entry]
	clk   clock.Clock
}

func NewRegistry(maxMetrics int) (*Registry, error) {
	return NewRegistryWithClock(maxMetrics, clock.New())
}

// NewRegistryWithClock lets tests control the clock handed to rate-keeping
// metrics.
func NewRegistryWithClock(maxMetrics int, clk clock.Clock) (*Registry, error) {
	if maxMetrics <= 0 {
		maxMetrics = DefaultMaxMetrics
	}

	cache, err := lru.New[string, *entry](maxMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric cache: %w", err)
	}

	return &Registry{cache: cache, clk: clk}, nil
}

// GetOrCreate returns the metric registered under name, creating it on first
// sighting. The kind and biased flag are authoritative only at creation; an
// existing entry is returned as-is whatever the arguments say, and its name
// is never re-decomposed. An unrecognized kind registers nothing and returns
// nil.
func (r *Registry) GetOrCreate(name string, kind Kind, biased bool) Metric {
	if e, ok := r.cache.Get(name); ok {
		return e.metric
	}

	metric := r.newMetric(kind, biased)
	if metric == nil {
		return nil
	}

	log.Printf("Creating new %s metric for '%s'", kind, name)
	r.cache.Add(name, &entry{name: ParseName(name), metric: metric})

	return metric
}

func (r *Registry) newMetric(kind Kind, biased bool) Metric {
	switch kind {
	case KindGauge:
		return NewGauge()
	case KindCounter:
		return NewCounter()
	case KindMeter:
		return NewMeterWithClock(r.clk)
	case KindHistogram:
		return NewHistogram(biased)
	case KindTimer:
		return NewTimerWithClock(biased, r.clk)
	default:
		return nil
	}
}

// Lookup returns a snapshot of a single metric without disturbing its LRU
// position.
func (r *Registry) Lookup(name string) (NamedSnapshot, bool) {
	e, ok := r.cache.Peek(name)
	if !ok {
		return NamedSnapshot{}, false
	}

	return NamedSnapshot{Name: e.name, Snapshot: e.metric.Snapshot()}, true
}

// Snapshot enumerates all live metrics. Reads go through Peek so reporters
// never affect which entries get evicted.
func (r *Registry) Snapshot() []NamedSnapshot {
	keys := r.cache.Keys()

	out := make([]NamedSnapshot, 0, len(keys))
	for _, key := range keys {
		e, ok := r.cache.Peek(key)
		if !ok {
			// Evicted between Keys and Peek.
			continue
		}

		out = append(out, NamedSnapshot{Name: e.name, Snapshot: e.metric.Snapshot()})
	}

	return out
}

// Len is the number of live metrics.
func (r *Registry) Len() int {
	return r.cache.Len()
}
