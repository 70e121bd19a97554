// Package metrics implements the typed metric variants (counter, gauge,
// meter, histogram, timer) and the bounded registry that holds them.
package metrics

// Kind identifies one of the five metric variants.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindMeter     Kind = "meter"
	KindHistogram Kind = "histogram"
	KindTimer     Kind = "timer"
)

// ParseKind maps a wire-format type string to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindCounter, KindGauge, KindMeter, KindHistogram, KindTimer:
		return Kind(s), true
	default:
		return "", false
	}
}

// Metric is a single registered metric. Update dispatches on the metric's own
// variant, never on whatever type an incoming record claims, so a message
// with a stale type string cannot corrupt an already-typed entry. All
// implementations are safe for concurrent use.
type Metric interface {
	Kind() Kind
	Update(value float64)
	Snapshot() Snapshot
}

// Snapshot is a point-in-time reading of a metric. Value is set for gauges
// and counters, Rates for meters and timers, Distribution for histograms and
// timers.
type Snapshot struct {
	Kind         Kind                  `json:"kind"`
	Value        *int64                `json:"value,omitempty"`
	Rates        *RateSnapshot         `json:"rates,omitempty"`
	Distribution *DistributionSnapshot `json:"distribution,omitempty"`
}

// RateSnapshot holds a meter's event count and rate estimates.
type RateSnapshot struct {
	Count    int64   `json:"count"`
	MeanRate float64 `json:"mean_rate"`
	Rate1m   float64 `json:"rate_1m"`
	Rate5m   float64 `json:"rate_5m"`
	Rate15m  float64 `json:"rate_15m"`
}

// DistributionSnapshot summarizes a histogram's sample distribution.
type DistributionSnapshot struct {
	Count  int64   `json:"count"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}
