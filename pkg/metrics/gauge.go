package metrics

import "sync/atomic"

// Gauge holds the most recently reported value.
type Gauge struct {
	value atomic.Int64
}

func NewGauge() *Gauge {
	return &Gauge{}
}

func (g *Gauge) Kind() Kind { return KindGauge }

// Update overwrites the stored value, truncating toward zero.
func (g *Gauge) Update(value float64) {
	g.value.Store(int64(value))
}

func (g *Gauge) Value() int64 {
	return g.value.Load()
}

func (g *Gauge) Snapshot() Snapshot {
	v := g.value.Load()

	return Snapshot{Kind: KindGauge, Value: &v}
}
