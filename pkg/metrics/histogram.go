package metrics

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// HDR histogram range: 1 microsecond to 1 hour at 3 significant figures.
	histogramMinValue = 1
	histogramMaxValue = 3600000000
	histogramSigFigs  = 3

	// reservoirSize bounds the biased variant's memory.
	reservoirSize = 1028
)

// Histogram tracks the statistical distribution of reported values. The
// sampling strategy is fixed irrevocably at creation: the default records the
// full population in an HDR histogram, the biased variant keeps a fixed-size
// reservoir sample.
type Histogram struct {
	biased bool

	mu   sync.Mutex
	hist *hdrhistogram.Histogram // nil when biased
	res  *reservoir              // nil when unbiased
}

func NewHistogram(biased bool) *Histogram {
	if biased {
		return &Histogram{biased: true, res: newReservoir(reservoirSize)}
	}

	return &Histogram{
		hist: hdrhistogram.New(histogramMinValue, histogramMaxValue, histogramSigFigs),
	}
}

func (h *Histogram) Kind() Kind { return KindHistogram }

// Biased reports which sampling strategy was chosen at creation.
func (h *Histogram) Biased() bool { return h.biased }

// Update adds the truncated value as one sample. There is no reset; zero
// values are recorded like any other sample.
func (h *Histogram) Update(value float64) {
	h.record(int64(value))
}

func (h *Histogram) record(v int64) {
	if h.biased {
		h.res.update(v)
		return
	}

	// The HDR histogram rejects values outside its trackable range; clamp so
	// out-of-range samples still count toward the distribution's tails.
	if v < 0 {
		v = 0
	} else if v > histogramMaxValue {
		v = histogramMaxValue
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_ = h.hist.RecordValue(v)
}

func (h *Histogram) Snapshot() Snapshot {
	return Snapshot{Kind: KindHistogram, Distribution: h.distribution()}
}

func (h *Histogram) distribution() *DistributionSnapshot {
	if h.biased {
		return h.res.snapshot()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return &DistributionSnapshot{
		Count:  h.hist.TotalCount(),
		Min:    h.hist.Min(),
		Max:    h.hist.Max(),
		Mean:   h.hist.Mean(),
		StdDev: h.hist.StdDev(),
		P50:    float64(h.hist.ValueAtQuantile(50)),
		P75:    float64(h.hist.ValueAtQuantile(75)),
		P95:    float64(h.hist.ValueAtQuantile(95)),
		P99:    float64(h.hist.ValueAtQuantile(99)),
	}
}
