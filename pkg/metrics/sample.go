package metrics

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// reservoir keeps a fixed-size uniform sample of the recorded values
// (Vitter's Algorithm R), so memory stays bounded no matter how many samples
// arrive.
type reservoir struct {
	mu     sync.Mutex
	size   int
	count  int64
	values []int64
	rnd    *rand.Rand
}

func newReservoir(size int) *reservoir {
	return &reservoir{
		size:   size,
		values: make([]int64, 0, size),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *reservoir) update(v int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++

	if len(r.values) < r.size {
		r.values = append(r.values, v)
		return
	}

	if idx := r.rnd.Int63n(r.count); idx < int64(r.size) {
		r.values[idx] = v
	}
}

func (r *reservoir) snapshot() *DistributionSnapshot {
	r.mu.Lock()
	values := make([]int64, len(r.values))
	copy(values, r.values)
	count := r.count
	r.mu.Unlock()

	snap := &DistributionSnapshot{Count: count}
	if len(values) == 0 {
		return snap
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Min = values[0]
	snap.Max = values[len(values)-1]

	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	snap.Mean = sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := float64(v) - snap.Mean
		variance += d * d
	}
	if len(values) > 1 {
		snap.StdDev = math.Sqrt(variance / float64(len(values)-1))
	}

	snap.P50 = percentile(values, 0.50)
	snap.P75 = percentile(values, 0.75)
	snap.P95 = percentile(values, 0.95)
	snap.P99 = percentile(values, 0.99)

	return snap
}

// percentile interpolates the q-th quantile of a sorted sample.
func percentile(sorted []int64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	pos := q * float64(len(sorted)+1)

	switch {
	case pos < 1:
		return float64(sorted[0])
	case pos >= float64(len(sorted)):
		return float64(sorted[len(sorted)-1])
	}

	lower := float64(sorted[int(pos)-1])
	upper := float64(sorted[int(pos)])

	return lower + (pos-math.Floor(pos))*(upper-lower)
}
