package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Meter tracks how often events occur, keeping a total count plus
// exponentially-weighted rates over one, five and fifteen minute windows.
type Meter struct {
	mu       sync.Mutex
	clk      clock.Clock
	count    int64
	started  time.Time
	lastTick time.Time
	m1       *ewma
	m5       *ewma
	m15      *ewma
}

func NewMeter() *Meter {
	return NewMeterWithClock(clock.New())
}

// NewMeterWithClock lets tests drive the rate decay deterministically.
func NewMeterWithClock(clk clock.Clock) *Meter {
	now := clk.Now()

	return &Meter{
		clk:      clk,
		started:  now,
		lastTick: now,
		m1:       newEWMA(1 * time.Minute),
		m5:       newEWMA(5 * time.Minute),
		m15:      newEWMA(15 * time.Minute),
	}
}

func (m *Meter) Kind() Kind { return KindMeter }

// Update records one occurrence weighted by the truncated value.
func (m *Meter) Update(value float64) {
	m.Mark(int64(value))
}

// Mark records n occurrences.
func (m *Meter) Mark(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickIfNecessary()
	m.count += n
	m.m1.update(n)
	m.m5.update(n)
	m.m15.update(n)
}

func (m *Meter) Count() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.count
}

func (m *Meter) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickIfNecessary()

	var meanRate float64
	if elapsed := m.clk.Now().Sub(m.started).Seconds(); elapsed > 0 {
		meanRate = float64(m.count) / elapsed
	}

	return Snapshot{
		Kind: KindMeter,
		Rates: &RateSnapshot{
			Count:    m.count,
			MeanRate: meanRate,
			Rate1m:   m.m1.currentRate(),
			Rate5m:   m.m5.currentRate(),
			Rate15m:  m.m15.currentRate(),
		},
	}
}

// tickIfNecessary catches the averages up with wall-clock time. Callers must
// hold mu.
func (m *Meter) tickIfNecessary() {
	elapsed := m.clk.Now().Sub(m.lastTick)
	ticks := int64(elapsed / rateTickInterval)

	if ticks == 0 {
		return
	}

	m.lastTick = m.lastTick.Add(time.Duration(ticks) * rateTickInterval)

	for i := int64(0); i < ticks; i++ {
		m.m1.tick()
		m.m5.tick()
		m.m15.tick()
	}
}
