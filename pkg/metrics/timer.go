package metrics

import "github.com/benbjohnson/clock"

// Timer measures the distribution of event durations, recorded in
// microseconds, together with the rate at which the events occur.
type Timer struct {
	hist  *Histogram
	meter *Meter
}

func NewTimer(biased bool) *Timer {
	return NewTimerWithClock(biased, clock.New())
}

func NewTimerWithClock(biased bool, clk clock.Clock) *Timer {
	return &Timer{
		hist:  NewHistogram(biased),
		meter: NewMeterWithClock(clk),
	}
}

func (t *Timer) Kind() Kind { return KindTimer }

// Biased reports which sampling strategy backs the duration histogram.
func (t *Timer) Biased() bool { return t.hist.Biased() }

// Update records one duration of the truncated value in microseconds and
// marks a single call on the rate meter.
func (t *Timer) Update(value float64) {
	t.hist.record(int64(value))
	t.meter.Mark(1)
}

func (t *Timer) Snapshot() Snapshot {
	rates := t.meter.Snapshot().Rates

	return Snapshot{
		Kind:         KindTimer,
		Rates:        rates,
		Distribution: t.hist.distribution(),
	}
}
