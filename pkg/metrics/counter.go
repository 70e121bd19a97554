package metrics

import "sync/atomic"

// Counter holds a running, adjustable total.
type Counter struct {
	count atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Kind() Kind { return KindCounter }

// Update adds the truncated value to the running count. A value of exactly
// zero clears the counter instead of adding nothing; existing senders rely
// on that coupling.
func (c *Counter) Update(value float64) {
	if value == 0 {
		c.count.Store(0)
		return
	}

	c.count.Add(int64(value))
}

func (c *Counter) Count() int64 {
	return c.count.Load()
}

func (c *Counter) Snapshot() Snapshot {
	v := c.count.Load()

	return Snapshot{Kind: KindCounter, Value: &v}
}
