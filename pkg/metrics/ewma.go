package metrics

import (
	"math"
	"time"
)

// rateTickInterval is how often the moving-average rate estimates decay.
const rateTickInterval = 5 * time.Second

// ewma is an exponentially-weighted moving average of a per-second event
// rate. It is not goroutine-safe on its own; the owning Meter's lock guards
// it.
type ewma struct {
	alpha       float64
	rate        float64
	uncounted   int64
	initialized bool
}

// newEWMA returns an average that smooths over the given window, ticked
// every rateTickInterval.
func newEWMA(window time.Duration) *ewma {
	return &ewma{
		alpha: 1 - math.Exp(-rateTickInterval.Seconds()/window.Seconds()),
	}
}

func (e *ewma) update(n int64) {
	e.uncounted += n
}

// tick folds the events accumulated since the last tick into the average.
func (e *ewma) tick() {
	instantRate := float64(e.uncounted) / rateTickInterval.Seconds()
	e.uncounted = 0

	if !e.initialized {
		e.rate = instantRate
		e.initialized = true

		return
	}

	e.rate += e.alpha * (instantRate - e.rate)
}

// currentRate is the smoothed per-second rate.
func (e *ewma) currentRate() float64 {
	return e.rate
}
