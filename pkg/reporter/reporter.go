// Package reporter periodically pushes registry snapshots to external sinks.
// Reporters run on their own timer, independent of ingestion; a failing sink
// only ever costs one flush.
package reporter

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

// Reporter pushes one snapshot of the registry to a sink.
type Reporter interface {
	Name() string
	Report(snapshots []metrics.NamedSnapshot) error
}

// Runner drives a set of reporters on a shared interval.
type Runner struct {
	registry  *metrics.Registry
	interval  time.Duration
	reporters []Reporter
	clk       clock.Clock

	done      chan struct{}
	closeOnce sync.Once
}

func NewRunner(registry *metrics.Registry, interval time.Duration, reporters ...Reporter) *Runner {
	return NewRunnerWithClock(registry, interval, clock.New(), reporters...)
}

// NewRunnerWithClock lets tests drive the flush timer.
func NewRunnerWithClock(registry *metrics.Registry, interval time.Duration, clk clock.Clock, reporters ...Reporter) *Runner {
	return &Runner{
		registry:  registry,
		interval:  interval,
		reporters: reporters,
		clk:       clk,
		done:      make(chan struct{}),
	}
}

// Start flushes on every tick until Stop or ctx cancellation.
func (r *Runner) Start(ctx context.Context) error {
	ticker := r.clk.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Runner) Stop(_ context.Context) error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}

func (r *Runner) flush() {
	snapshots := r.registry.Snapshot()

	for _, rep := range r.reporters {
		if err := rep.Report(snapshots); err != nil {
			log.Printf("Reporter %s failed: %v", rep.Name(), err)
		}
	}
}
