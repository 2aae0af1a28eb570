package cascade

import (
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// scheduler runs fork siblings for every segment of one graph. The number
// of goroutines it has in flight is bounded by a semaphore, independent of
// how deep or wide the graph is. A sibling that finds the pool exhausted
// runs on the forking goroutine instead, so a fork nested under a saturated
// pool still makes progress and never waits on a slot held by its own
// ancestors.
type scheduler struct {
	slots     *semaphore.Weighted
	graph     string
	logger    *zap.Logger
	metrics   *Metrics
	saturated atomic.Bool

	maxConcurrency int
}

func newScheduler(c config) *scheduler {
	return &scheduler{
		slots:          semaphore.NewWeighted(int64(c.maxConcurrency)),
		graph:          c.name,
		logger:         c.logger,
		metrics:        c.metrics,
		maxConcurrency: c.maxConcurrency,
	}
}

// fork calls every target with value and returns once all of them, and
// everything downstream of them, have finished. The first target always
// runs on the calling goroutine. Errors from all targets are combined.
func fork[T any](s *scheduler, targets []target[T], value T) error {
	errs := make([]error, len(targets))
	var wg conc.WaitGroup
	var inline []int

	for i := 1; i < len(targets); i++ {
		if !s.slots.TryAcquire(1) {
			inline = append(inline, i)
			continue
		}
		s.metrics.fanoutTask(s.graph, fanoutSpawned)
		wg.Go(func() {
			defer s.slots.Release(1)
			errs[i] = targets[i](value)
		})
	}

	errs[0] = targets[0](value)

	if len(inline) > 0 {
		// Inline siblings run one after another, so delays on them add up.
		if !s.saturated.Swap(true) {
			s.logger.Info("scheduler saturated, delayed fork siblings no longer wait concurrently",
				zap.String("graph", s.graph),
				zap.Int("max_concurrency", s.maxConcurrency))
		}
		s.logger.Debug("scheduler saturated, running fork siblings inline",
			zap.String("graph", s.graph),
			zap.Int("inline", len(inline)),
			zap.Int("width", len(targets)))
	}
	for _, i := range inline {
		s.metrics.fanoutTask(s.graph, fanoutInline)
		errs[i] = targets[i](value)
	}

	wg.Wait()
	return multierr.Combine(errs...)
}
