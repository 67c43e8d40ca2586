// Package watcher blocks until an observed output count reaches a target.
package watcher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/metrics"
)

// Observer reports how many outputs currently exist. Observe must not modify any state.
type Observer interface {
	Observe(ctx context.Context) (int, error)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context) (int, error)

func (f ObserverFunc) Observe(ctx context.Context) (int, error) {
	return f(ctx)
}

type CompletionTarget struct {
	ExpectedCount int
}

type CompletionResult struct {
	// Output count at the last successful observation.
	Observed int
	// Number of calls to Observe.
	Polls int
	// Number of waits between polls.
	Sleeps  int
	Elapsed time.Duration
}

// Watcher polls an Observer at a fixed interval.
type Watcher struct {
	clock        clock.Clock
	pollInterval time.Duration
	// Zero means wait without bound.
	timeout time.Duration
	metrics *metrics.Metrics
}

func New(clk clock.Clock, pollInterval time.Duration, timeout time.Duration, m *metrics.Metrics) (*Watcher, error) {
	if pollInterval <= 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "pollInterval",
			Value:   pollInterval,
			Message: "must be positive",
		})
	}
	if timeout < 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "timeout",
			Value:   timeout,
			Message: "must not be negative",
		})
	}
	return &Watcher{clock: clk, pollInterval: pollInterval, timeout: timeout, metrics: m}, nil
}

// Await returns as soon as an observation reaches target.ExpectedCount. It observes immediately,
// then once per poll interval. Observation errors are logged and retried at the next interval.
// It returns an ErrTimeout once the timeout has passed, or ctx.Err() if ctx is cancelled.
func (w *Watcher) Await(ctx *batchcontext.Context, target CompletionTarget, observer Observer) (*CompletionResult, error) {
	start := w.clock.Now()
	result := &CompletionResult{}
	for {
		n, err := observer.Observe(ctx)
		result.Polls++
		if err != nil {
			ctx.Log.WithError(err).Warnf("observing outputs failed; retrying in %s", w.pollInterval)
		} else {
			result.Observed = n
			w.metrics.RecordPoll(n)
			if n >= target.ExpectedCount {
				result.Elapsed = w.clock.Since(start)
				ctx.Log.Infof("%d reached.", target.ExpectedCount)
				return result, nil
			}
			ctx.Log.Debugf("observed %d of %d outputs", n, target.ExpectedCount)
		}

		wait := w.pollInterval
		if w.timeout > 0 {
			remaining := w.timeout - w.clock.Since(start)
			if remaining <= 0 {
				result.Elapsed = w.clock.Since(start)
				return result, errors.WithStack(&fanouterrors.ErrTimeout{
					Expected: target.ExpectedCount,
					Observed: result.Observed,
					Timeout:  w.timeout,
				})
			}
			wait = min(wait, remaining)
		}

		timer := w.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Elapsed = w.clock.Since(start)
			return result, errors.WithStack(ctx.Err())
		case <-timer.C():
			result.Sleeps++
		}
	}
}
