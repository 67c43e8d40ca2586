// Package submitter hands job descriptors to a scheduler one at a time, in job index order.
package submitter

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/common/logging"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
	"github.com/parallelproc/fanout/internal/fanout/metrics"
	"github.com/parallelproc/fanout/internal/fanout/scheduler"
)

// FailurePolicy decides what happens after a rejected submission.
type FailurePolicy string

const (
	// Continue logs the failure and submits the remaining jobs.
	Continue FailurePolicy = "continue"
	// Abort stops at the first failure.
	Abort FailurePolicy = "abort"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(s)) {
	case "", Continue:
		return Continue, nil
	case Abort:
		return Abort, nil
	default:
		return "", errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "submitFailurePolicy",
			Value:   s,
			Message: "must be one of continue or abort",
		})
	}
}

// Sequencer submits descriptors synchronously. It never submits two jobs at once and never retries
// a rejected job, so job indices line up with scheduler log files.
type Sequencer struct {
	scheduler scheduler.Scheduler
	policy    FailurePolicy
	metrics   *metrics.Metrics
}

func New(s scheduler.Scheduler, policy FailurePolicy, m *metrics.Metrics) *Sequencer {
	if policy == "" {
		policy = Continue
	}
	return &Sequencer{scheduler: s, policy: policy, metrics: m}
}

// SubmitAll submits descriptors in ascending index order and returns the number accepted.
// If fewer than len(descriptors) were accepted, the error is an ErrPartialSubmission wrapping
// the per-job failures. A cancelled ctx stops submission before the next job.
func (srv *Sequencer) SubmitAll(ctx *batchcontext.Context, descriptors []*descriptor.JobDescriptor) (int, error) {
	ordered := append([]*descriptor.JobDescriptor{}, descriptors...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	numSubmitted := 0
	var result *multierror.Error
	for i, d := range ordered {
		if err := ctx.Err(); err != nil {
			return numSubmitted, errors.WithMessagef(err, "submitted %d of %d jobs before interrupt", numSubmitted, len(ordered))
		}
		jobCtx := batchcontext.ForJob(ctx, d.Index)
		_, err := srv.scheduler.Submit(jobCtx, d)
		srv.metrics.RecordSubmission(srv.scheduler.Name(), err)
		if err != nil {
			logging.WithStacktrace(jobCtx.Log, err).Errorf("Job submission %d/%d failed.", i+1, len(ordered))
			result = multierror.Append(result, err)
			if srv.policy == Abort {
				return numSubmitted, errors.WithStack(&fanouterrors.ErrPartialSubmission{
					Submitted: numSubmitted,
					Requested: len(ordered),
					Err:       result.ErrorOrNil(),
				})
			}
			continue
		}
		numSubmitted++
		jobCtx.Log.Infof("Job submission %d/%d completed.", i+1, len(ordered))
	}
	if numSubmitted < len(ordered) {
		return numSubmitted, errors.WithStack(&fanouterrors.ErrPartialSubmission{
			Submitted: numSubmitted,
			Requested: len(ordered),
			Err:       result.ErrorOrNil(),
		})
	}
	return numSubmitted, nil
}
