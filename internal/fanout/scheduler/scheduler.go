// Package scheduler contains the backends jobs are submitted to. The submitter only depends on the
// Scheduler interface; the batch system's own execution semantics stay outside this module.
package scheduler

import (
	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
)

// SubmissionResult describes an accepted submission.
type SubmissionResult struct {
	JobIndex  int
	Scheduler string
	// Scheduler-assigned identifier, if the backend reports one.
	ClusterId string
	// Raw output of the submission call, if any.
	Output string
}

// Scheduler accepts one job per call. Once Submit returns, the job belongs to the scheduler;
// cancelling ctx afterwards doesn't affect it.
type Scheduler interface {
	Name() string
	Submit(ctx *batchcontext.Context, d *descriptor.JobDescriptor) (*SubmissionResult, error)
}
