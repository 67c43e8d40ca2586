// Package partition splits a logical item index space into contiguous per-job ranges.
package partition

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

// RunPlan is derived once from (totalItems, numJobs) and is read-only afterwards.
// NumJobs*ItemsPerJob + Remainder == TotalItems and 0 <= Remainder < NumJobs.
type RunPlan struct {
	NumJobs     int
	TotalItems  int
	ItemsPerJob int
	Remainder   int
}

// WorkRange is an inclusive, zero-based range [Start, End] of item indices assigned to one job.
// A range with End < Start is empty.
type WorkRange struct {
	JobIndex int
	Start    int
	End      int
}

// Len returns the number of items in the range.
func (r WorkRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r WorkRange) IsEmpty() bool {
	return r.Len() == 0
}

func (r WorkRange) String() string {
	if r.IsEmpty() {
		return fmt.Sprintf("job %d: []", r.JobIndex)
	}
	return fmt.Sprintf("job %d: [%d,%d]", r.JobIndex, r.Start, r.End)
}

// NewRunPlan validates the arguments and computes the per-job share and remainder.
func NewRunPlan(totalItems int, numJobs int) (*RunPlan, error) {
	if numJobs <= 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "numJobs",
			Value:   numJobs,
			Message: "must be positive",
		})
	}
	if totalItems < 0 {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "totalItems",
			Value:   totalItems,
			Message: "must not be negative",
		})
	}
	return &RunPlan{
		NumJobs:     numJobs,
		TotalItems:  totalItems,
		ItemsPerJob: totalItems / numJobs,
		Remainder:   totalItems % numJobs,
	}, nil
}

// Range returns the range of job i. The remainder is spread one item each over the earliest jobs.
func (p *RunPlan) Range(i int) WorkRange {
	start := i*p.ItemsPerJob + min(i, p.Remainder)
	end := start + p.ItemsPerJob - 1
	if i < p.Remainder {
		end++
	}
	return WorkRange{JobIndex: i, Start: start, End: end}
}

// Ranges returns exactly NumJobs ranges in job index order.
func (p *RunPlan) Ranges() []WorkRange {
	ranges := make([]WorkRange, p.NumJobs)
	for i := range ranges {
		ranges[i] = p.Range(i)
	}
	return ranges
}

// NumEmpty returns how many trailing jobs receive no items, i.e., when TotalItems < NumJobs.
func (p *RunPlan) NumEmpty() int {
	if p.ItemsPerJob > 0 {
		return 0
	}
	return p.NumJobs - p.Remainder
}

// Partition splits [0, totalItems) into numJobs contiguous ranges.
func Partition(totalItems int, numJobs int) ([]WorkRange, error) {
	plan, err := NewRunPlan(totalItems, numJobs)
	if err != nil {
		return nil, err
	}
	return plan.Ranges(), nil
}
