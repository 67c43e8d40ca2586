package scheduler

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
)

const FakeName = "fake"

// FakeScheduler records submissions in memory. Jobs whose index is in FailIndices are rejected.
// OnSubmit, if set, is called for every accepted job, e.g., to simulate a worker producing outputs.
type FakeScheduler struct {
	FailIndices map[int]bool
	OnSubmit    func(d *descriptor.JobDescriptor)

	mu        sync.Mutex
	attempted []int
	accepted  []*descriptor.JobDescriptor
}

func NewFakeScheduler(failIndices ...int) *FakeScheduler {
	s := &FakeScheduler{FailIndices: map[int]bool{}}
	for _, i := range failIndices {
		s.FailIndices[i] = true
	}
	return s
}

func (s *FakeScheduler) Name() string {
	return FakeName
}

func (s *FakeScheduler) Submit(_ *batchcontext.Context, d *descriptor.JobDescriptor) (*SubmissionResult, error) {
	s.mu.Lock()
	s.attempted = append(s.attempted, d.Index)
	if s.FailIndices[d.Index] {
		s.mu.Unlock()
		return nil, errors.WithStack(&fanouterrors.ErrSchedulerUnavailable{
			JobIndex:  d.Index,
			Scheduler: FakeName,
			Message:   "rejected",
		})
	}
	s.accepted = append(s.accepted, d)
	s.mu.Unlock()

	if s.OnSubmit != nil {
		s.OnSubmit(d)
	}
	return &SubmissionResult{JobIndex: d.Index, Scheduler: FakeName}, nil
}

// Attempted returns the indices of all jobs submitted, in submission order.
func (s *FakeScheduler) Attempted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int{}, s.attempted...)
}

// Accepted returns the descriptors of the jobs that were accepted, in submission order.
func (s *FakeScheduler) Accepted() []*descriptor.JobDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*descriptor.JobDescriptor{}, s.accepted...)
}
