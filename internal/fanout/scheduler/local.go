package scheduler

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
)

const LocalName = "local"

// LocalScheduler starts each job as a child process on this host. Processes are not bound to the
// submitting context and keep running if the run is interrupted.
type LocalScheduler struct {
	wg sync.WaitGroup
}

func NewLocalScheduler() *LocalScheduler {
	return &LocalScheduler{}
}

func (s *LocalScheduler) Name() string {
	return LocalName
}

func (s *LocalScheduler) Submit(ctx *batchcontext.Context, d *descriptor.JobDescriptor) (*SubmissionResult, error) {
	stdout, err := os.Create(d.StdoutSink)
	if err != nil {
		return nil, errors.WithStack(&fanouterrors.ErrIOFailure{Op: "create", Path: d.StdoutSink, Err: err})
	}
	stderr, err := os.Create(d.StderrSink)
	if err != nil {
		stdout.Close()
		return nil, errors.WithStack(&fanouterrors.ErrIOFailure{Op: "create", Path: d.StderrSink, Err: err})
	}

	cmd := exec.Command(d.Command, d.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, errors.WithStack(&fanouterrors.ErrSchedulerUnavailable{
			JobIndex:  d.Index,
			Scheduler: LocalName,
			Message:   err.Error(),
		})
	}
	pid := cmd.Process.Pid
	appendJobLog(ctx.Log, d.LogSink, fmt.Sprintf("job %d started as pid %d\n", d.Index, pid))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stdout.Close()
		defer stderr.Close()
		err := cmd.Wait()
		if err != nil {
			appendJobLog(ctx.Log, d.LogSink, fmt.Sprintf("job %d exited: %s\n", d.Index, err))
			return
		}
		appendJobLog(ctx.Log, d.LogSink, fmt.Sprintf("job %d exited: ok\n", d.Index))
	}()

	return &SubmissionResult{JobIndex: d.Index, Scheduler: LocalName, ClusterId: fmt.Sprint(pid)}, nil
}

// Wait blocks until every started process has exited.
func (s *LocalScheduler) Wait() {
	s.wg.Wait()
}

func appendJobLog(log *logrus.Entry, path string, line string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.WithError(err).Warnf("could not open job log %s", path)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		log.WithError(err).Warnf("could not write job log %s", path)
	}
}
