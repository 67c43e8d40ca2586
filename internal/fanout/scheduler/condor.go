package scheduler

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
)

const CondorName = "condor"

var condorClusterRegexp = regexp.MustCompile(`submitted to cluster (\d+)`)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CondorScheduler submits jobs by running condor_submit on the job's submit description file.
type CondorScheduler struct {
	// Path of the condor_submit binary.
	SubmitBinary string
	// Extra arguments passed before the submit file, e.g., "-name", "schedd@host".
	ExtraArgs []string
	run       commandRunner
}

func NewCondorScheduler(submitBinary string, extraArgs []string) *CondorScheduler {
	if submitBinary == "" {
		submitBinary = "condor_submit"
	}
	return &CondorScheduler{
		SubmitBinary: submitBinary,
		ExtraArgs:    extraArgs,
		run:          runCommand,
	}
}

func (s *CondorScheduler) Name() string {
	return CondorName
}

func (s *CondorScheduler) Submit(ctx *batchcontext.Context, d *descriptor.JobDescriptor) (*SubmissionResult, error) {
	if d.ArtifactPath == "" {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "artifactPath",
			Value:   d.ArtifactPath,
			Message: "condor submissions need a submit description file",
		})
	}
	args := append(append([]string{}, s.ExtraArgs...), d.ArtifactPath)
	out, err := s.run(ctx, s.SubmitBinary, args...)
	output := strings.TrimSpace(string(out))
	if err != nil {
		message := err.Error()
		if output != "" {
			message = message + ": " + output
		}
		return nil, errors.WithStack(&fanouterrors.ErrSchedulerUnavailable{
			JobIndex:  d.Index,
			Scheduler: CondorName,
			Message:   message,
		})
	}
	result := &SubmissionResult{JobIndex: d.Index, Scheduler: CondorName, Output: output}
	if m := condorClusterRegexp.FindStringSubmatch(output); m != nil {
		result.ClusterId = m[1]
	}
	ctx.Log.Debugf("condor accepted %s: %s", d.ArtifactPath, output)
	return result, nil
}
