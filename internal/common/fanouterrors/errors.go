// Package fanouterrors contains the errors returned by the partition, submit and await pipeline.
// Callers look through the error chain with errors.As to decide how to react, e.g., the CLI maps
// them to process exit codes with ExitCodeFromError.
//
// If several submissions fail, the submitter returns an ErrPartialSubmission that wraps a
// multierror.Error from package github.com/hashicorp/go-multierror holding the individual errors.
package fanouterrors

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned on invalid configuration or input.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "numJobs"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrSchedulerUnavailable is returned when the scheduler rejects or fails to accept a job.
type ErrSchedulerUnavailable struct {
	JobIndex  int
	Scheduler string
	Message   string
}

func (err *ErrSchedulerUnavailable) Error() (s string) {
	s = fmt.Sprintf("scheduler %s failed to accept job %d", err.Scheduler, err.JobIndex)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrPartialSubmission is returned when fewer jobs were accepted than requested.
// Err holds the per-job failures.
type ErrPartialSubmission struct {
	Submitted int
	Requested int
	Err       error
}

func (err *ErrPartialSubmission) Error() string {
	s := fmt.Sprintf("only %d of %d jobs were submitted", err.Submitted, err.Requested)
	if err.Err != nil {
		s = s + fmt.Sprintf(": %s", err.Err)
	}
	return s
}

func (err *ErrPartialSubmission) Unwrap() error {
	return err.Err
}

// ErrTimeout is returned when the completion target isn't reached within the configured bound.
type ErrTimeout struct {
	Expected int
	Observed int
	Timeout  time.Duration
}

func (err *ErrTimeout) Error() string {
	return fmt.Sprintf("observed %d of %d expected outputs after %s", err.Observed, err.Expected, err.Timeout)
}

// ErrIOFailure is returned when working directories or job artifacts can't be created.
type ErrIOFailure struct {
	Op   string // e.g., "clear", "write"
	Path string
	Err  error
}

func (err *ErrIOFailure) Error() string {
	return fmt.Sprintf("%s %s: %s", err.Op, err.Path, err.Err)
}

func (err *ErrIOFailure) Unwrap() error {
	return err.Err
}

const (
	ExitCodeOk         = 0
	ExitCodeFailure    = 1
	ExitCodeInvalidArg = 2
	ExitCodeTimeout    = 3
	ExitCodeCancelled  = 130
)

// ExitCodeFromError maps error types to process exit codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitCodeOk
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return ExitCodeInvalidArg
		}
	}
	{
		var e *ErrTimeout
		if errors.As(err, &e) {
			return ExitCodeTimeout
		}
	}
	if errors.Is(err, context.Canceled) {
		return ExitCodeCancelled
	}
	return ExitCodeFailure
}
