// Package runlog keeps the append-only history of run timings.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

// Entry is one completed run.
type Entry struct {
	TotalItems int
	NumJobs    int
	Elapsed    time.Duration
}

func (e Entry) String() string {
	return fmt.Sprintf("Time taken to process %d images across %d jobs is %.2f seconds", e.TotalItems, e.NumJobs, e.Elapsed.Seconds())
}

// RunLog appends one line per run to a text file. Existing lines are never rewritten.
type RunLog struct {
	path string
}

func New(path string) *RunLog {
	return &RunLog{path: path}
}

func (l *RunLog) Path() string {
	return l.path
}

// Append writes e as a single line, creating the file and its directory if needed.
func (l *RunLog) Append(e Entry) error {
	if l.path == "" {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "logFile",
			Value:   l.path,
			Message: "not provided",
		})
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "mkdir", Path: filepath.Dir(l.path), Err: err})
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "open", Path: l.path, Err: err})
	}
	if _, err := f.WriteString(e.String() + "\n"); err != nil {
		f.Close()
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "append", Path: l.path, Err: err})
	}
	if err := f.Close(); err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "close", Path: l.path, Err: err})
	}
	return nil
}
