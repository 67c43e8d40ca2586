// Package workspace creates or empties the directories a run writes into.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond
)

// Workspace is the set of directories owned by a run. They're emptied before any job is submitted;
// the input directory is never touched.
type Workspace struct {
	InputDir string
	// Directories to create or clear, in order.
	Dirs []string
	// Files that outlive the run, e.g., the run log. None may lie inside Dirs.
	Preserve []string
	Attempts uint
	Delay    time.Duration
}

func New(inputDir string, dirs ...string) *Workspace {
	return &Workspace{
		InputDir: inputDir,
		Dirs:     dirs,
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
	}
}

// Validate rejects empty paths, the filesystem root, any directory that is, contains or lies
// inside the input directory, and any directory holding a file in Preserve.
func (w *Workspace) Validate() error {
	input := ""
	if w.InputDir != "" {
		input = filepath.Clean(w.InputDir)
	}
	for _, dir := range w.Dirs {
		if dir == "" {
			return errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "dir",
				Value:   dir,
				Message: "workspace directories must be set",
			})
		}
		clean := filepath.Clean(dir)
		if clean == string(filepath.Separator) || clean == "." {
			return errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "dir",
				Value:   dir,
				Message: "refusing to clear this directory",
			})
		}
		if input != "" && (isWithin(input, clean) || isWithin(clean, input)) {
			return errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "dir",
				Value:   dir,
				Message: "overlaps the input directory " + w.InputDir,
			})
		}
		for _, file := range w.Preserve {
			if file != "" && isWithin(clean, filepath.Clean(file)) {
				return errors.WithStack(&fanouterrors.ErrInvalidArgument{
					Name:    "dir",
					Value:   dir,
					Message: "clearing it would delete " + file,
				})
			}
		}
	}
	return nil
}

// Prepare creates each directory, or empties it if it already exists.
func (w *Workspace) Prepare(ctx *batchcontext.Context) error {
	if err := w.Validate(); err != nil {
		return err
	}
	for _, dir := range w.Dirs {
		dir := dir
		existed := false
		err := retry.Do(
			func() error {
				var err error
				existed, err = recreate(dir)
				return err
			},
			retry.Attempts(w.Attempts),
			retry.Delay(w.Delay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				ctx.Log.WithError(err).Warnf("clearing %s failed (attempt %d)", dir, n+1)
			}),
		)
		if err != nil {
			return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "clear", Path: dir, Err: err})
		}
		if existed {
			ctx.Log.Infof("Directory '%s' cleared successfully.", dir)
		} else {
			ctx.Log.Infof("Directory '%s' created.", dir)
		}
	}
	return nil
}

func recreate(dir string) (bool, error) {
	existed := true
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		existed = false
	} else if err := os.RemoveAll(dir); err != nil {
		return existed, err
	}
	return existed, os.MkdirAll(dir, 0o755)
}

// isWithin reports whether path equals parent or lies beneath it.
func isWithin(parent string, path string) bool {
	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
