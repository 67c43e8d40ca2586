// Package descriptor turns work ranges into job descriptors and persists them as scheduler
// submission artifacts.
package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/items"
	"github.com/parallelproc/fanout/internal/fanout/partition"
)

// JobDescriptor describes one job: the worker invocation covering one work range, where its
// output goes, and what it asks the scheduler for. It's immutable once built.
type JobDescriptor struct {
	Index      int               `json:"index"`
	Command    string            `json:"command"`
	Args       []string          `json:"args"`
	StdoutSink string            `json:"stdout"`
	StderrSink string            `json:"stderr"`
	LogSink    string            `json:"log"`
	Resources  map[string]string `json:"resources"`
	// Number of items the job consumes; zero for a no-op job.
	NumItems int `json:"numItems"`
	// Where the submission artifact was written.
	ArtifactPath string `json:"-"`
}

// ResourceNames returns the resource names in sorted order.
func (d *JobDescriptor) ResourceNames() []string {
	names := make([]string, 0, len(d.Resources))
	for name := range d.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ArtifactWriter renders a descriptor into a scheduler-specific submission artifact.
// Render must be deterministic: identical descriptors render to identical bytes.
type ArtifactWriter interface {
	Extension() string
	Render(d *JobDescriptor) ([]byte, error)
}

var DefaultResources = map[string]string{"cpus": "1"}

type Config struct {
	// Executable of the worker.
	Command string
	// Arguments placed before the item locators, e.g., the worker script.
	Args []string
	// Directory the worker writes one output per consumed item into.
	OutputDir string
	// Directory the submission artifacts are written into.
	JobsDir string
	// Directory for the per-job stdout, stderr and scheduler log sinks.
	SchedulerLogDir string
	// Resource request; DefaultResources if empty.
	Resources map[string]string
}

func (c Config) Validate() error {
	if c.Command == "" {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "worker.command",
			Value:   c.Command,
			Message: "not provided",
		})
	}
	if c.OutputDir == "" {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "outputDir",
			Value:   c.OutputDir,
			Message: "not provided",
		})
	}
	if c.JobsDir == "" {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "jobsDir",
			Value:   c.JobsDir,
			Message: "not provided",
		})
	}
	if c.SchedulerLogDir == "" {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "schedulerLogDir",
			Value:   c.SchedulerLogDir,
			Message: "not provided",
		})
	}
	return nil
}

// Builder builds one descriptor per work range.
type Builder struct {
	config  Config
	locator items.Locator
	writer  ArtifactWriter
}

func NewBuilder(config Config, locator items.Locator, writer ArtifactWriter) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if locator == nil {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "locator",
			Value:   locator,
			Message: "not provided",
		})
	}
	if writer == nil {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "writer",
			Value:   writer,
			Message: "not provided",
		})
	}
	if len(config.Resources) == 0 {
		config.Resources = DefaultResources
	}
	return &Builder{config: config, locator: locator, writer: writer}, nil
}

// ArtifactPath returns where the artifact of job i is written. The path depends only on i, so
// rebuilding overwrites the previous artifact.
func (b *Builder) ArtifactPath(i int) string {
	return filepath.Join(b.config.JobsDir, fmt.Sprintf("job_%d.%s", i, b.writer.Extension()))
}

// Build creates the descriptor of r and persists its artifact.
func (b *Builder) Build(r partition.WorkRange) (*JobDescriptor, error) {
	args, err := b.args(r)
	if err != nil {
		return nil, err
	}
	resources := make(map[string]string, len(b.config.Resources))
	for k, v := range b.config.Resources {
		resources[k] = v
	}
	sink := func(ext string) string {
		return filepath.Join(b.config.SchedulerLogDir, fmt.Sprintf("job_%d.%s", r.JobIndex, ext))
	}
	d := &JobDescriptor{
		Index:        r.JobIndex,
		Command:      b.config.Command,
		Args:         args,
		StdoutSink:   sink("out"),
		StderrSink:   sink("err"),
		LogSink:      sink("log"),
		Resources:    resources,
		NumItems:     r.Len() * b.locator.PerIndex(),
		ArtifactPath: b.ArtifactPath(r.JobIndex),
	}
	body, err := b.writer.Render(d)
	if err != nil {
		return nil, errors.WithMessagef(err, "rendering artifact for job %d", r.JobIndex)
	}
	if err := writeFile(d.ArtifactPath, body); err != nil {
		return nil, err
	}
	return d, nil
}

// BuildAll builds the descriptors of ranges in order, stopping at the first error.
func (b *Builder) BuildAll(ranges []partition.WorkRange) ([]*JobDescriptor, error) {
	descriptors := make([]*JobDescriptor, 0, len(ranges))
	for _, r := range ranges {
		d, err := b.Build(r)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// args lays out the worker arguments: prefix, then for each locator slot the locators of every
// index in the range, then the output directory.
func (b *Builder) args(r partition.WorkRange) ([]string, error) {
	perIndex := b.locator.PerIndex()
	byIndex := make([][]string, 0, r.Len())
	for i := r.Start; i <= r.End; i++ {
		locators, err := b.locator.Locate(i)
		if err != nil {
			return nil, err
		}
		if len(locators) != perIndex {
			return nil, errors.Errorf("locator returned %d locators for index %d; expected %d", len(locators), i, perIndex)
		}
		byIndex = append(byIndex, locators)
	}
	args := make([]string, 0, len(b.config.Args)+perIndex*len(byIndex)+1)
	args = append(args, b.config.Args...)
	for slot := 0; slot < perIndex; slot++ {
		for _, locators := range byIndex {
			args = append(args, locators[slot])
		}
	}
	return append(args, b.config.OutputDir), nil
}

// writeFile replaces path with body via a temporary file, so a reader never sees a partial artifact.
func writeFile(path string, body []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "write", Path: path, Err: err})
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "write", Path: path, Err: err})
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "write", Path: path, Err: err})
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "chmod", Path: path, Err: err})
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WithStack(&fanouterrors.ErrIOFailure{Op: "rename", Path: path, Err: err})
	}
	return nil
}
