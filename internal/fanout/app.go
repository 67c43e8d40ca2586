// Package fanout runs the partition, submit and await pipeline: it splits the input items into
// contiguous ranges, builds and submits one job per range, and waits until the workers have
// produced the expected number of outputs.
package fanout

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/fanout/build"
	"github.com/parallelproc/fanout/internal/fanout/configuration"
	"github.com/parallelproc/fanout/internal/fanout/descriptor"
	"github.com/parallelproc/fanout/internal/fanout/items"
	"github.com/parallelproc/fanout/internal/fanout/metrics"
	"github.com/parallelproc/fanout/internal/fanout/observer"
	"github.com/parallelproc/fanout/internal/fanout/partition"
	"github.com/parallelproc/fanout/internal/fanout/runlog"
	"github.com/parallelproc/fanout/internal/fanout/scheduler"
	"github.com/parallelproc/fanout/internal/fanout/submitter"
	"github.com/parallelproc/fanout/internal/fanout/watcher"
	"github.com/parallelproc/fanout/internal/fanout/workspace"
)

type RunState string

const (
	StateInit             RunState = "init"
	StatePartitioned      RunState = "partitioned"
	StateDescriptorsBuilt RunState = "descriptorsBuilt"
	StateSubmitting       RunState = "submitting"
	StateAwaiting         RunState = "awaiting"
	StateDone             RunState = "done"
	StateFailed           RunState = "failed"
)

// RunReport summarises one run. It's returned on failure too, with State set to the state the run failed in.
type RunReport struct {
	RunId           string
	TotalItems      int
	NumJobs         int
	Submitted       int
	ExpectedOutputs int
	// Time from the first submission until the completion target was reached.
	Elapsed time.Duration
	State   RunState
}

type App struct {
	Config *configuration.FanoutConfiguration
	// Out is used to write the output. Defaults to standard out,
	// but can be overridden in tests to make assertions on the application's output.
	Out io.Writer
	// Clock used for timing the run and for sleeping between polls.
	Clock   clock.Clock
	Metrics *metrics.Metrics

	// If set, used instead of the ones the configuration describes.
	Scheduler scheduler.Scheduler
	Observer  watcher.Observer

	redisClient redis.UniversalClient
}

// New instantiates an App writing to standard out and using the real clock.
func New(config *configuration.FanoutConfiguration) *App {
	return &App{
		Config:  config,
		Out:     os.Stdout,
		Clock:   clock.RealClock{},
		Metrics: metrics.New(),
	}
}

// Version prints build information (e.g., current git commit) to the app output.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// Plan prints the work range of each job without touching the file system or the scheduler.
func (a *App) Plan(numJobs int) error {
	locator, err := a.locator()
	if err != nil {
		return err
	}
	plan, err := partition.NewRunPlan(locator.Count(), numJobs)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.Out, 1, 1, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Job\tStart\tEnd\tItems\n")
	for _, r := range plan.Ranges() {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", r.JobIndex, r.Start, r.End, r.Len())
	}
	fmt.Fprintf(w, "Total\t\t\t%d\n", plan.TotalItems)
	return nil
}

// Run partitions the input items into numJobs ranges, submits one job per range and blocks until
// the expected number of outputs has been observed. The timing line is printed and appended to the
// run log only if the run completes.
func (a *App) Run(ctx *batchcontext.Context, numJobs int) (*RunReport, error) {
	report := &RunReport{RunId: uuid.NewString(), NumJobs: numJobs, State: StateInit}
	ctx = batchcontext.ForRun(ctx, report.RunId)
	defer a.closeRedis()

	err := a.run(ctx, report)
	if err != nil {
		ctx.Log.Debugf("Run failed in state %s", report.State)
		report.State = StateFailed
	} else {
		report.State = StateDone
	}
	a.Metrics.RecordRun(string(report.State), report.Elapsed)
	a.pushMetrics(ctx, report.RunId)
	return report, err
}

func (a *App) run(ctx *batchcontext.Context, report *RunReport) error {
	config := a.Config
	if config == nil {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{Name: "config", Message: "not provided"})
	}

	// Everything that can be checked is checked before the first side effect.
	locator, err := a.locator()
	if err != nil {
		return err
	}
	plan, err := partition.NewRunPlan(locator.Count(), report.NumJobs)
	if err != nil {
		return err
	}
	report.TotalItems = plan.TotalItems
	report.ExpectedOutputs = plan.TotalItems * locator.PerIndex()
	if n := plan.NumEmpty(); n > 0 {
		if config.Submit.EmptyRangePolicy == configuration.RejectEmpty {
			return errors.WithStack(&fanouterrors.ErrInvalidArgument{
				Name:    "numJobs",
				Value:   report.NumJobs,
				Message: fmt.Sprintf("only %d items for %d jobs; %d jobs would be empty", plan.TotalItems, plan.NumJobs, n),
			})
		}
		ctx.Log.Warnf("%d of %d jobs have no items and will be submitted as no-op jobs", n, plan.NumJobs)
	}

	writer, err := descriptor.WriterFor(config.Scheduler.ArtifactFormat)
	if err != nil {
		return err
	}
	builder, err := descriptor.NewBuilder(descriptor.Config{
		Command:         config.Worker.Command,
		Args:            config.Worker.Args,
		OutputDir:       config.OutputDir,
		JobsDir:         config.JobsDir,
		SchedulerLogDir: config.LogDir,
		Resources:       config.Worker.Resources,
	}, locator, writer)
	if err != nil {
		return err
	}
	w, err := watcher.New(a.Clock, config.Watch.PollInterval, config.Watch.Timeout, a.Metrics)
	if err != nil {
		return err
	}
	ws := workspace.New(config.InputDir, config.OutputDir, config.JobsDir, config.LogDir)
	ws.Preserve = []string{config.LogFile}
	if err := ws.Validate(); err != nil {
		return err
	}
	sched, err := a.scheduler()
	if err != nil {
		return err
	}
	obs, err := a.observer()
	if err != nil {
		return err
	}
	report.State = StatePartitioned
	ctx.Log.Infof("Processing %d items across %d jobs", plan.TotalItems, plan.NumJobs)

	if err := ws.Prepare(ctx); err != nil {
		return err
	}
	descriptors, err := builder.BuildAll(plan.Ranges())
	if err != nil {
		return err
	}
	a.Metrics.RecordDescriptorsBuilt(len(descriptors))
	report.State = StateDescriptorsBuilt

	start := a.Clock.Now()
	report.State = StateSubmitting
	submitted, err := submitter.New(sched, config.Submit.FailurePolicy, a.Metrics).SubmitAll(ctx, descriptors)
	report.Submitted = submitted
	if err != nil {
		var partial *fanouterrors.ErrPartialSubmission
		if !errors.As(err, &partial) || config.Submit.FailurePolicy != submitter.Continue {
			return err
		}
		// Outputs of the rejected jobs never appear; without a timeout this waits until interrupted.
		ctx.Log.Warnf("%s; waiting for all %d outputs regardless", err, report.ExpectedOutputs)
	}

	report.State = StateAwaiting
	a.Metrics.SetExpectedOutputs(report.ExpectedOutputs)
	if _, err := w.Await(ctx, watcher.CompletionTarget{ExpectedCount: report.ExpectedOutputs}, obs); err != nil {
		return err
	}
	report.Elapsed = a.Clock.Since(start)
	if local, ok := sched.(*scheduler.LocalScheduler); ok {
		// Outputs are complete; reap the worker processes so their job logs are too.
		local.Wait()
	}

	entry := runlog.Entry{TotalItems: plan.TotalItems, NumJobs: plan.NumJobs, Elapsed: report.Elapsed}
	fmt.Fprintln(a.Out, entry.String())
	if err := runlog.New(config.LogFile).Append(entry); err != nil {
		return err
	}
	return nil
}

func (a *App) locator() (items.Locator, error) {
	config := a.Config
	if config == nil {
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{Name: "config", Message: "not provided"})
	}
	if len(config.Items.Templates) > 0 {
		return items.NewTemplateLocator(config.InputDir, config.Items.Pattern, config.Items.Templates, config.Items.TotalItems)
	}
	return items.NewCatalog(config.InputDir, config.Items.Pattern)
}

func (a *App) scheduler() (scheduler.Scheduler, error) {
	if a.Scheduler != nil {
		return a.Scheduler, nil
	}
	config := a.Config.Scheduler
	switch config.Type {
	case scheduler.CondorName:
		return scheduler.NewCondorScheduler(config.Condor.SubmitBinary, config.Condor.ExtraArgs), nil
	case scheduler.LocalName:
		return scheduler.NewLocalScheduler(), nil
	case scheduler.RedisName:
		return scheduler.NewRedisScheduler(a.redis(), config.Redis.KeyPrefix), nil
	default:
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "scheduler.type",
			Value:   config.Type,
			Message: "must be one of condor, local or redis",
		})
	}
}

func (a *App) observer() (watcher.Observer, error) {
	if a.Observer != nil {
		return a.Observer, nil
	}
	switch a.Config.Watch.Source {
	case "", "directory":
		return observer.NewDirectoryObserver(a.Config.OutputDir, a.Config.Watch.OutputPattern), nil
	case "redis":
		return observer.NewRedisCounterObserver(a.redis(), a.Config.Scheduler.Redis.KeyPrefix), nil
	default:
		return nil, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "watch.source",
			Value:   a.Config.Watch.Source,
			Message: "must be one of directory or redis",
		})
	}
}

// The redis scheduler and the redis observer share one client.
func (a *App) redis() redis.UniversalClient {
	if a.redisClient == nil {
		a.redisClient = redis.NewUniversalClient(a.Config.Scheduler.Redis.AsUniversalOptions())
	}
	return a.redisClient
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	_ = a.redisClient.Close()
	a.redisClient = nil
}

func (a *App) pushMetrics(ctx *batchcontext.Context, runId string) {
	if a.Config == nil || a.Config.Metrics.PushgatewayUrl == "" {
		return
	}
	if err := a.Metrics.Push(a.Config.Metrics.PushgatewayUrl, a.Config.Metrics.Job, runId); err != nil {
		ctx.Log.Warnf("Failed to push metrics: %s", err)
	}
}
