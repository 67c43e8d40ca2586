package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/parallelproc/fanout/internal/common/batchcontext"
	"github.com/parallelproc/fanout/internal/fanout"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	app := fanout.New(nil)
	cmd := &cobra.Command{
		Use:   "fanout <num_jobs>",
		Short: "fanout splits a directory of images into jobs, submits them and waits for the results.",
		Long: `fanout splits a directory of images into contiguous ranges, submits one job per range to a
batch scheduler and waits until the workers have written one output per image.

"fanout <num_jobs>" is shorthand for "fanout run <num_jobs>".

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:
inputDir: /data/images
outputDir: /data/processed_images
scheduler:
  type: condor
watch:
  timeout: 30m

The location of this file can be passed in using the --config argument.
Any key can also be set via the environment, e.g., FANOUT_WATCH_TIMEOUT=30m.`,
		Args: numJobsArg,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, app, args[0])
		},
	}

	addParamFlags(cmd)

	cmd.AddCommand(
		versionCmd(app),
		runCmd(app),
		planCmd(app),
	)

	return cmd
}

// Print version info and exit.
func versionCmd(app *fanout.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Out = cmd.OutOrStdout()
			return app.Version()
		},
	}
	return cmd
}

// Partition the inputs, submit one job per range and wait for all outputs.
// Prints the time taken on success.
func runCmd(app *fanout.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <num_jobs>",
		Short: "Submit one job per range of images and wait for all outputs.",
		Args:  numJobsArg,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, app, args[0])
		},
	}
	return cmd
}

// Print the range each job would process, without submitting anything.
func planCmd(app *fanout.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <num_jobs>",
		Short: "Print the range of images each job would process.",
		Args:  numJobsArg,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, app)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			numJobs, err := parseNumJobs(args[0])
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return app.Plan(numJobs)
		},
	}
	return cmd
}

func runJobs(cmd *cobra.Command, app *fanout.App, arg string) error {
	numJobs, err := parseNumJobs(arg)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, cancel := batchcontext.WithCancel(batchcontext.FromContext(cmd.Context()))
	defer cancel()
	g, groupCtx := errgroup.WithContext(ctx)

	// Cancel the run on SIGINT and SIGTERM.
	// Jobs already handed to the scheduler keep running.
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stopSignal)
	g.Go(func() error {
		select {
		case <-groupCtx.Done():
			return nil
		case sig := <-stopSignal:
			// Returning an error cancels the errgroup.
			return errors.WithMessagef(context.Canceled, "received signal %v", sig)
		}
	})

	g.Go(func() error {
		defer cancel()
		_, err := app.Run(batchcontext.New(groupCtx, ctx.Log), numJobs)
		return err
	})

	return g.Wait()
}
