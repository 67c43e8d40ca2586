package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parallelproc/fanout/internal/common"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/common/logging"
	"github.com/parallelproc/fanout/internal/fanout"
	"github.com/parallelproc/fanout/internal/fanout/configuration"
)

const CustomConfigLocation = "config"

// Config keys that can be set from the command line, by flag name.
var flagKeys = map[string]string{
	"timeout":               "watch.timeout",
	"poll-interval":         "watch.pollInterval",
	"submit-failure-policy": "submit.failurePolicy",
	"empty-range-policy":    "submit.emptyRangePolicy",
	"scheduler":             "scheduler.type",
	"log-level":             "logging.level",
}

func addParamFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringSlice(CustomConfigLocation, []string{}, "Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")
	flags.Duration("timeout", 0, "Maximum time to wait for all outputs, e.g., 30m. Zero waits until interrupted.")
	flags.Duration("poll-interval", 0, "Time between two checks of the output directory, e.g., 100ms.")
	flags.String("submit-failure-policy", "", "What to do if the scheduler rejects a job: continue or abort.")
	flags.String("empty-range-policy", "", "What to do if there are fewer items than jobs: submit or reject.")
	flags.String("scheduler", "", "Scheduler to submit jobs to: condor, local or redis.")
	flags.String("log-level", "", "Log level, e.g., debug.")
}

// initParams loads the configuration for a command from defaults, files, environment and flags,
// and applies its logging settings.
func initParams(cmd *cobra.Command, app *fanout.App) error {
	v := viper.New()
	if err := common.BindCommandlineArguments(v, cmd.Flags(), flagKeys); err != nil {
		return err
	}
	userSpecifiedConfigs, err := cmd.Flags().GetStringSlice(CustomConfigLocation)
	if err != nil {
		return errors.WithStack(err)
	}
	config, err := configuration.Load(v, userSpecifiedConfigs)
	if err != nil {
		return err
	}
	if err := logging.Configure(config.Logging.Level, config.Logging.Format); err != nil {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "logging",
			Value:   config.Logging,
			Message: err.Error(),
		})
	}
	app.Config = config
	app.Out = cmd.OutOrStdout()
	return nil
}

// numJobsArg requires exactly one positional argument, the number of jobs.
func numJobsArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "num_jobs",
			Value:   args,
			Message: "expected exactly one positional argument: the number of jobs",
		})
	}
	return nil
}

func parseNumJobs(arg string) (int, error) {
	numJobs, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "num_jobs",
			Value:   arg,
			Message: "not an integer",
		})
	}
	if numJobs <= 0 {
		return 0, errors.WithStack(&fanouterrors.ErrInvalidArgument{
			Name:    "num_jobs",
			Value:   numJobs,
			Message: "must be positive",
		})
	}
	return numJobs, nil
}
