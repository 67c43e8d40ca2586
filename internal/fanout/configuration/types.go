package configuration

import (
	"time"

	"github.com/go-redis/redis"

	"github.com/parallelproc/fanout/internal/fanout/submitter"
)

type FanoutConfiguration struct {
	// Directory holding the input items
	InputDir string `validate:"required"`
	// Directory the workers write their outputs into; polled for completion
	OutputDir string `validate:"required"`
	// Directory the job submission artifacts are written into
	JobsDir string `validate:"required"`
	// Directory for per-job stdout, stderr and scheduler logs
	LogDir string `validate:"required"`
	// Append-only run history, one line per completed run
	LogFile string `validate:"required"`

	Items     ItemsConfig
	Worker    WorkerConfig
	Scheduler SchedulerConfig
	Submit    SubmitConfig
	Watch     WatchConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
}

type ItemsConfig struct {
	// Glob selecting the input files that count as items
	Pattern string
	// If set, each index maps to one locator per template instead of one listed file.
	// Templates see {{.InputDir}} and {{.Index}}.
	Templates []string
	// Number of indices when using templates; derived from the input listing if zero
	TotalItems int `validate:"gte=0"`
}

type WorkerConfig struct {
	// Executable run once per job
	Command string `validate:"required"`
	// Arguments placed before the item locators
	Args []string
	// Resource request, e.g. cpus: 1
	Resources map[string]string
}

type SchedulerConfig struct {
	// One of condor, local or redis
	Type string `validate:"oneof=condor local redis"`
	// Format of the job artifacts: condor or yaml
	ArtifactFormat string `validate:"omitempty,oneof=condor yaml"`
	Condor         CondorConfig
	Redis          RedisConfig
}

type CondorConfig struct {
	SubmitBinary string
	ExtraArgs    []string
}

type RedisConfig struct {
	// Either a single address or a seed list of host:port addresses
	Addrs     []string
	DB        int `validate:"gte=0,lte=16"`
	Password  string
	KeyPrefix string
}

func (rc RedisConfig) AsUniversalOptions() *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:    rc.Addrs,
		DB:       rc.DB,
		Password: rc.Password,
	}
}

type SubmitConfig struct {
	// What to do after a rejected submission: continue or abort
	FailurePolicy submitter.FailurePolicy
	// What to do when there are fewer items than jobs: submit or reject
	EmptyRangePolicy EmptyRangePolicy
}

type WatchConfig struct {
	// Time between two observations of the output location
	PollInterval time.Duration `validate:"gt=0"`
	// Maximum time to wait for outputs; zero waits without bound
	Timeout time.Duration `validate:"gte=0"`
	// Where completion is observed: directory or redis
	Source string `validate:"oneof=directory redis"`
	// Glob selecting the output directory entries that count as outputs
	OutputPattern string
}

type LoggingConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=cli text json"`
}

type MetricsConfig struct {
	// Pushgateway receiving the metrics of each run; disabled if empty
	PushgatewayUrl string `validate:"omitempty,url"`
	Job            string
}
