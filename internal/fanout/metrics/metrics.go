package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const MetricPrefix = "fanout_"

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Metrics records the progress of a run. A batch run is short-lived, so the values are pushed to a
// Pushgateway at the end of the run rather than scraped.
type Metrics struct {
	registry         *prometheus.Registry
	submissions      *prometheus.CounterVec
	descriptorsBuilt prometheus.Counter
	expectedOutputs  prometheus.Gauge
	observedOutputs  prometheus.Gauge
	polls            prometheus.Counter
	runDuration      prometheus.Gauge
	runs             *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "job_submissions_total",
				Help: "Number of job submissions by scheduler and outcome",
			},
			[]string{"scheduler", "outcome"},
		),
		descriptorsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricPrefix + "job_descriptors_built_total",
			Help: "Number of job descriptors built",
		}),
		expectedOutputs: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricPrefix + "expected_outputs",
			Help: "Number of outputs the run waits for",
		}),
		observedOutputs: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricPrefix + "observed_outputs",
			Help: "Number of outputs seen at the last poll",
		}),
		polls: factory.NewCounter(prometheus.CounterOpts{
			Name: MetricPrefix + "completion_polls_total",
			Help: "Number of times the output location was polled",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: MetricPrefix + "run_duration_seconds",
			Help: "Time spent submitting jobs and waiting for their outputs",
		}),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "runs_total",
				Help: "Number of runs by final state",
			},
			[]string{"state"},
		),
	}
}

func (m *Metrics) RecordSubmission(scheduler string, err error) {
	outcome := OutcomeAccepted
	if err != nil {
		outcome = OutcomeRejected
	}
	m.submissions.WithLabelValues(scheduler, outcome).Inc()
}

func (m *Metrics) RecordDescriptorsBuilt(n int) {
	m.descriptorsBuilt.Add(float64(n))
}

func (m *Metrics) SetExpectedOutputs(n int) {
	m.expectedOutputs.Set(float64(n))
}

func (m *Metrics) RecordPoll(observed int) {
	m.polls.Inc()
	m.observedOutputs.Set(float64(observed))
}

func (m *Metrics) RecordRun(state string, elapsed time.Duration) {
	m.runs.WithLabelValues(state).Inc()
	m.runDuration.Set(elapsed.Seconds())
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Push sends the collected metrics to the Pushgateway at url, grouped by run id.
func (m *Metrics) Push(url string, job string, runId string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("run_id", runId).
		Push()
	return errors.WithMessagef(err, "pushing metrics to %s", url)
}
