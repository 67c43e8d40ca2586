package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubmission(t *testing.T) {
	m := New()
	m.RecordSubmission("condor", nil)
	m.RecordSubmission("condor", nil)
	m.RecordSubmission("condor", errors.New("rejected"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("condor", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("condor", OutcomeRejected)))
}

func TestRecordPoll(t *testing.T) {
	m := New()
	m.SetExpectedOutputs(10)
	m.RecordPoll(3)
	m.RecordPoll(7)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.expectedOutputs))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.observedOutputs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.polls))
}

func TestRecordRun(t *testing.T) {
	m := New()
	m.RecordDescriptorsBuilt(3)
	m.RecordRun("Done", 1500*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.descriptorsBuilt))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.runDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("Done")))
}

func TestPush(t *testing.T) {
	var path string
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m := New()
	m.RecordRun("Done", time.Second)
	require.NoError(t, m.Push(server.URL, "fanout", "run-1"))
	assert.Equal(t, "/metrics/job/fanout/run_id/run-1", path)
	assert.NotEmpty(t, body)
}

func TestPush_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	assert.Error(t, New().Push(server.URL, "fanout", "run-1"))
}
