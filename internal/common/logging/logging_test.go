package logging

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLineFormatter(t *testing.T) {
	tests := map[string]struct {
		entry    *logrus.Entry
		expected string
	}{
		"info": {
			entry:    &logrus.Entry{Level: logrus.InfoLevel, Message: "Job submission 1/3 completed.", Data: logrus.Fields{"jobIndex": 0}},
			expected: "Job submission 1/3 completed.\n",
		},
		"warning": {
			entry:    &logrus.Entry{Level: logrus.WarnLevel, Message: "2 of 5 jobs have no items"},
			expected: "WARNING: 2 of 5 jobs have no items\n",
		},
		"error with cause": {
			entry:    &logrus.Entry{Level: logrus.ErrorLevel, Message: "Job submission 2/3 failed.", Data: logrus.Fields{logrus.ErrorKey: errors.New("queue full")}},
			expected: "ERROR: Job submission 2/3 failed. queue full\n",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := (&CommandLineFormatter{}).Format(tc.entry)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(out))
		})
	}
}

func TestConfigure(t *testing.T) {
	tests := map[string]struct {
		level     string
		format    string
		expectErr bool
	}{
		"cli":          {level: "info", format: FormatCommandLine},
		"empty format": {level: "debug", format: ""},
		"text":         {level: "WARN", format: FormatText},
		"json":         {level: "error", format: FormatJson},
		"bad level":    {level: "loud", format: FormatText, expectErr: true},
		"bad format":   {level: "info", format: "xml", expectErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			logger := logrus.New()
			err := configure(logger, &bytes.Buffer{}, tc.level, tc.format)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJsonFormatWritesFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	require.NoError(t, configure(logger, buf, "info", FormatJson))

	logger.WithField("jobIndex", 3).Info("submitted")
	assert.Contains(t, buf.String(), `"jobIndex":3`)
	assert.Contains(t, buf.String(), `"msg":"submitted"`)
}

func TestWithStacktrace(t *testing.T) {
	err := errors.WithMessage(errors.New("root"), "wrapped")
	entry := WithStacktrace(logrus.NewEntry(logrus.New()), err)

	assert.Equal(t, err, entry.Data[logrus.ErrorKey])
	assert.Contains(t, entry.Data[StacktraceField], "TestWithStacktrace")
}

func TestExtractStack_Innermost(t *testing.T) {
	root := errors.New("root")
	err := errors.WithStack(errors.WithMessage(root, "wrapped"))

	stack := ExtractStack(err)
	require.NotNil(t, stack)
	assert.Equal(t, root.(interface{ StackTrace() errors.StackTrace }).StackTrace(), stack)
}

func TestExtractStack_NoStack(t *testing.T) {
	assert.Nil(t, ExtractStack(assert.AnError))
}
