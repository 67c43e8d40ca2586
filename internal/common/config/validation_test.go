package config

import (
	"bytes"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `validate:"required"`
	Inner struct {
		Kind string `validate:"oneof=a b"`
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	buf := &bytes.Buffer{}
	out := log.StandardLogger().Out
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(out) })
	return buf
}

func TestLogValidationErrors(t *testing.T) {
	buf := captureLog(t)
	cfg := testConfig{}
	cfg.Inner.Kind = "c"
	err := validator.New().Struct(cfg)
	require.Error(t, err)

	LogValidationErrors(err)

	assert.Contains(t, buf.String(), "Field Name is required but was not found")
	assert.Contains(t, buf.String(), "Field Inner.Kind has invalid value c: oneof")
}

func TestLogValidationErrors_OtherError(t *testing.T) {
	buf := captureLog(t)
	LogValidationErrors(errors.New("no such file"))
	assert.Contains(t, buf.String(), "ConfigError: no such file")
}

func TestLogValidationErrors_Nil(t *testing.T) {
	buf := captureLog(t)
	LogValidationErrors(nil)
	assert.Empty(t, buf.String())
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "Watch.Timeout", stripPrefix("FanoutConfiguration.Watch.Timeout"))
	assert.Equal(t, "Name", stripPrefix("Name"))
}
