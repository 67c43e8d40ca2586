package batchcontext

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackground(t *testing.T) {
	ctx := Background()
	assert.Equal(t, context.Background(), ctx.Context)
	assert.Same(t, logrus.StandardLogger(), ctx.Log.Logger)
}

func TestFromContext(t *testing.T) {
	ctx := New(context.Background(), logrus.NewEntry(logrus.New()))
	assert.Same(t, ctx, FromContext(ctx))

	wrapped := FromContext(context.TODO())
	assert.Equal(t, context.TODO(), wrapped.Context)
	assert.NotNil(t, wrapped.Log)
}

func TestWithCancel_KeepsLogger(t *testing.T) {
	ctx, cancel := WithCancel(ForRun(Background(), "run-1"))
	cancel()
	<-ctx.Done()
	require.Equal(t, context.Canceled, ctx.Err())
	assert.Equal(t, logrus.Fields{RunIdField: "run-1"}, ctx.Log.Data)
}

func TestForRunAndJob(t *testing.T) {
	ctx := ForJob(ForRun(Background(), "run-1"), 3)
	assert.Equal(t, logrus.Fields{RunIdField: "run-1", JobIndexField: 3}, ctx.Log.Data)
	assert.Equal(t, context.Background(), ctx.Context)
}

func TestCancelPropagatesToChildren(t *testing.T) {
	parent, cancel := WithCancel(Background())
	child := ForJob(parent, 0)
	cancel()
	<-child.Done()
	assert.ErrorIs(t, child.Err(), context.Canceled)
}
