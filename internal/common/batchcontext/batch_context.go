// Package batchcontext pairs a context.Context with the logger of the run it belongs to, so that
// every log line written while submitting or waiting carries the run id and, where relevant, the job index.
package batchcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

const (
	RunIdField    = "runId"
	JobIndexField = "jobIndex"
)

type Context struct {
	context.Context
	Log *logrus.Entry
}

// Background is context.Background() with the standard logger.
func Background() *Context {
	return New(context.Background(), logrus.NewEntry(logrus.StandardLogger()))
}

func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{Context: ctx, Log: log}
}

// FromContext returns ctx itself if it's already a *Context, and otherwise wraps it with the standard logger.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.(*Context); ok {
		return c
	}
	return Background().withContext(ctx)
}

// WithCancel is context.WithCancel() keeping the parent's logger.
func WithCancel(parent *Context) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent.Context)
	return parent.withContext(ctx), cancel
}

func WithLogField(parent *Context, key string, val interface{}) *Context {
	return New(parent.Context, parent.Log.WithField(key, val))
}

// ForRun tags every log line with the run id.
func ForRun(parent *Context, runId string) *Context {
	return WithLogField(parent, RunIdField, runId)
}

// ForJob tags every log line with the index of the job being handled.
func ForJob(parent *Context, jobIndex int) *Context {
	return WithLogField(parent, JobIndexField, jobIndex)
}

func (c *Context) withContext(ctx context.Context) *Context {
	return New(ctx, c.Log)
}
