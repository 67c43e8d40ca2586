package logging

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// StacktraceField is the logrus field holding the formatted stack trace.
const StacktraceField = "stacktrace"

// WithStacktrace adds err to the entry and, if the error chain recorded one, the stack trace of the
// place the error was first wrapped. Only the text and json formats print it.
func WithStacktrace(entry *logrus.Entry, err error) *logrus.Entry {
	entry = entry.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		entry = entry.WithField(StacktraceField, fmt.Sprintf("%+v", stack))
	}
	return entry
}

// ExtractStack returns the innermost stack trace in err's chain, or nil if there is none.
func ExtractStack(err error) errors.StackTrace {
	var stack errors.StackTrace
	for ; err != nil; err = errors.Unwrap(err) {
		if tracer, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
			stack = tracer.StackTrace()
		}
	}
	return stack
}
