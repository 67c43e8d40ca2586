package logging

import (
	"bytes"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CommandLineFormatter writes one line per entry for a person watching the terminal. Info and debug
// entries are the bare message. Warnings and errors are prefixed with their level and end with the
// error attached to the entry, if any. All other fields are dropped.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *log.Entry) ([]byte, error) {
	b := &bytes.Buffer{}
	if entry.Level <= log.WarnLevel {
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)
	if err, ok := entry.Data[log.ErrorKey].(error); ok && entry.Level <= log.WarnLevel {
		b.WriteString(" ")
		b.WriteString(err.Error())
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
