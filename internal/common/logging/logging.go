package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	FormatCommandLine = "cli"
	FormatText        = "text"
	FormatJson        = "json"
)

// ConfigureCommandLineLogging sets up the standard logger for command-line tools:
// message-only lines on stdout at info level.
func ConfigureCommandLineLogging() {
	log.SetFormatter(&CommandLineFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// Configure applies a level and format to the standard logger. It's called once configuration is loaded,
// after ConfigureCommandLineLogging has installed the defaults.
func Configure(level string, format string) error {
	return configure(log.StandardLogger(), os.Stdout, level, format)
}

func configure(logger *log.Logger, out io.Writer, level string, format string) error {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return errors.WithStack(err)
	}
	formatter, err := formatterFor(format)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(formatter)
	logger.SetOutput(out)
	return nil
}

func formatterFor(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatCommandLine:
		return &CommandLineFormatter{}, nil
	case FormatText:
		return &log.TextFormatter{FullTimestamp: true}, nil
	case FormatJson:
		return &log.JSONFormatter{}, nil
	default:
		return nil, errors.Errorf("unknown log format: %s. Valid formats are %s, %s and %s", format, FormatCommandLine, FormatText, FormatJson)
	}
}
