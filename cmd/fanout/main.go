package main

import (
	"os"

	"github.com/parallelproc/fanout/cmd/fanout/cmd"
	"github.com/parallelproc/fanout/internal/common/fanouterrors"
	"github.com/parallelproc/fanout/internal/common/logging"
)

// Config is handled by cmd/params.go
func main() {
	logging.ConfigureCommandLineLogging()
	err := cmd.RootCmd().Execute()
	os.Exit(fanouterrors.ExitCodeFromError(err))
}
