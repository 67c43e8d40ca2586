// Package build holds version information injected at link time, e.g.,
// -ldflags "-X github.com/parallelproc/fanout/internal/fanout/build.ReleaseVersion=v1.2.0".
package build

import "runtime"

var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = runtime.Version()
)
