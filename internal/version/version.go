// Package version reports which searchlab build is running: the version
// command prints it and the serve facade and prod logger tag their output with it.
package version

import "fmt"

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/kailas-cloud/searchlab/internal/version.Version=v0.3.0 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("searchlab %s (commit %s, built %s)", Version, Commit, Date)
}
