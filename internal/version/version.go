// Package version exposes build-time version information. The variables
// are overridden at link time via -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the build.
	Version = "0.1.0-dev"
	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"
	// BuildDate is the UTC build timestamp.
	BuildDate = "unknown"
)

// Short returns just the version string.
func Short() string {
	return Version
}

// Info returns a human-readable one-line description of the build.
func Info() string {
	return fmt.Sprintf("sdwanmon %s (commit %s, built %s)", Version, Commit, BuildDate)
}

// Map returns the build information as a map for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
	}
}
