// Package version exposes build metadata for semidx binaries.
package version

import (
	"fmt"
	"runtime"
)

// Build metadata, overridden at release time via
// -ldflags "-X github.com/semidx/semidx/pkg/version.Version=...".
var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"

	// Date is the RFC3339 build timestamp.
	Date = "unknown"
)

// GoVersion is the toolchain that built the binary.
var GoVersion = runtime.Version()

// BuildInfo carries version fields in a JSON-friendly shape.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String renders the full human-readable version line.
func String() string {
	return fmt.Sprintf("semidx %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns only the version number.
func Short() string {
	return Version
}

// GetInfo collects all build metadata including the target platform.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
