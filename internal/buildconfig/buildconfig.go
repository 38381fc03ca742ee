// Package buildconfig exposes values stamped at link time:
//
//	go build -ldflags "-X github.com/Harshitk-cp/echoform/internal/buildconfig.version=v1.2.0 \
//	  -X github.com/Harshitk-cp/echoform/internal/buildconfig.commit=$(git rev-parse --short HEAD)"
package buildconfig

import "runtime"

var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the release version, "dev" for local builds.
func Version() string {
	return version
}

// Commit returns the short git commit the binary was built from.
func Commit() string {
	return commit
}

// VersionInfo is reported by /health.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
	}
}
