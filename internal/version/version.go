// Package version holds build-time version information for the policyai
// binary. The variables are populated via -ldflags:
//
//	go build -ldflags="-X github.com/54b3r/policyai-go/internal/version.Version=v0.3.0 \
//	                    -X github.com/54b3r/policyai-go/internal/version.Commit=abc1234"
//
// Unset values fall back to placeholders so `go run` builds still report
// something useful.
package version

import (
	"fmt"
	"runtime"
)

// Version is the semantic version of the binary. Defaults to "dev".
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// String renders the version line printed by `policyai version`.
func String() string {
	return fmt.Sprintf("policyai %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
