// Package version holds build metadata injected via ldflags.
package version

// Build metadata, overridden at link time:
//
//	-X github.com/legalmind/lexrag/internal/version.Version=v1.2.3
var (
	Version = "dev"
	Commit  = "unknown"
)
