// Package contracts holds the public data contracts and version identity of
// the service.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application.
	Version = "0.1.0"

	// DataFormatVersion is the version of the fused dataset format. Bump it
	// when the unified table's columns or semantics change, so stale cache
	// files are never misread.
	DataFormatVersion = "v1"

	// APIVersion is the version prefix of the HTTP API.
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags.
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags.
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("leetlens v%s", Version)
}
