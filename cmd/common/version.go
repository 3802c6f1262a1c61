package common

import (
	"fmt"
	"io"
	"runtime"
)

const (
	ProjectName    = "DCA Strategy Wizard"
	ProjectVersion = "0.3.0"
	ProjectRepo    = "github.com/ducminhle1904/dca-strategy-wizard"
)

// Build information, set with -ldflags
var (
	BuildDate   = "unknown"
	BuildCommit = "dev"
)

// VersionInfo contains version and build information
type VersionInfo struct {
	ProjectName  string `json:"project_name"`
	Version      string `json:"version"`
	BuildDate    string `json:"build_date"`
	BuildCommit  string `json:"build_commit"`
	GoVersion    string `json:"go_version"`
	Architecture string `json:"architecture"`
	Repository   string `json:"repository"`
}

// GetVersionInfo returns complete version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		ProjectName:  ProjectName,
		Version:      ProjectVersion,
		BuildDate:    BuildDate,
		BuildCommit:  BuildCommit,
		GoVersion:    runtime.Version(),
		Architecture: runtime.GOOS + "/" + runtime.GOARCH,
		Repository:   ProjectRepo,
	}
}

// PrintVersion prints version information
func PrintVersion(w io.Writer, appName string) {
	info := GetVersionInfo()

	if IsDevBuild() {
		fmt.Fprintf(w, "%s v%s (development build)\n", appName, info.Version)
	} else {
		fmt.Fprintf(w, "%s v%s\n", appName, info.Version)
	}
	fmt.Fprintf(w, "Build: %s (%s)\n", info.BuildCommit, info.BuildDate)
	fmt.Fprintf(w, "Go: %s (%s)\n", info.GoVersion, info.Architecture)
}

// IsDevBuild returns true if this is a development build
func IsDevBuild() bool {
	return BuildCommit == "dev"
}
