// Package version describes the running binary. Release builds set the
// fields through the buildinfo package:
//
//	-ldflags "-X github.com/keshon/buildinfo.Version=v1.2.0 -X github.com/keshon/buildinfo.Commit=abc123"
package version

import (
	"fmt"

	"github.com/keshon/buildinfo"
)

const (
	AppName        = "Jukebox"
	AppDescription = "Prefix-command music bot for Discord"
)

// Info returns the build information with the project name and description
// filled in when the linker left them unset.
func Info() buildinfo.BuildInfo {
	bi := buildinfo.Get()
	if bi.Project == "" || bi.Project == "unknown" {
		bi.Project = AppName
	}
	if bi.Description == "" {
		bi.Description = AppDescription
	}
	return bi
}

// String returns e.g. "Jukebox dev (none, go1.26.0 linux/amd64)".
func String() string {
	bi := Info()
	return fmt.Sprintf("%s %s (%s, %s %s)", bi.Project, bi.Version, bi.Commit, bi.GoVersion, bi.Platform)
}
