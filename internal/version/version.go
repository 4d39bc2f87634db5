// Package version reports which codeclip build is running. Release builds
// stamp the variables below with -ldflags; binaries built with `go install`
// fall back to the module version and VCS data embedded by the toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// go build -ldflags "-X 'github.com/Alioninja/codeclip/internal/version.Version=1.2.3'"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Info describes one build.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	// Modified is set when the VCS tree had uncommitted changes.
	Modified  bool
	GoVersion string
	Platform  string
}

// Get returns the build information of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = withBuildInfo(info, bi)
	}
	return info
}

// withBuildInfo fills the fields -ldflags left at their defaults.
func withBuildInfo(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "none" {
				info.GitCommit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func (i Info) String() string {
	commit := i.GitCommit
	if i.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("codeclip version %s (commit: %s) built at %s with %s on %s",
		i.Version, commit, i.BuildTime, i.GoVersion, i.Platform)
}
