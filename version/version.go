package version //nolint:revive // package name intentionally matches build-info convention

import (
	"fmt"
	"runtime/debug"
)

// Set through -ldflags "-X github.com/pitabwire/userlocale/version.Version=..." at release time.
//
//nolint:gochecknoglobals //version information is set at build time
var (
	Version string
	Commit  string
	Date    string
)

// String describes the running build. Missing linker values fall back to the
// module build information embedded by the Go toolchain.
func String() string {
	v, commit := Version, Commit

	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" {
			v = info.Main.Version
		}
		if commit == "" {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
				}
			}
		}
	}

	if v == "" {
		v = "(devel)"
	}

	switch {
	case commit != "" && Date != "":
		return fmt.Sprintf("%s (%s, %s)", v, commit, Date)
	case commit != "":
		return fmt.Sprintf("%s (%s)", v, commit)
	default:
		return v
	}
}
