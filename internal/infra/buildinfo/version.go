package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	unset      = "unknown"
	devVersion = "dev"
	shortSHA   = 12
)

var (
	Version   = devVersion
	Commit    = unset
	BuildTime = unset
	GoVersion = runtime.Version()
)

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		Version, Commit, BuildTime = stamp(bi, Version, Commit, BuildTime)
	}
}

// stamp fills the values ldflags left at their defaults from bi.
func stamp(bi *debug.BuildInfo, version, commit, built string) (string, string, string) {
	if version == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Value == "" {
			continue
		}
		switch s.Key {
		case "vcs.revision":
			if commit == unset {
				commit = s.Value[:min(len(s.Value), shortSHA)]
			}
		case "vcs.time":
			if built == unset {
				built = s.Value
			}
		}
	}
	return version, commit, built
}

// String is the text printed by --version.
func String() string {
	return fmt.Sprintf("%s (%s) built at %s with %s", Version, Commit, BuildTime, GoVersion)
}
