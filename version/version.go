// Package version tells which build of flowcut is running.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version can be set at build time with something like:
// go build -ldflags "-X github.com/flowblade/flowcut/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision of the build, with -dirty appended for a
// modified work tree, or empty if the build has no VCS information.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && modified {
		rev += "-dirty"
	}
	return rev
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

// Long is the version with the Go runtime it was built with.
func Long() string {
	return "flowcut " + VersionOrHash + " (" + runtime.Version() + " " + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
