// SPDX-License-Identifier: MIT
//
// Package build exposes the binary's name, build time, commit and version.
// Release builds set them with -ldflags; development builds fall back to the
// VCS stamp the Go toolchain embeds, and to "dev" where nothing is known.
package build

import (
	"errors"
	"runtime/debug"
	"strings"
)

const (
	defaultName = "spectrum"
	devVersion  = "dev"
	unknown     = "unknown"
)

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Set with -ldflags "-X spectrum/pkg/build.buildVersion=v1.2.0 ...".
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    defaultName,
		Time:    unknown,
		Commit:  unknown,
		Version: devVersion,
	}
)

var readBuildInfo = debug.ReadBuildInfo

// Initialize resolves the build information. A release build must set every
// ldflag; setting only some of them is an error. Without ldflags the VCS
// settings recorded by the toolchain are used when present.
func Initialize() error {
	set := map[string]string{
		"BuildName":    buildName,
		"BuildTime":    buildTime,
		"BuildCommit":  buildCommit,
		"BuildVersion": buildVersion,
	}
	var missing []string
	for _, key := range []string{"BuildName", "BuildTime", "BuildCommit", "BuildVersion"} {
		if set[key] == "" {
			missing = append(missing, key)
		}
	}

	switch len(missing) {
	case 0:
		buildFlags.Name = buildName
		buildFlags.Time = buildTime
		buildFlags.Commit = buildCommit
		buildFlags.Version = buildVersion
		return nil
	case len(set):
		fromBuildInfo(buildFlags)
		return nil
	default:
		return errors.New(strings.Join(missing, ", ") + " required when building with ldflags")
	}
}

func fromBuildInfo(f *ldFlags) {
	info, ok := readBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		f.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			f.Commit = s.Value
		case "vcs.time":
			f.Time = s.Value
		}
	}
}

// GetBuildFlags returns the current build information. Call Initialize first.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
